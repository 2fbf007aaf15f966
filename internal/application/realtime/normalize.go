package realtime

import (
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
)

// NormalizeBatch convierte una tanda de cable a la forma canónica.
// vencimiento = fechaVencimiento (o vencimiento si ya es canónica);
// cantidad = cantidad ?? cantidadActual ?? 0. Es idempotente sobre la forma canónica.
func NormalizeBatch(w dto.TandaWire) entity.Batch {
	return entity.Batch{
		ID:         string(w.ID),
		ProductID:  string(w.ProductoID),
		LocationID: string(w.UbicacionID),
		Code:       deref(w.Codigo),
		Quantity:   batchQuantity(w),
		Expiry:     firstOf(w.FechaVencimiento, w.Vencimiento),
		ReceivedAt: deref(w.FechaIngreso),
		CreatedAt:  deref(w.CreatedAt),
	}
}

// MergeBatch aplica sobre dst solo los campos presentes en w. La identidad (id, productoId) no cambia.
func MergeBatch(dst *entity.Batch, w dto.TandaWire) {
	if w.Cantidad != nil || w.CantidadActual != nil {
		dst.Quantity = batchQuantity(w)
	}
	if w.FechaVencimiento != nil || w.Vencimiento != nil {
		dst.Expiry = firstOf(w.FechaVencimiento, w.Vencimiento)
	}
	if w.UbicacionID != "" {
		dst.LocationID = string(w.UbicacionID)
	}
	if w.Codigo != nil {
		dst.Code = *w.Codigo
	}
	if w.FechaIngreso != nil {
		dst.ReceivedAt = *w.FechaIngreso
	}
	if w.CreatedAt != nil {
		dst.CreatedAt = *w.CreatedAt
	}
}

// BatchToWire devuelve la forma de cable de una tanda canónica.
func BatchToWire(b entity.Batch) dto.TandaWire {
	q := b.Quantity
	w := dto.TandaWire{
		ID:          dto.FlexID(b.ID),
		ProductoID:  dto.FlexID(b.ProductID),
		UbicacionID: dto.FlexID(b.LocationID),
		Cantidad:    &q,
	}
	w.Codigo = ptrIfSet(b.Code)
	w.Vencimiento = ptrIfSet(b.Expiry)
	w.FechaIngreso = ptrIfSet(b.ReceivedAt)
	w.CreatedAt = ptrIfSet(b.CreatedAt)
	return w
}

// NormalizeProduct convierte un producto de cable. Los lotes quedan sin cargar (nil).
func NormalizeProduct(w dto.ProductoWire) entity.Product {
	p := entity.Product{
		ID:          string(w.ID),
		Name:        w.Nombre,
		Description: w.Descripcion,
	}
	if w.Stock != nil {
		p.Stock = *w.Stock
	}
	return p
}

// NormalizeWarehouse convierte una bodega de cable.
func NormalizeWarehouse(w dto.BodegaWire) entity.Warehouse {
	return entity.Warehouse{ID: string(w.ID), Name: w.Nombre, Address: w.Direccion}
}

// NormalizeLocation convierte una ubicación de cable. Si el cable no trae bodega se usa warehouseID.
func NormalizeLocation(w dto.UbicacionWire, warehouseID string) entity.Location {
	loc := entity.Location{ID: string(w.ID), WarehouseID: string(w.BodegaID), Name: w.Nombre}
	if loc.WarehouseID == "" {
		loc.WarehouseID = warehouseID
	}
	return loc
}

func batchQuantity(w dto.TandaWire) decimal.Decimal {
	switch {
	case w.Cantidad != nil:
		return *w.Cantidad
	case w.CantidadActual != nil:
		return *w.CantidadActual
	default:
		return decimal.Zero
	}
}

func firstOf(vals ...*string) string {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptrIfSet(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
