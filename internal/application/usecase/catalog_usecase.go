package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/application/realtime"
	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
)

// CatalogUseCase casos de uso de escritura del catálogo. Cada operación va por REST y, si el
// servidor la acepta, se refleja en el store: create/update fusiona la entidad devuelta,
// delete la expulsa. Un fallo remoto no toca el store.
type CatalogUseCase struct {
	api   CatalogAPI
	store *realtime.Store
}

// NewCatalogUseCase construye el caso de uso.
func NewCatalogUseCase(api CatalogAPI, store *realtime.Store) *CatalogUseCase {
	return &CatalogUseCase{api: api, store: store}
}

// ─── Productos ───────────────────────────────────────────────────────────────

// CreateProducto crea un producto y lo agrega al store.
func (uc *CatalogUseCase) CreateProducto(ctx context.Context, in dto.CreateProductoRequest) (entity.Product, error) {
	if strings.TrimSpace(in.Nombre) == "" || in.Stock.IsNegative() {
		return entity.Product{}, domain.ErrInvalidInput
	}
	w, err := uc.api.CreateProducto(ctx, in)
	if err != nil {
		return entity.Product{}, fmt.Errorf("crear producto: %w", err)
	}
	p := realtime.NormalizeProduct(w)
	uc.store.UpsertProduct(p)
	out, _ := uc.store.Product(p.ID)
	return out, nil
}

// UpdateProducto actualiza nombre/descripción. Los lotes cargados se conservan.
func (uc *CatalogUseCase) UpdateProducto(ctx context.Context, id string, in dto.UpdateProductoRequest) (entity.Product, error) {
	if id == "" || (in.Nombre != nil && strings.TrimSpace(*in.Nombre) == "") {
		return entity.Product{}, domain.ErrInvalidInput
	}
	w, err := uc.api.UpdateProducto(ctx, id, in)
	if err != nil {
		return entity.Product{}, fmt.Errorf("actualizar producto %s: %w", id, err)
	}
	p := realtime.NormalizeProduct(w)
	if p.ID == "" {
		p.ID = id
	}
	if w.Stock == nil {
		if cur, ok := uc.store.Product(id); ok {
			p.Stock = cur.Stock
		}
	}
	uc.store.UpsertProduct(p)
	out, _ := uc.store.Product(p.ID)
	return out, nil
}

// DeleteProducto elimina el producto y lo expulsa del store.
func (uc *CatalogUseCase) DeleteProducto(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}
	if err := uc.api.DeleteProducto(ctx, id); err != nil {
		return fmt.Errorf("eliminar producto %s: %w", id, err)
	}
	uc.store.RemoveProduct(id)
	return nil
}

// ─── Bodegas ─────────────────────────────────────────────────────────────────

// CreateBodega crea una bodega.
func (uc *CatalogUseCase) CreateBodega(ctx context.Context, in dto.CreateBodegaRequest) (entity.Warehouse, error) {
	if strings.TrimSpace(in.Nombre) == "" {
		return entity.Warehouse{}, domain.ErrInvalidInput
	}
	w, err := uc.api.CreateBodega(ctx, in)
	if err != nil {
		return entity.Warehouse{}, fmt.Errorf("crear bodega: %w", err)
	}
	b := realtime.NormalizeWarehouse(w)
	uc.store.UpsertWarehouse(b)
	return b, nil
}

// UpdateBodega actualiza una bodega.
func (uc *CatalogUseCase) UpdateBodega(ctx context.Context, id string, in dto.UpdateBodegaRequest) (entity.Warehouse, error) {
	if id == "" {
		return entity.Warehouse{}, domain.ErrInvalidInput
	}
	w, err := uc.api.UpdateBodega(ctx, id, in)
	if err != nil {
		return entity.Warehouse{}, fmt.Errorf("actualizar bodega %s: %w", id, err)
	}
	b := realtime.NormalizeWarehouse(w)
	if b.ID == "" {
		b.ID = id
	}
	uc.store.UpsertWarehouse(b)
	return b, nil
}

// DeleteBodega elimina la bodega junto con sus ubicaciones cargadas.
func (uc *CatalogUseCase) DeleteBodega(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}
	if err := uc.api.DeleteBodega(ctx, id); err != nil {
		return fmt.Errorf("eliminar bodega %s: %w", id, err)
	}
	uc.store.RemoveWarehouse(id)
	return nil
}

// ─── Ubicaciones ─────────────────────────────────────────────────────────────

// CreateUbicacion crea una ubicación. Solo se agrega al store si las ubicaciones de su bodega ya se pidieron.
func (uc *CatalogUseCase) CreateUbicacion(ctx context.Context, in dto.CreateUbicacionRequest) (entity.Location, error) {
	if in.BodegaID == "" || strings.TrimSpace(in.Nombre) == "" {
		return entity.Location{}, domain.ErrInvalidInput
	}
	w, err := uc.api.CreateUbicacion(ctx, in)
	if err != nil {
		return entity.Location{}, fmt.Errorf("crear ubicación: %w", err)
	}
	loc := realtime.NormalizeLocation(w, string(in.BodegaID))
	uc.store.UpsertLocation(loc)
	return loc, nil
}

// UpdateUbicacion actualiza una ubicación. Si la respuesta no trae bodega se conserva la conocida.
func (uc *CatalogUseCase) UpdateUbicacion(ctx context.Context, id string, in dto.UpdateUbicacionRequest) (entity.Location, error) {
	if id == "" {
		return entity.Location{}, domain.ErrInvalidInput
	}
	w, err := uc.api.UpdateUbicacion(ctx, id, in)
	if err != nil {
		return entity.Location{}, fmt.Errorf("actualizar ubicación %s: %w", id, err)
	}
	owner := ""
	if cur, ok := uc.store.FindLocation(id); ok {
		owner = cur.WarehouseID
	}
	loc := realtime.NormalizeLocation(w, owner)
	if loc.ID == "" {
		loc.ID = id
	}
	if loc.WarehouseID != "" {
		uc.store.UpsertLocation(loc)
	}
	return loc, nil
}

// DeleteUbicacion elimina una ubicación.
func (uc *CatalogUseCase) DeleteUbicacion(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}
	if err := uc.api.DeleteUbicacion(ctx, id); err != nil {
		return fmt.Errorf("eliminar ubicación %s: %w", id, err)
	}
	uc.store.RemoveLocation(id)
	return nil
}

// ─── Tandas ──────────────────────────────────────────────────────────────────

// CreateTanda registra una tanda. El servidor también emite newTandaCreated; ambas vías
// pasan por la misma inserción idempotente, así que el orden de llegada no importa.
func (uc *CatalogUseCase) CreateTanda(ctx context.Context, in dto.CreateTandaRequest) (entity.Batch, error) {
	if in.ProductoID == "" || in.Cantidad.IsNegative() {
		return entity.Batch{}, domain.ErrInvalidInput
	}
	w, err := uc.api.CreateTanda(ctx, in)
	if err != nil {
		return entity.Batch{}, fmt.Errorf("crear tanda: %w", err)
	}
	if w.ProductoID == "" {
		w.ProductoID = in.ProductoID
	}
	b := realtime.NormalizeBatch(w)
	uc.store.InsertBatch(b)
	return b, nil
}

// UpdateTanda actualiza una tanda del producto y fusiona la respuesta en sus lotes cargados.
func (uc *CatalogUseCase) UpdateTanda(ctx context.Context, productID, id string, in dto.UpdateTandaRequest) (entity.Batch, error) {
	if productID == "" || id == "" {
		return entity.Batch{}, domain.ErrInvalidInput
	}
	if in.Cantidad != nil && in.Cantidad.IsNegative() {
		return entity.Batch{}, domain.ErrInvalidInput
	}
	w, err := uc.api.UpdateTanda(ctx, id, in)
	if err != nil {
		return entity.Batch{}, fmt.Errorf("actualizar tanda %s: %w", id, err)
	}
	var merged entity.Batch
	applied := uc.store.UpdateBatch(productID, id, func(b *entity.Batch) {
		realtime.MergeBatch(b, w)
		merged = *b
	})
	if !applied {
		w.ID, w.ProductoID = dto.FlexID(id), dto.FlexID(productID)
		merged = realtime.NormalizeBatch(w)
	}
	return merged, nil
}
