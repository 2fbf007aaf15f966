package inventory

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
)

// Formatos de fecha aceptados en vencimientos e ingresos.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate interpreta una fecha de cable. ok=false para vacías o inválidas.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Recalculate recalcula los derivados de un producto a partir de sus lotes (servicio de dominio).
// TotalQuantity = Σ cantidad; NearestExpiry = vencimiento mínimo entre fechas válidas, nil si no hay ninguna.
// ExpiryDate conserva el texto del lote ganador; ante empate gana el primero.
// Debe llamarse después de cada mutación de p.Batches.
func Recalculate(p *entity.Product) {
	total := decimal.Zero
	var nearest *time.Time
	raw := ""
	for _, b := range p.Batches {
		total = total.Add(b.Quantity)
		t, ok := ParseDate(b.Expiry)
		if !ok {
			continue
		}
		if nearest == nil || t.Before(*nearest) {
			nearest = &t
			raw = b.Expiry
		}
	}
	p.TotalQuantity = total
	p.NearestExpiry = nearest
	p.ExpiryDate = raw
}

// Refresh deja los derivados coherentes tras cargar o reemplazar el producto:
// con lotes nunca cargados, TotalQuantity refleja el stock del servidor; si no, Recalculate.
func Refresh(p *entity.Product) {
	if p.Batches == nil {
		p.TotalQuantity = p.Stock
		p.NearestExpiry = nil
		p.ExpiryDate = ""
		return
	}
	Recalculate(p)
}

// ApplyStock aplica el override autoritativo de stockProductoChange.
// TotalQuantity queda igual al stock hasta la próxima mutación de lotes.
func ApplyStock(p *entity.Product, stock decimal.Decimal) {
	p.Stock = stock
	p.TotalQuantity = stock
}
