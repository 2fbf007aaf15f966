package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del inventario tal como lo ve el cliente en tiempo real.
// TotalQuantity, NearestExpiry y ExpiryDate son derivados de Batches; solo inventory.Recalculate
// (o el override de stock) los asigna. ExpiryDate es el vencimiento textual del lote ganador,
// tal como llegó; NearestExpiry es su valor interpretado.
// Batches == nil significa "lotes nunca cargados"; un slice vacío significa "cargados, ninguno".
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"nombre"`
	Description   string          `json:"descripcion,omitempty"`
	Stock         decimal.Decimal `json:"stock"`
	TotalQuantity decimal.Decimal `json:"cantidadTotal"`
	ExpiryDate    string          `json:"fechaVencimiento,omitempty"`
	NearestExpiry *time.Time      `json:"-"`
	Batches       []Batch         `json:"lotes"`
}

// Clone devuelve una copia independiente (slice de lotes incluido).
func (p Product) Clone() Product {
	out := p
	if p.Batches != nil {
		out.Batches = append(make([]Batch, 0, len(p.Batches)), p.Batches...)
	}
	if p.NearestExpiry != nil {
		t := *p.NearestExpiry
		out.NearestExpiry = &t
	}
	return out
}

// BatchIndex devuelve la posición del lote con ese id, o -1.
func (p *Product) BatchIndex(batchID string) int {
	for i := range p.Batches {
		if p.Batches[i].ID == batchID {
			return i
		}
	}
	return -1
}
