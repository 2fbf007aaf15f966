package entity

import "github.com/shopspring/decimal"

// Batch es una tanda (lote) recibida de un producto, con su propio vencimiento.
// Es la forma canónica: la forma de cable se descarta después de normalizar.
// Las fechas se guardan tal como llegan; se interpretan con inventory.ParseDate.
type Batch struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"productoId"`
	LocationID string          `json:"ubicacionId,omitempty"`
	Code       string          `json:"codigo,omitempty"`
	Quantity   decimal.Decimal `json:"cantidad"`
	Expiry     string          `json:"vencimiento,omitempty"`
	ReceivedAt string          `json:"fechaIngreso,omitempty"`
	CreatedAt  string          `json:"createdAt,omitempty"`
}

// RecentBatch es una tanda anotada con el nombre de su producto (proyección "tandas recientes").
type RecentBatch struct {
	Batch
	ProductName string `json:"productoNombre"`
}
