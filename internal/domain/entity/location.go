package entity

// Location es una ubicación dentro de una bodega (solo referencia hacia atrás, WarehouseID).
type Location struct {
	ID          string `json:"id"`
	WarehouseID string `json:"bodegaId"`
	Name        string `json:"nombre"`
}
