package entity

// Warehouse representa una bodega. Sus ubicaciones se cargan bajo demanda en el store.
type Warehouse struct {
	ID      string `json:"id"`
	Name    string `json:"nombre"`
	Address string `json:"direccion,omitempty"`
}
