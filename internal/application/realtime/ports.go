package realtime

import "encoding/json"

// Handler recibe el payload crudo de un evento del canal.
type Handler func(data json.RawMessage)

// Transport es el colaborador pub/sub (socket, NATS). La conexión y la autenticación
// quedan fuera del motor; solo se consulta Connected para decidir los no-op del Guard.
// Las implementaciones entregan los mensajes de a uno, en el orden del publicador.
type Transport interface {
	Connected() bool
	On(event string, h Handler)
	Off(event string)
	Emit(event string, payload any) error
}

// Nombres de canal. Deben coincidir bit a bit con el servidor.
const (
	EventGetAllProductos        = "getAllProductos"
	EventLoadAllProductos       = "loadAllProductos"
	EventGetAllBodegas          = "getAllBodegas"
	EventLoadAllBodegas         = "loadAllBodegas"
	EventGetUbicacionesByBodega = "getUbicacionesByBodega"
	EventGetTandasByIDProducto  = "getTandasByIdProducto"

	EventStockProductoChange = "stockProductoChange"
	EventNewTandaCreated     = "newTandaCreated"
	EventNewTandaUpdate      = "newTandaUpdate"
)

// UbicacionesChannel canal de respuesta por bodega: "<id>-ubicaciones".
func UbicacionesChannel(bodegaID string) string { return bodegaID + "-ubicaciones" }

// TandaChannel canal de respuesta por producto: "<id>-tanda".
func TandaChannel(productoID string) string { return productoID + "-tanda" }
