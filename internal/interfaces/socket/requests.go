package socket

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/application/realtime"
)

// ErrUnknownEvent evento sin handler de petición.
var ErrUnknownEvent = errors.New("evento de petición desconocido")

// Catalog lecturas que el peer sirve por los canales de petición.
type Catalog interface {
	Productos() []dto.ProductoWire
	Bodegas() []dto.BodegaWire
	UbicacionesByBodega(bodegaID string) []dto.UbicacionWire
	TandasByProducto(productoID string) []dto.TandaWire
}

// Requests resuelve cada evento de petición a su canal de respuesta y payload.
// Lo comparten el hub WebSocket y el puente NATS.
type Requests struct {
	catalog Catalog
}

// NewRequests construye el despachador.
func NewRequests(catalog Catalog) *Requests {
	return &Requests{catalog: catalog}
}

// Events lista los eventos de petición atendidos.
func (r *Requests) Events() []string {
	return []string{
		realtime.EventGetAllProductos,
		realtime.EventGetAllBodegas,
		realtime.EventGetUbicacionesByBodega,
		realtime.EventGetTandasByIDProducto,
	}
}

// Handle devuelve (canal de respuesta, payload) para event. ErrUnknownEvent si no es una petición.
func (r *Requests) Handle(event string, data json.RawMessage) (string, any, error) {
	switch event {
	case realtime.EventGetAllProductos:
		return realtime.EventLoadAllProductos, r.catalog.Productos(), nil
	case realtime.EventGetAllBodegas:
		return realtime.EventLoadAllBodegas, r.catalog.Bodegas(), nil
	case realtime.EventGetUbicacionesByBodega:
		var req dto.UbicacionesRequest
		if err := decode(data, &req); err != nil || req.IDBodega == "" {
			return "", nil, fmt.Errorf("%s: idBodega requerido", event)
		}
		id := string(req.IDBodega)
		return realtime.UbicacionesChannel(id), r.catalog.UbicacionesByBodega(id), nil
	case realtime.EventGetTandasByIDProducto:
		var req dto.TandasRequest
		if err := decode(data, &req); err != nil || req.IDProducto == "" {
			return "", nil, fmt.Errorf("%s: idProducto requerido", event)
		}
		id := string(req.IDProducto)
		return realtime.TandaChannel(id), r.catalog.TandasByProducto(id), nil
	}
	return "", nil, fmt.Errorf("%w: %s", ErrUnknownEvent, event)
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errors.New("payload vacío")
	}
	return json.Unmarshal(data, v)
}
