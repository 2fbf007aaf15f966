package dto

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// FlexID acepta ids numéricos o de texto en el cable y los guarda como string.
// Al serializar, un id puramente numérico vuelve a salir como número.
type FlexID string

// UnmarshalJSON implementa json.Unmarshaler.
func (id *FlexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id inválido: %s", b)
	}
	*id = FlexID(n.String())
	return nil
}

// MarshalJSON implementa json.Marshaler.
func (id FlexID) MarshalJSON() ([]byte, error) {
	if isCanonicalInt(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func isCanonicalInt(s string) bool {
	if s == "" || len(s) > 15 {
		return false
	}
	if s[0] == '0' && len(s) > 1 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ProductoWire forma de cable de un producto (loadAllProductos, REST).
// Solo los campos listados pasan al modelo canónico.
type ProductoWire struct {
	ID          FlexID           `json:"id"`
	Nombre      string           `json:"nombre"`
	Descripcion string           `json:"descripcion,omitempty"`
	Stock       *decimal.Decimal `json:"stock,omitempty" swaggertype:"number"`
}

// BodegaWire forma de cable de una bodega.
type BodegaWire struct {
	ID        FlexID `json:"id"`
	Nombre    string `json:"nombre"`
	Direccion string `json:"direccion,omitempty"`
}

// UbicacionWire forma de cable de una ubicación.
type UbicacionWire struct {
	ID       FlexID `json:"id"`
	BodegaID FlexID `json:"bodegaId,omitempty"`
	Nombre   string `json:"nombre"`
}

// TandaWire forma de cable de una tanda/lote.
// La cantidad puede llegar como cantidad o cantidadActual; el vencimiento como fechaVencimiento
// (o vencimiento, cuando lo que llega ya es la forma canónica).
type TandaWire struct {
	ID               FlexID           `json:"id"`
	ProductoID       FlexID           `json:"productoId"`
	UbicacionID      FlexID           `json:"ubicacionId,omitempty"`
	Codigo           *string          `json:"codigo,omitempty"`
	Cantidad         *decimal.Decimal `json:"cantidad,omitempty" swaggertype:"number"`
	CantidadActual   *decimal.Decimal `json:"cantidadActual,omitempty" swaggertype:"number"`
	FechaVencimiento *string          `json:"fechaVencimiento,omitempty"`
	Vencimiento      *string          `json:"vencimiento,omitempty"`
	FechaIngreso     *string          `json:"fechaIngreso,omitempty"`
	CreatedAt        *string          `json:"createdAt,omitempty"`
}

// StockChangeEvent payload de stockProductoChange.
// Stock es nil cuando el campo falta o llega null; ese evento no se aplica.
type StockChangeEvent struct {
	ID    FlexID           `json:"id"`
	Stock *decimal.Decimal `json:"stock" swaggertype:"number"`
}

// UbicacionesRequest payload de getUbicacionesByBodega.
type UbicacionesRequest struct {
	IDBodega FlexID `json:"idBodega"`
}

// TandasRequest payload de getTandasByIdProducto.
type TandasRequest struct {
	IDProducto FlexID `json:"idProducto"`
}

// SocketFrame sobre de cada mensaje del socket: {"event": ..., "data": ...}.
type SocketFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}
