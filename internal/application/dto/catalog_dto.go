package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CreateProductoRequest entrada para crear un producto (POST /inventario/productos).
type CreateProductoRequest struct {
	Nombre      string          `json:"nombre"`
	Descripcion string          `json:"descripcion,omitempty"`
	Stock       decimal.Decimal `json:"stock" swaggertype:"number"`
}

// UpdateProductoRequest entrada para actualizar un producto (PATCH).
type UpdateProductoRequest struct {
	Nombre      *string `json:"nombre,omitempty"`
	Descripcion *string `json:"descripcion,omitempty"`
}

// CreateBodegaRequest entrada para crear una bodega.
type CreateBodegaRequest struct {
	Nombre    string `json:"nombre"`
	Direccion string `json:"direccion,omitempty"`
}

// UpdateBodegaRequest entrada para actualizar una bodega.
type UpdateBodegaRequest struct {
	Nombre    *string `json:"nombre,omitempty"`
	Direccion *string `json:"direccion,omitempty"`
}

// CreateUbicacionRequest entrada para crear una ubicación.
type CreateUbicacionRequest struct {
	BodegaID FlexID `json:"bodegaId"`
	Nombre   string `json:"nombre"`
}

// UpdateUbicacionRequest entrada para actualizar una ubicación.
type UpdateUbicacionRequest struct {
	Nombre *string `json:"nombre,omitempty"`
}

// CreateTandaRequest entrada para registrar una tanda (POST /inventario/tandas).
type CreateTandaRequest struct {
	ProductoID       FlexID          `json:"productoId"`
	UbicacionID      FlexID          `json:"ubicacionId,omitempty"`
	Codigo           string          `json:"codigo,omitempty"`
	Cantidad         decimal.Decimal `json:"cantidad" swaggertype:"number"`
	FechaVencimiento string          `json:"fechaVencimiento"`
}

// UpdateTandaRequest entrada para actualizar una tanda.
type UpdateTandaRequest struct {
	Cantidad         *decimal.Decimal `json:"cantidad,omitempty" swaggertype:"number"`
	FechaVencimiento *string          `json:"fechaVencimiento,omitempty"`
	UbicacionID      *FlexID          `json:"ubicacionId,omitempty"`
}

// MermaRequest entrada para registrar una merma (POST /movimientos/merma).
type MermaRequest struct {
	ProductoID FlexID          `json:"productoId"`
	TandaID    FlexID          `json:"tandaId,omitempty"`
	Cantidad   decimal.Decimal `json:"cantidad" swaggertype:"number"`
	Motivo     string          `json:"motivo,omitempty"`
}

// LoginRequest entrada de login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse salida de login. El servidor puede envolverla en {"auth": {...}}.
type LoginResponse struct {
	Token  string `json:"token"`
	ID     FlexID `json:"id,omitempty"`
	Email  string `json:"email,omitempty"`
	Nombre string `json:"nombre,omitempty"`
	Rol    string `json:"rol,omitempty"`
}

// UnmarshalJSON acepta tanto la respuesta plana como la envuelta en "auth".
func (r *LoginResponse) UnmarshalJSON(b []byte) error {
	type plain LoginResponse
	var wrapped struct {
		Auth *plain `json:"auth"`
	}
	if err := json.Unmarshal(b, &wrapped); err == nil && wrapped.Auth != nil {
		*r = LoginResponse(*wrapped.Auth)
		return nil
	}
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = LoginResponse(p)
	return nil
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
