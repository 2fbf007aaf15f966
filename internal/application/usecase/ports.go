package usecase

import (
	"context"
	"encoding/json"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
)

// CatalogAPI endpoints REST de escritura del catálogo. Los errores de red o de estado HTTP
// llegan envueltos en domain.ErrRemoteRequestFailed.
type CatalogAPI interface {
	CreateProducto(ctx context.Context, in dto.CreateProductoRequest) (dto.ProductoWire, error)
	UpdateProducto(ctx context.Context, id string, in dto.UpdateProductoRequest) (dto.ProductoWire, error)
	DeleteProducto(ctx context.Context, id string) error

	CreateBodega(ctx context.Context, in dto.CreateBodegaRequest) (dto.BodegaWire, error)
	UpdateBodega(ctx context.Context, id string, in dto.UpdateBodegaRequest) (dto.BodegaWire, error)
	DeleteBodega(ctx context.Context, id string) error

	CreateUbicacion(ctx context.Context, in dto.CreateUbicacionRequest) (dto.UbicacionWire, error)
	UpdateUbicacion(ctx context.Context, id string, in dto.UpdateUbicacionRequest) (dto.UbicacionWire, error)
	DeleteUbicacion(ctx context.Context, id string) error

	CreateTanda(ctx context.Context, in dto.CreateTandaRequest) (dto.TandaWire, error)
	UpdateTanda(ctx context.Context, id string, in dto.UpdateTandaRequest) (dto.TandaWire, error)
}

// MovimientoAPI endpoints de movimientos y reportes.
type MovimientoAPI interface {
	RegistrarMerma(ctx context.Context, in dto.MermaRequest) (json.RawMessage, error)
	InfoCharts(ctx context.Context, params map[string]string) (json.RawMessage, error)
}
