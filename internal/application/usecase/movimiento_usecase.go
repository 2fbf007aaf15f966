package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/domain"
)

// MovimientoUseCase movimientos de inventario que no pasan por el catálogo.
// El stock resultante llega después como stockProductoChange; aquí no se toca el store.
type MovimientoUseCase struct {
	api MovimientoAPI
}

// NewMovimientoUseCase construye el caso de uso.
func NewMovimientoUseCase(api MovimientoAPI) *MovimientoUseCase {
	return &MovimientoUseCase{api: api}
}

// RegistrarMerma registra una pérdida de inventario. Cantidad debe ser positiva.
func (uc *MovimientoUseCase) RegistrarMerma(ctx context.Context, in dto.MermaRequest) (json.RawMessage, error) {
	if in.ProductoID == "" || !in.Cantidad.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	res, err := uc.api.RegistrarMerma(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("registrar merma: %w", err)
	}
	return res, nil
}

// InfoCharts devuelve los datos de gráficos del inventario tal como los entrega el servidor.
func (uc *MovimientoUseCase) InfoCharts(ctx context.Context, params map[string]string) (json.RawMessage, error) {
	res, err := uc.api.InfoCharts(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("info charts: %w", err)
	}
	return res, nil
}
