package usecase_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/application/usecase"
	"github.com/jhoicas/Inventario-sync/internal/domain"
)

func TestMovimiento_RegistrarMerma(t *testing.T) {
	api := &fakeAPI{}
	uc := usecase.NewMovimientoUseCase(api)

	in := dto.MermaRequest{ProductoID: "1", TandaID: "9", Cantidad: decimal.NewFromInt(2), Motivo: "vencido"}
	res, err := uc.RegistrarMerma(context.Background(), in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(res))
	assert.Equal(t, in, api.lastMer)
}

func TestMovimiento_MermaCantidadNoPositiva(t *testing.T) {
	api := &fakeAPI{}
	uc := usecase.NewMovimientoUseCase(api)

	for _, q := range []int64{0, -3} {
		_, err := uc.RegistrarMerma(context.Background(), dto.MermaRequest{ProductoID: "1", Cantidad: decimal.NewFromInt(q)})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
	assert.Empty(t, api.calls)
}

func TestMovimiento_InfoChartsPropagaError(t *testing.T) {
	api := &fakeAPI{charts: json.RawMessage(`{"series":[]}`)}
	uc := usecase.NewMovimientoUseCase(api)

	res, err := uc.InfoCharts(context.Background(), map[string]string{"desde": "2024-01-01"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"series":[]}`, string(res))

	api.fail = remoteErr
	_, err = uc.InfoCharts(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrRemoteRequestFailed)
}
