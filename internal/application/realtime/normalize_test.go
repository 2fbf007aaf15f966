package realtime_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/application/realtime"
	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
)

func decodeTanda(t *testing.T, raw string) dto.TandaWire {
	t.Helper()
	var w dto.TandaWire
	require.NoError(t, json.Unmarshal([]byte(raw), &w))
	return w
}

func assertSameBatch(t *testing.T, want, got entity.Batch) {
	t.Helper()
	assert.True(t, want.Quantity.Equal(got.Quantity), "cantidad %s != %s", want.Quantity, got.Quantity)
	want.Quantity, got.Quantity = decimal.Zero, decimal.Zero
	assert.Equal(t, want, got)
}

func TestNormalizeBatch_CadenaDeCantidad(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int64
	}{
		{"cantidad", `{"id":1,"productoId":2,"cantidad":4,"cantidadActual":9}`, 4},
		{"cantidadActual", `{"id":1,"productoId":2,"cantidadActual":9}`, 9},
		{"null cae al siguiente", `{"id":1,"productoId":2,"cantidad":null,"cantidadActual":3}`, 3},
		{"cero explícito", `{"id":1,"productoId":2,"cantidad":0,"cantidadActual":3}`, 0},
		{"ninguna", `{"id":1,"productoId":2}`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := realtime.NormalizeBatch(decodeTanda(t, tc.raw))
			assert.True(t, b.Quantity.Equal(decimal.NewFromInt(tc.want)), "obtenido %s", b.Quantity)
		})
	}
}

func TestNormalizeBatch_VencimientoEIds(t *testing.T) {
	b := realtime.NormalizeBatch(decodeTanda(t,
		`{"id":100,"productoId":"1","cantidad":"4.5","fechaVencimiento":"2025-01-01","fechaIngreso":"2024-01-10","precio":99}`))

	assert.Equal(t, "100", b.ID)
	assert.Equal(t, "1", b.ProductID)
	assert.Equal(t, "2025-01-01", b.Expiry)
	assert.Equal(t, "2024-01-10", b.ReceivedAt)
	assert.True(t, b.Quantity.Equal(decimal.RequireFromString("4.5")))

	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "precio", "los campos fuera de la lista no pasan al modelo")
}

func TestNormalizeBatch_Idempotente(t *testing.T) {
	raws := []string{
		`{"id":100,"productoId":1,"cantidad":4,"fechaVencimiento":"2025-01-01"}`,
		`{"id":"x","productoId":"p","cantidadActual":7,"fechaVencimiento":"2024-06-01T00:00:00Z","codigo":"L-7","createdAt":"2024-05-01"}`,
		`{"id":3,"productoId":1}`,
	}
	for _, raw := range raws {
		once := realtime.NormalizeBatch(decodeTanda(t, raw))

		// Vía estructura.
		twice := realtime.NormalizeBatch(realtime.BatchToWire(once))
		assertSameBatch(t, once, twice)

		// Vía JSON canónico.
		data, err := json.Marshal(once)
		require.NoError(t, err)
		viaJSON := realtime.NormalizeBatch(decodeTanda(t, string(data)))
		assertSameBatch(t, once, viaJSON)
	}
}

func TestMergeBatch_SoloCamposPresentes(t *testing.T) {
	b := realtime.NormalizeBatch(decodeTanda(t, `{"id":1,"productoId":2,"cantidad":4,"fechaVencimiento":"2025-01-01","codigo":"L1"}`))

	realtime.MergeBatch(&b, decodeTanda(t, `{"id":1,"productoId":2,"cantidadActual":2}`))
	assert.True(t, b.Quantity.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "2025-01-01", b.Expiry, "sin fecha en el evento se conserva la anterior")
	assert.Equal(t, "L1", b.Code)

	realtime.MergeBatch(&b, decodeTanda(t, `{"id":1,"productoId":2,"fechaVencimiento":"2024-12-01"}`))
	assert.True(t, b.Quantity.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "2024-12-01", b.Expiry)
}

func TestNormalizeProduct_StockAusente(t *testing.T) {
	var w dto.ProductoWire
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"nombre":"Jabón","lotes":[{"id":1}]}`), &w))
	p := realtime.NormalizeProduct(w)

	assert.Equal(t, "1", p.ID)
	assert.True(t, p.Stock.IsZero())
	assert.Nil(t, p.Batches, "los lotes del cable no se aceptan: se cargan por su canal")
}

func TestNormalizeLocation_BodegaPorDefecto(t *testing.T) {
	loc := realtime.NormalizeLocation(dto.UbicacionWire{ID: "u1", Nombre: "Pasillo 1"}, "3")
	assert.Equal(t, "3", loc.WarehouseID)
}
