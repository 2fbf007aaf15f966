package socket_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-sync/internal/interfaces/socket"
)

func newRequests(t *testing.T) *socket.Requests {
	t.Helper()
	catalog, err := memory.LoadCatalog("")
	require.NoError(t, err)
	return socket.NewRequests(catalog)
}

func TestRequests_CanalesDeRespuesta(t *testing.T) {
	r := newRequests(t)

	cases := []struct {
		event string
		data  string
		reply string
	}{
		{"getAllProductos", ``, "loadAllProductos"},
		{"getAllBodegas", `null`, "loadAllBodegas"},
		{"getUbicacionesByBodega", `{"idBodega":1}`, "1-ubicaciones"},
		{"getTandasByIdProducto", `{"idProducto":"3"}`, "3-tanda"},
	}
	for _, tc := range cases {
		t.Run(tc.event, func(t *testing.T) {
			reply, payload, err := r.Handle(tc.event, json.RawMessage(tc.data))
			require.NoError(t, err)
			assert.Equal(t, tc.reply, reply)
			assert.NotNil(t, payload)
		})
	}
}

func TestRequests_PayloadDeTandas(t *testing.T) {
	r := newRequests(t)
	_, payload, err := r.Handle("getTandasByIdProducto", json.RawMessage(`{"idProducto":1}`))
	require.NoError(t, err)
	tandas, ok := payload.([]dto.TandaWire)
	require.True(t, ok)
	assert.Len(t, tandas, 2)
}

func TestRequests_PeticionesInvalidas(t *testing.T) {
	r := newRequests(t)

	_, _, err := r.Handle("getTandasByIdProducto", nil)
	assert.Error(t, err)
	_, _, err = r.Handle("getUbicacionesByBodega", json.RawMessage(`{}`))
	assert.Error(t, err)

	_, _, err = r.Handle("stockProductoChange", nil)
	assert.ErrorIs(t, err, socket.ErrUnknownEvent)
}

func TestRequests_Events(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{"getAllProductos", "getAllBodegas", "getUbicacionesByBodega", "getTandasByIdProducto"},
		newRequests(t).Events())
}
