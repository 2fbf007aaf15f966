package realtime_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-sync/internal/application/realtime"
	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

func noop(json.RawMessage) {}

func TestGuard_SinTransporteEsNoOp(t *testing.T) {
	g := realtime.NewGuard(nil, logger.Nop())

	assert.False(t, g.Connected())
	token, err := g.Subscribe("loadAllProductos", noop)
	assert.NoError(t, err)
	assert.Empty(t, token)
	assert.NotPanics(t, func() { g.Unsubscribe("loadAllProductos") })
	assert.NoError(t, g.Publish("getAllProductos", nil))
}

func TestGuard_DesconectadoOmitePublish(t *testing.T) {
	ft := newFakeTransport()
	ft.SetConnected(false)
	g := realtime.NewGuard(ft, logger.Nop())

	token, err := g.Subscribe("loadAllProductos", noop)
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.False(t, ft.HasHandler("loadAllProductos"))

	require.NoError(t, g.Publish("getAllProductos", nil))
	assert.Empty(t, ft.Emitted(), "sin conexión no se emite nada")
}

func TestGuard_UnHandlerPorCanal(t *testing.T) {
	ft := newFakeTransport()
	g := realtime.NewGuard(ft, logger.Nop())

	_, err := g.Subscribe("5-tanda", noop)
	require.NoError(t, err)
	_, err = g.Subscribe("5-tanda", noop)
	assert.ErrorIs(t, err, domain.ErrHandlerBound)

	g.Unsubscribe("5-tanda")
	_, err = g.Subscribe("5-tanda", noop)
	assert.NoError(t, err)
}

func TestGuard_UnsubscribeTokenNoBorraHandlerNuevo(t *testing.T) {
	ft := newFakeTransport()
	g := realtime.NewGuard(ft, logger.Nop())

	viejo, err := g.Subscribe("5-tanda", noop)
	require.NoError(t, err)
	nuevo, err := g.Replace("5-tanda", noop)
	require.NoError(t, err)
	require.NotEqual(t, viejo, nuevo)

	g.UnsubscribeToken("5-tanda", viejo)
	assert.True(t, g.Bound("5-tanda"), "el token viejo no debe retirar el handler vigente")
	assert.True(t, ft.HasHandler("5-tanda"))

	g.UnsubscribeToken("5-tanda", nuevo)
	assert.False(t, g.Bound("5-tanda"))
	assert.False(t, ft.HasHandler("5-tanda"))
}
