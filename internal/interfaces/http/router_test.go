package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-sync/internal/infrastructure/restapi"
	apphttp "github.com/jhoicas/Inventario-sync/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Inventario-sync/pkg/jwt"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

func newPeerApp(t *testing.T, secret string) (*fiber.App, *memory.Catalog) {
	t.Helper()
	catalog, err := memory.LoadCatalog("")
	require.NoError(t, err)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	apphttp.Router(app, apphttp.RouterDeps{
		Catalog:   catalog,
		Users:     catalog,
		JWTSecret: secret,
		Issuer:    testIssuer,
		TokenTTL:  testExpMin,
	})
	return app, catalog
}

// listen expone la app en un puerto libre para el cliente REST.
func listen(t *testing.T, app *fiber.App) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.ShutdownWithTimeout(2 * time.Second) })
	return "http://" + ln.Addr().String()
}

func TestRouter_Health(t *testing.T) {
	app, _ := newPeerApp(t, testJWTSecret)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_LoginEmiteJWT(t *testing.T) {
	app, _ := newPeerApp(t, testJWTSecret)
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"admin@inventario.local","password":"admin123"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "admin", out.Rol)
	assert.Equal(t, "Administrador", out.Nombre)

	claims, err := pkgjwt.Parse(testJWTSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin@inventario.local", claims.Email)
	assert.Equal(t, "admin", claims.Role)
}

func TestRouter_LoginCredencialesInvalidas(t *testing.T) {
	app, _ := newPeerApp(t, testJWTSecret)
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"admin@inventario.local","password":"otra"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_SinTokenRetorna401(t *testing.T) {
	app, _ := newPeerApp(t, testJWTSecret)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/inventario/productos", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_SinSecretNoExigeToken(t *testing.T) {
	app, _ := newPeerApp(t, "")
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/inventario/bodegas/1/ubicaciones", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ubicaciones []dto.UbicacionWire
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ubicaciones))
	assert.Len(t, ubicaciones, 2)
}

func TestRouter_CuerpoInvalidoRetorna400(t *testing.T) {
	app, _ := newPeerApp(t, "")
	req := httptest.NewRequest(http.MethodPost, "/inventario/productos", strings.NewReader(`{"nombre":`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_InfoChartsParametroInvalido(t *testing.T) {
	app, _ := newPeerApp(t, "")
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/inventario/infoCharts?dias=abc", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// El cliente REST del motor contra el router del peer: mismas rutas y formas de cable.
func TestRouter_ClienteRESTFlujoCompleto(t *testing.T) {
	app, catalog := newPeerApp(t, testJWTSecret)
	client := restapi.NewClient(listen(t, app), 5*time.Second, logger.Nop())
	ctx := context.Background()

	auth, err := client.Login(ctx, dto.LoginRequest{Email: "admin@inventario.local", Password: "admin123"})
	require.NoError(t, err)
	client.SetToken(auth.Token)

	prod, err := client.CreateProducto(ctx, dto.CreateProductoRequest{Nombre: "Azúcar 500g"})
	require.NoError(t, err)
	require.NotEmpty(t, prod.ID)

	nombre := "Azúcar morena 500g"
	prod, err = client.UpdateProducto(ctx, string(prod.ID), dto.UpdateProductoRequest{Nombre: &nombre})
	require.NoError(t, err)
	assert.Equal(t, nombre, prod.Nombre)

	tanda, err := client.CreateTanda(ctx, dto.CreateTandaRequest{
		ProductoID: prod.ID, UbicacionID: "1", Cantidad: decimal.NewFromInt(30), FechaVencimiento: "2025-08-01",
	})
	require.NoError(t, err)
	assert.Equal(t, prod.ID, tanda.ProductoID)

	merma, err := client.RegistrarMerma(ctx, dto.MermaRequest{ProductoID: prod.ID, Cantidad: decimal.NewFromInt(10), Motivo: "vencido"})
	require.NoError(t, err)
	assert.Contains(t, string(merma), `"motivo":"vencido"`)

	tandas := catalog.TandasByProducto(string(prod.ID))
	require.Len(t, tandas, 1)
	assert.True(t, tandas[0].Cantidad.Equal(decimal.NewFromInt(20)))

	_, err = client.RegistrarMerma(ctx, dto.MermaRequest{ProductoID: prod.ID, Cantidad: decimal.NewFromInt(100)})
	var se *restapi.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusConflict, se.Status)
	assert.ErrorIs(t, err, domain.ErrRemoteRequestFailed)

	require.NoError(t, client.DeleteProducto(ctx, string(prod.ID)))
	err = client.DeleteProducto(ctx, string(prod.ID))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRouter_BodegueroNoBorraBodegas(t *testing.T) {
	app, _ := newPeerApp(t, testJWTSecret)
	client := restapi.NewClient(listen(t, app), 5*time.Second, logger.Nop())
	ctx := context.Background()

	auth, err := client.Login(ctx, dto.LoginRequest{Email: "bodega@inventario.local", Password: "bodega123"})
	require.NoError(t, err)
	client.SetToken(auth.Token)

	err = client.DeleteBodega(ctx, "2")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = client.CreateUbicacion(ctx, dto.CreateUbicacionRequest{BodegaID: "2", Nombre: "Estante 2"})
	assert.NoError(t, err)
}
