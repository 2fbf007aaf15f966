package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/Inventario-sync/internal/interfaces/http"
)

const swaggerFile = "../../../docs/swagger.json"

var fiberParam = regexp.MustCompile(`:([A-Za-z0-9_]+)`)

func TestDocs_CadaRutaServidaEstaDocumentada(t *testing.T) {
	raw, err := os.ReadFile(swaggerFile)
	require.NoError(t, err)
	var spec struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(raw, &spec))

	var documented []string
	for p, ops := range spec.Paths {
		for method := range ops {
			documented = append(documented, strings.ToUpper(method)+" "+p)
		}
	}

	app, _ := newPeerApp(t, testJWTSecret)
	var served []string
	for _, r := range app.GetRoutes(true) {
		if r.Method == fiber.MethodHead {
			continue
		}
		served = append(served, r.Method+" "+fiberParam.ReplaceAllString(r.Path, "{$1}"))
	}

	sort.Strings(documented)
	sort.Strings(served)
	assert.Equal(t, served, documented, "docs/swagger.json desactualizado: regenerar con go generate ./cmd/peer")
}

func TestDocs_SirveSwaggerUI(t *testing.T) {
	app, _ := newPeerApp(t, testJWTSecret)
	require.True(t, apphttp.MountDocs(app, swaggerFile, "Inventario peer API"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+apphttp.DocsPath, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "swagger-ui")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "el resto de rutas sigue respondiendo")
}

func TestDocs_SinArchivoNoMonta(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	missing := filepath.Join(t.TempDir(), "swagger.json")

	assert.NotPanics(t, func() {
		assert.False(t, apphttp.MountDocs(app, missing, "x"))
		assert.False(t, apphttp.MountDocs(app, "", "x"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+apphttp.DocsPath, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
