package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/Inventario-sync/internal/application/auth"
	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/application/usecase"
	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// Verificar en tiempo de compilación que Client implementa los puertos.
var (
	_ usecase.CatalogAPI    = (*Client)(nil)
	_ usecase.MovimientoAPI = (*Client)(nil)
	_ auth.AuthAPI          = (*Client)(nil)
)

const maxBodyBytes = 1 << 20

// Client adaptador del API REST del servidor de inventario.
// Agrega "Authorization: Bearer <token>" cuando hay token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger

	mu    sync.RWMutex
	token string
}

// NewClient construye el adaptador. timeout <= 0 usa 15 s.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Component("restapi"),
	}
}

// SetToken fija (o limpia con "") el token de las llamadas siguientes.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// ── Auth ──────────────────────────────────────────────────────────────────────

// Login POST /auth/login. Acepta la respuesta plana o envuelta en "auth".
func (c *Client) Login(ctx context.Context, in dto.LoginRequest) (dto.LoginResponse, error) {
	var out dto.LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, in, &out)
	return out, err
}

// ── Productos ─────────────────────────────────────────────────────────────────

func (c *Client) CreateProducto(ctx context.Context, in dto.CreateProductoRequest) (dto.ProductoWire, error) {
	var out dto.ProductoWire
	err := c.do(ctx, http.MethodPost, "/inventario/productos", nil, in, &out)
	return out, err
}

func (c *Client) UpdateProducto(ctx context.Context, id string, in dto.UpdateProductoRequest) (dto.ProductoWire, error) {
	var out dto.ProductoWire
	err := c.do(ctx, http.MethodPatch, "/inventario/productos/"+url.PathEscape(id)+"/update", nil, in, &out)
	return out, err
}

func (c *Client) DeleteProducto(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/inventario/productos/"+url.PathEscape(id)+"/delete", nil, nil, nil)
}

// ── Bodegas ───────────────────────────────────────────────────────────────────

func (c *Client) CreateBodega(ctx context.Context, in dto.CreateBodegaRequest) (dto.BodegaWire, error) {
	var out dto.BodegaWire
	err := c.do(ctx, http.MethodPost, "/inventario/bodegas", nil, in, &out)
	return out, err
}

func (c *Client) UpdateBodega(ctx context.Context, id string, in dto.UpdateBodegaRequest) (dto.BodegaWire, error) {
	var out dto.BodegaWire
	err := c.do(ctx, http.MethodPatch, "/inventario/bodegas/"+url.PathEscape(id)+"/update", nil, in, &out)
	return out, err
}

func (c *Client) DeleteBodega(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/inventario/bodegas/"+url.PathEscape(id)+"/delete", nil, nil, nil)
}

// ── Ubicaciones ───────────────────────────────────────────────────────────────

func (c *Client) CreateUbicacion(ctx context.Context, in dto.CreateUbicacionRequest) (dto.UbicacionWire, error) {
	var out dto.UbicacionWire
	err := c.do(ctx, http.MethodPost, "/inventario/ubicaciones", nil, in, &out)
	return out, err
}

func (c *Client) UpdateUbicacion(ctx context.Context, id string, in dto.UpdateUbicacionRequest) (dto.UbicacionWire, error) {
	var out dto.UbicacionWire
	err := c.do(ctx, http.MethodPatch, "/inventario/ubicaciones/"+url.PathEscape(id)+"/update", nil, in, &out)
	return out, err
}

func (c *Client) DeleteUbicacion(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/inventario/ubicaciones/"+url.PathEscape(id)+"/delete", nil, nil, nil)
}

// ── Tandas ────────────────────────────────────────────────────────────────────

func (c *Client) CreateTanda(ctx context.Context, in dto.CreateTandaRequest) (dto.TandaWire, error) {
	var out dto.TandaWire
	err := c.do(ctx, http.MethodPost, "/inventario/tandas", nil, in, &out)
	return out, err
}

func (c *Client) UpdateTanda(ctx context.Context, id string, in dto.UpdateTandaRequest) (dto.TandaWire, error) {
	var out dto.TandaWire
	err := c.do(ctx, http.MethodPatch, "/inventario/tandas/"+url.PathEscape(id)+"/update", nil, in, &out)
	return out, err
}

// ── Movimientos y reportes ────────────────────────────────────────────────────

// RegistrarMerma POST /movimientos/merma.
func (c *Client) RegistrarMerma(ctx context.Context, in dto.MermaRequest) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, http.MethodPost, "/movimientos/merma", nil, in, &out)
	return out, err
}

// InfoCharts GET /inventario/infoCharts con params como query string.
func (c *Client) InfoCharts(ctx context.Context, params map[string]string) (json.RawMessage, error) {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	var out json.RawMessage
	err := c.do(ctx, http.MethodGet, "/inventario/infoCharts", q, nil, &out)
	return out, err
}

// ── Transporte HTTP ───────────────────────────────────────────────────────────

// do ejecuta la petición. Cualquier fallo de red o estado no 2xx se devuelve envuelto en
// domain.ErrRemoteRequestFailed; out == nil descarta el cuerpo.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("serializar %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("crear request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.bearer(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s %s: %v", domain.ErrRemoteRequestFailed, method, path, ctx.Err())
		}
		return fmt.Errorf("%w: %s %s: %v", domain.ErrRemoteRequestFailed, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: leer respuesta %s %s: %v", domain.ErrRemoteRequestFailed, method, path, err)
	}
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("rest")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: respuesta inválida %s %s: %v", domain.ErrRemoteRequestFailed, method, path, err)
	}
	return nil
}

// StatusError respuesta no 2xx. Es un ErrRemoteRequestFailed; 401/403 además son ErrUnauthorized.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// Is permite errors.Is contra los errores de dominio.
func (e *StatusError) Is(target error) bool {
	switch target {
	case domain.ErrRemoteRequestFailed:
		return true
	case domain.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case domain.ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// errorMessage extrae "message" o "error" del cuerpo; si no es JSON devuelve el texto recortado.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		return body.Error
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
