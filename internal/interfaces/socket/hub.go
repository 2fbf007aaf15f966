package socket

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/pkg/jwt"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// Locals del handshake.
const (
	LocalUserID = "user_id"
	LocalRole   = "role"
)

type client struct {
	id   string
	conn *websocket.Conn
	wmu  sync.Mutex
}

func (c *client) send(raw []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, raw)
}

// Hub peer WebSocket: atiende las peticiones de cada cliente en su propia conexión y difunde
// los eventos push a todos los conectados.
type Hub struct {
	requests *Requests
	log      *logger.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub construye el hub.
func NewHub(requests *Requests, log *logger.Logger) *Hub {
	return &Hub{
		requests: requests,
		log:      log.Component("hub"),
		clients:  make(map[string]*client),
	}
}

// Mount registra el endpoint WebSocket en path. Con secret no vacío exige un JWT válido
// en la query "token" o en el header Authorization. Las peticiones que no son upgrade siguen
// de largo, así las rutas REST bajo el mismo prefijo no se ven afectadas.
func (h *Hub) Mount(r fiber.Router, path, secret string) {
	r.Use(path, func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) || secret == "" {
			return c.Next()
		}
		tok := c.Query("token")
		if tok == "" {
			tok = strings.TrimSpace(strings.TrimPrefix(c.Get("Authorization"), "Bearer "))
		}
		claims, err := jwt.Parse(secret, tok)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, claims.Subject)
		c.Locals(LocalRole, claims.Role)
		return c.Next()
	})
	r.Get(path, websocket.New(h.Handle))
}

// Handle ciclo de vida de una conexión: registro, lectura de frames y baja.
func (h *Hub) Handle(conn *websocket.Conn) {
	cl := &client{id: uuid.New().String(), conn: conn}
	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()

	user, _ := conn.Locals(LocalUserID).(string)
	h.log.Info().Str("client", cl.id).Str("user", user).Msg("cliente conectado")

	defer func() {
		h.mu.Lock()
		delete(h.clients, cl.id)
		h.mu.Unlock()
		_ = conn.Close()
		h.log.Info().Str("client", cl.id).Msg("cliente desconectado")
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.log.Warn().Err(err).Str("client", cl.id).Msg("error de lectura")
			}
			return
		}
		var frame dto.SocketFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			h.log.Warn().Err(err).Str("client", cl.id).Msg("frame inválido")
			continue
		}
		h.serve(cl, frame)
	}
}

func (h *Hub) serve(cl *client, frame dto.SocketFrame) {
	reply, payload, err := h.requests.Handle(frame.Event, frame.Data)
	if err != nil {
		if errors.Is(err, ErrUnknownEvent) {
			h.log.Debug().Str("event", frame.Event).Msg("evento ignorado")
		} else {
			h.log.Warn().Err(err).Str("event", frame.Event).Msg("petición inválida")
		}
		return
	}
	raw, err := encodeFrame(reply, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", reply).Msg("serializar respuesta")
		return
	}
	if err := cl.send(raw); err != nil {
		h.log.Warn().Err(err).Str("client", cl.id).Msg("enviar respuesta")
	}
}

// Broadcast difunde un evento push a todos los clientes conectados.
func (h *Hub) Broadcast(event string, data any) {
	raw, err := encodeFrame(event, data)
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("serializar broadcast")
		return
	}
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, cl := range h.clients {
		targets = append(targets, cl)
	}
	h.mu.RUnlock()
	for _, cl := range targets {
		if err := cl.send(raw); err != nil {
			h.log.Warn().Err(err).Str("client", cl.id).Msg("enviar broadcast")
		}
	}
}

// ClientCount número de clientes conectados.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll cierra todas las conexiones (apagado del peer).
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, cl := range h.clients {
		cl.wmu.Lock()
		_ = cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "apagando"))
		cl.wmu.Unlock()
		_ = cl.conn.Close()
	}
}

func encodeFrame(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(dto.SocketFrame{Event: event, Data: payload})
}
