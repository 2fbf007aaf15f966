package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fasthttp/websocket"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/application/realtime"
	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

var _ realtime.Transport = (*Transport)(nil)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Transport canal pub/sub sobre WebSocket. Cada mensaje es un frame JSON {"event","data"}.
// Los mensajes entrantes se entregan de a uno, en orden, desde una única goroutine de lectura;
// un handler no debe llamar a Disconnect.
type Transport struct {
	url    string
	dialer *websocket.Dialer
	log    *logger.Logger

	hmu      sync.RWMutex
	handlers map[string]realtime.Handler

	wmu       sync.Mutex // escrituras y ciclo de vida de conn
	conn      *websocket.Conn
	done      chan struct{}
	connected atomic.Bool
}

// NewTransport construye el transporte contra socketURL (p. ej. ws://host:3000/inventario).
func NewTransport(socketURL string, log *logger.Logger) *Transport {
	return &Transport{
		url:      socketURL,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:      log.Component("ws"),
		handlers: make(map[string]realtime.Handler),
	}
}

// Connect abre la conexión autenticada con token (query "token" y header Authorization).
// Si ya está conectado no hace nada.
func (t *Transport) Connect(ctx context.Context, token string) error {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	if t.connected.Load() {
		return nil
	}
	if t.conn != nil {
		// Conexión anterior cerrada por el servidor.
		_ = t.conn.Close()
		<-t.done
		t.conn = nil
	}

	u, err := url.Parse(t.url)
	if err != nil {
		return fmt.Errorf("url de socket inválida: %w", err)
	}
	header := http.Header{}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := t.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("%w: handshake %d", domain.ErrUnauthorized, resp.StatusCode)
		}
		return fmt.Errorf("%w: %v", domain.ErrTransportUnavailable, err)
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	t.conn = conn
	t.done = make(chan struct{})
	t.connected.Store(true)
	go t.readLoop(conn, t.done)
	go t.pingLoop(conn, t.done)
	t.log.Info().Str("url", t.url).Msg("socket conectado")
	return nil
}

// Disconnect cierra la conexión y espera a que termine la goroutine de lectura.
func (t *Transport) Disconnect() error {
	t.wmu.Lock()
	conn, done := t.conn, t.done
	t.conn = nil
	t.connected.Store(false)
	if conn != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
	t.wmu.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close()
	<-done
	t.log.Info().Msg("socket desconectado")
	return err
}

// Connected implementa realtime.Transport.
func (t *Transport) Connected() bool {
	return t.connected.Load()
}

// On implementa realtime.Transport.
func (t *Transport) On(event string, h realtime.Handler) {
	t.hmu.Lock()
	t.handlers[event] = h
	t.hmu.Unlock()
}

// Off implementa realtime.Transport.
func (t *Transport) Off(event string) {
	t.hmu.Lock()
	delete(t.handlers, event)
	t.hmu.Unlock()
}

// Emit implementa realtime.Transport.
func (t *Transport) Emit(event string, payload any) error {
	frame := dto.SocketFrame{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("serializar %s: %w", event, err)
		}
		frame.Data = data
	}
	raw, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("serializar frame %s: %w", event, err)
	}

	t.wmu.Lock()
	defer t.wmu.Unlock()
	if t.conn == nil {
		return domain.ErrTransportUnavailable
	}
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := t.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		return fmt.Errorf("%w: escribir %s: %v", domain.ErrTransportUnavailable, event, err)
	}
	return nil
}

func (t *Transport) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	defer t.connected.Store(false)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !errors.Is(err, net.ErrClosed) {
				t.log.Warn().Err(err).Msg("socket cerrado inesperadamente")
			}
			return
		}
		var frame dto.SocketFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			t.log.Warn().Err(err).Msg("frame inválido")
			continue
		}
		t.hmu.RLock()
		h := t.handlers[frame.Event]
		t.hmu.RUnlock()
		if h == nil {
			t.log.Trace().Str("event", frame.Event).Msg("evento sin handler")
			continue
		}
		data := frame.Data
		if len(data) == 0 {
			data = json.RawMessage("null")
		}
		h(data)
	}
}

func (t *Transport) pingLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			t.wmu.Lock()
			if t.conn != conn {
				t.wmu.Unlock()
				return
			}
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			t.wmu.Unlock()
			if err != nil {
				t.log.Debug().Err(err).Msg("ping fallido")
				return
			}
		}
	}
}
