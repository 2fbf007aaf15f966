package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jhoicas/Inventario-sync/internal/application/realtime"
	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

var _ realtime.Transport = (*Transport)(nil)

// Config conexión al bus NATS.
type Config struct {
	URL    string
	Prefix string // los eventos viajan en "<prefix>.<evento>"
	Token  string // credencial NATS opcional
	Name   string
}

// Subject devuelve el subject NATS de un evento.
func Subject(prefix, event string) string {
	return prefix + "." + event
}

// Transport canal pub/sub sobre NATS. Usa una única suscripción comodín "<prefix>.>", así los
// eventos llegan de a uno y en el orden del publicador, igual que por el socket.
type Transport struct {
	cfg Config
	log *logger.Logger

	hmu      sync.RWMutex
	handlers map[string]realtime.Handler

	mu  sync.Mutex
	nc  *nats.Conn
	sub *nats.Subscription
}

// NewTransport construye el transporte; Connect abre la conexión.
func NewTransport(cfg Config, log *logger.Logger) *Transport {
	if cfg.Prefix == "" {
		cfg.Prefix = "inventario"
	}
	if cfg.Name == "" {
		cfg.Name = "inventario-sync"
	}
	return &Transport{
		cfg:      cfg,
		log:      log.Component("nats"),
		handlers: make(map[string]realtime.Handler),
	}
}

// Connect abre la conexión NATS. El token de sesión no autentica contra NATS (ver Config.Token).
func (t *Transport) Connect(ctx context.Context, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.nc != nil && !t.nc.IsClosed() {
		return nil
	}

	opts := []nats.Option{
		nats.Name(t.cfg.Name),
		nats.NoEcho(),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				t.log.Warn().Err(err).Msg("nats desconectado")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			t.log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconectado")
		}),
	}
	if t.cfg.Token != "" {
		opts = append(opts, nats.Token(t.cfg.Token))
	}
	if dl, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Timeout(time.Until(dl)))
	}

	nc, err := nats.Connect(t.cfg.URL, opts...)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransportUnavailable, err)
	}
	sub, err := nc.Subscribe(t.cfg.Prefix+".>", t.dispatch)
	if err != nil {
		nc.Close()
		return fmt.Errorf("%w: suscribir: %v", domain.ErrTransportUnavailable, err)
	}
	if err := nc.Flush(); err != nil {
		nc.Close()
		return fmt.Errorf("%w: flush: %v", domain.ErrTransportUnavailable, err)
	}
	t.nc, t.sub = nc, sub
	t.log.Info().Str("url", nc.ConnectedUrl()).Str("prefix", t.cfg.Prefix).Msg("nats conectado")
	return nil
}

// Disconnect cierra la conexión.
func (t *Transport) Disconnect() error {
	t.mu.Lock()
	nc, sub := t.nc, t.sub
	t.nc, t.sub = nil, nil
	t.mu.Unlock()
	if nc == nil {
		return nil
	}
	if sub != nil {
		_ = sub.Unsubscribe()
	}
	nc.Close()
	t.log.Info().Msg("nats desconectado")
	return nil
}

// Connected implementa realtime.Transport.
func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nc != nil && t.nc.IsConnected()
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

// Emit implementa realtime.Transport. El cuerpo del mensaje es el payload JSON.
func (t *Transport) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("serializar %s: %w", event, err)
	}
	t.mu.Lock()
	nc := t.nc
	t.mu.Unlock()
	if nc == nil || !nc.IsConnected() {
		return domain.ErrTransportUnavailable
	}
	if err := nc.Publish(Subject(t.cfg.Prefix, event), data); err != nil {
		return fmt.Errorf("%w: publicar %s: %v", domain.ErrTransportUnavailable, event, err)
	}
	return nil
}

func (t *Transport) dispatch(msg *nats.Msg) {
	event := strings.TrimPrefix(msg.Subject, t.cfg.Prefix+".")
	t.hmu.RLock()
	h := t.handlers[event]
	t.hmu.RUnlock()
	if h == nil {
		t.log.Trace().Str("event", event).Msg("evento sin handler")
		return
	}
	data := json.RawMessage(msg.Data)
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	h(data)
}
