package natsbridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/jhoicas/Inventario-sync/internal/infrastructure/natsbus"
	"github.com/jhoicas/Inventario-sync/internal/interfaces/socket"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// Bridge atiende los canales de petición sobre NATS con el mismo despachador que el hub
// WebSocket y publica los eventos push del catálogo.
type Bridge struct {
	nc       *nats.Conn
	prefix   string
	requests *socket.Requests
	log      *logger.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
}

// New construye el puente sobre una conexión ya abierta.
func New(nc *nats.Conn, prefix string, requests *socket.Requests, log *logger.Logger) *Bridge {
	return &Bridge{nc: nc, prefix: prefix, requests: requests, log: log.Component("nats-bridge")}
}

// Start suscribe un subject por evento de petición.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, event := range b.requests.Events() {
		sub, err := b.nc.Subscribe(natsbus.Subject(b.prefix, event), b.serve(event))
		if err != nil {
			b.closeLocked()
			return fmt.Errorf("suscribir %s: %w", event, err)
		}
		b.subs = append(b.subs, sub)
	}
	return b.nc.Flush()
}

func (b *Bridge) serve(event string) nats.MsgHandler {
	return func(msg *nats.Msg) {
		reply, payload, err := b.requests.Handle(event, msg.Data)
		if err != nil {
			if errors.Is(err, socket.ErrUnknownEvent) {
				b.log.Debug().Str("event", event).Msg("evento ignorado")
			} else {
				b.log.Warn().Err(err).Str("event", event).Msg("petición inválida")
			}
			return
		}
		b.Broadcast(reply, payload)
	}
}

// Broadcast publica un evento en "<prefix>.<evento>".
func (b *Bridge) Broadcast(event string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		b.log.Error().Err(err).Str("event", event).Msg("serializar evento")
		return
	}
	if err := b.nc.Publish(natsbus.Subject(b.prefix, event), raw); err != nil {
		b.log.Warn().Err(err).Str("event", event).Msg("publicar evento")
	}
}

// Close cancela las suscripciones; la conexión la cierra quien la abrió.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeLocked()
}

func (b *Bridge) closeLocked() {
	for _, s := range b.subs {
		_ = s.Unsubscribe()
	}
	b.subs = nil
}
