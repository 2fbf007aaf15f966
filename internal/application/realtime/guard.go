package realtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// Guard envuelve un Transport posiblemente ausente o desconectado.
// Subscribe/Unsubscribe son no-op y Publish se omite sin error cuando no hay conexión viva,
// así ningún llamador tiene que ramificar según el estado de la conexión.
// Un canal admite un único handler a la vez.
type Guard struct {
	transport Transport
	log       *logger.Logger

	mu    sync.Mutex
	bound map[string]string // canal -> token del handler vigente
}

// NewGuard construye el guard. transport puede ser nil.
func NewGuard(transport Transport, log *logger.Logger) *Guard {
	return &Guard{
		transport: transport,
		log:       log,
		bound:     make(map[string]string),
	}
}

// Connected indica si hay transporte y está conectado.
func (g *Guard) Connected() bool {
	return g.transport != nil && g.transport.Connected()
}

// Subscribe registra h en channel y devuelve un token para retirarlo luego con UnsubscribeToken.
// Sin conexión devuelve token vacío y no hace nada. Si el canal ya tiene handler: ErrHandlerBound.
func (g *Guard) Subscribe(channel string, h Handler) (string, error) {
	if !g.Connected() {
		return "", nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.bound[channel]; ok {
		return "", domain.ErrHandlerBound
	}
	token := uuid.NewString()
	g.bound[channel] = token
	g.transport.On(channel, h)
	return token, nil
}

// Replace retira el handler vigente del canal (si hay) e instala h en una sola operación.
func (g *Guard) Replace(channel string, h Handler) (string, error) {
	if !g.Connected() {
		return "", nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.bound[channel]; ok {
		g.transport.Off(channel)
	}
	token := uuid.NewString()
	g.bound[channel] = token
	g.transport.On(channel, h)
	return token, nil
}

// Unsubscribe retira cualquier handler del canal.
func (g *Guard) Unsubscribe(channel string) {
	if g.transport == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.bound, channel)
	g.transport.Off(channel)
}

// UnsubscribeToken retira el handler solo si sigue siendo el registrado con token.
// Evita que la limpieza tardía de una llamada vencida borre el handler de otra más nueva.
func (g *Guard) UnsubscribeToken(channel, token string) {
	if g.transport == nil || token == "" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.bound[channel] != token {
		return
	}
	delete(g.bound, channel)
	g.transport.Off(channel)
}

// Bound indica si el canal tiene un handler registrado.
func (g *Guard) Bound(channel string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.bound[channel]
	return ok
}

// Publish emite el evento. Sin conexión se omite y devuelve nil.
func (g *Guard) Publish(event string, payload any) error {
	if !g.Connected() {
		g.log.Debug().Str("event", event).Msg("publish omitido: transporte no disponible")
		return nil
	}
	return g.transport.Emit(event, payload)
}
