package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// Policy define qué pasa cuando dos peticiones apuntan al mismo canal de respuesta.
type Policy string

const (
	// PolicyQueue encola las peticiones del mismo canal y las atiende en orden estricto (FIFO).
	PolicyQueue Policy = "queue"
	// PolicySupersede rechaza la petición en vuelo con ErrSuperseded cuando llega una nueva.
	PolicySupersede Policy = "supersede"
)

// DefaultRequestTimeout ventana por defecto para recibir la respuesta.
const DefaultRequestTimeout = 10 * time.Second

// Call describe una petición correlacionada: se publica Event con Payload y se espera
// exactamente un mensaje en Response.
type Call struct {
	Event    string
	Payload  any
	Response string
}

type pendingCall struct {
	abort chan error // buffer 1
}

func (p *pendingCall) reject(err error) {
	select {
	case p.abort <- err:
	default:
	}
}

type lane struct {
	busy    bool
	waiters []chan struct{}
	current *pendingCall
}

// Correlator emula petición/respuesta sobre canales con nombre.
type Correlator struct {
	guard   *Guard
	timeout time.Duration
	policy  Policy
	log     *logger.Logger

	mu      sync.Mutex
	lanes   map[string]*lane
	pending map[*pendingCall]struct{}
}

// NewCorrelator construye el correlador. timeout <= 0 usa DefaultRequestTimeout.
func NewCorrelator(guard *Guard, timeout time.Duration, policy Policy, log *logger.Logger) *Correlator {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if policy != PolicySupersede {
		policy = PolicyQueue
	}
	return &Correlator{
		guard:   guard,
		timeout: timeout,
		policy:  policy,
		log:     log,
		lanes:   make(map[string]*lane),
		pending: make(map[*pendingCall]struct{}),
	}
}

// Request publica la petición y espera el primer mensaje del canal de respuesta.
// Errores: ErrTransportUnavailable sin conexión, ErrResponseTimeout al vencer la ventana,
// ErrSuperseded si otra petición del mismo canal la reemplazó, o ctx.Err().
// Al resolver o vencer, el handler del canal queda retirado.
func (c *Correlator) Request(ctx context.Context, call Call) (json.RawMessage, error) {
	if !c.guard.Connected() {
		return nil, domain.ErrTransportUnavailable
	}

	pc := &pendingCall{abort: make(chan error, 1)}
	resp := make(chan json.RawMessage, 1)
	handler := func(data json.RawMessage) {
		select {
		case resp <- data:
		default:
		}
	}
	token, err := c.acquire(ctx, call.Response, pc, handler)
	if err != nil {
		return nil, err
	}
	defer c.release(call.Response, pc)
	defer c.guard.UnsubscribeToken(call.Response, token)

	if err := c.guard.Publish(call.Event, call.Payload); err != nil {
		return nil, fmt.Errorf("publicar %s: %w", call.Event, err)
	}
	c.log.Debug().Str("event", call.Event).Str("response", call.Response).Msg("petición enviada")

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case data := <-resp:
		return data, nil
	case <-timer.C:
		c.log.Warn().Str("response", call.Response).Dur("timeout", c.timeout).Msg("petición sin respuesta")
		return nil, fmt.Errorf("%s: %w", call.Response, domain.ErrResponseTimeout)
	case err := <-pc.abort:
		return nil, fmt.Errorf("%s: %w", call.Response, err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Fetch ejecuta Request y decodifica la respuesta en T.
func Fetch[T any](ctx context.Context, c *Correlator, call Call) (T, error) {
	var out T
	data, err := c.Request(ctx, call)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decodificar %s: %w", call.Response, err)
	}
	return out, nil
}

// CancelAll rechaza todas las peticiones pendientes con err (cierre de sesión).
func (c *Correlator) CancelAll(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for pc := range c.pending {
		pc.reject(err)
	}
}

// Pending devuelve cuántas peticiones esperan respuesta o turno.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// acquire obtiene el canal según la política e instala el handler de esta llamada.
// El handler se instala antes de publicar: un transporte en proceso puede responder
// de forma síncrona dentro de Emit.
func (c *Correlator) acquire(ctx context.Context, channel string, pc *pendingCall, h Handler) (string, error) {
	c.mu.Lock()
	c.pending[pc] = struct{}{}
	l, ok := c.lanes[channel]
	if !ok {
		l = &lane{}
		c.lanes[channel] = l
	}

	if c.policy == PolicySupersede {
		defer c.mu.Unlock()
		if l.current != nil {
			l.current.reject(domain.ErrSuperseded)
		}
		l.current = pc
		l.busy = true
		return c.install(channel, pc, h)
	}

	if !l.busy {
		l.busy = true
		c.mu.Unlock()
		return c.installLocked(channel, pc, h)
	}
	turn := make(chan struct{})
	l.waiters = append(l.waiters, turn)
	c.mu.Unlock()

	select {
	case <-turn:
		return c.installLocked(channel, pc, h)
	case err := <-pc.abort:
		return "", c.abandon(channel, l, turn, pc, err)
	case <-ctx.Done():
		return "", c.abandon(channel, l, turn, pc, ctx.Err())
	}
}

func (c *Correlator) installLocked(channel string, pc *pendingCall, h Handler) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.install(channel, pc, h)
}

// install requiere c.mu tomado. Si falla, libera el canal.
func (c *Correlator) install(channel string, pc *pendingCall, h Handler) (string, error) {
	token, err := c.guard.Replace(channel, h)
	if err == nil && token == "" {
		err = domain.ErrTransportUnavailable
	}
	if err != nil {
		c.releaseLocked(channel, pc)
		return "", err
	}
	return token, nil
}

// abandon retira a un llamador que esperaba turno. Si el turno ya le había sido
// entregado, lo pasa al siguiente.
func (c *Correlator) abandon(channel string, l *lane, turn chan struct{}, pc *pendingCall, err error) error {
	c.mu.Lock()
	for i, w := range l.waiters {
		if w == turn {
			l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
			delete(c.pending, pc)
			c.mu.Unlock()
			return err
		}
	}
	c.mu.Unlock()
	c.release(channel, pc)
	return err
}

func (c *Correlator) release(channel string, pc *pendingCall) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked(channel, pc)
}

func (c *Correlator) releaseLocked(channel string, pc *pendingCall) {
	delete(c.pending, pc)
	l, ok := c.lanes[channel]
	if !ok {
		return
	}
	if c.policy == PolicySupersede {
		if l.current == pc {
			delete(c.lanes, channel)
		}
		return
	}
	if len(l.waiters) > 0 {
		next := l.waiters[0]
		l.waiters = l.waiters[1:]
		l.current = nil
		close(next)
		return
	}
	delete(c.lanes, channel)
}
