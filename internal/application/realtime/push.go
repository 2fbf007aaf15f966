package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// PushRouter despacha los eventos no solicitados del servidor al store.
// Cada handler corre completo y sin suspenderse; todos son idempotentes ante repetición.
type PushRouter struct {
	guard *Guard
	store *Store
	log   *logger.Logger
}

// NewPushRouter construye el router.
func NewPushRouter(guard *Guard, store *Store, log *logger.Logger) *PushRouter {
	return &PushRouter{guard: guard, store: store, log: log}
}

func (r *PushRouter) routes() map[string]Handler {
	return map[string]Handler{
		EventStockProductoChange: r.HandleStockChange,
		EventNewTandaCreated:     r.HandleBatchCreated,
		EventNewTandaUpdate:      r.HandleBatchUpdated,
	}
}

// Register suscribe los canales push. Puede llamarse más de una vez.
func (r *PushRouter) Register() error {
	for event, h := range r.routes() {
		r.guard.Unsubscribe(event)
		if _, err := r.guard.Subscribe(event, h); err != nil && !errors.Is(err, domain.ErrHandlerBound) {
			return fmt.Errorf("suscribir %s: %w", event, err)
		}
	}
	return nil
}

// Unregister retira los canales push.
func (r *PushRouter) Unregister() {
	for event := range r.routes() {
		r.guard.Unsubscribe(event)
	}
}

// HandleStockChange aplica stockProductoChange {id, stock}: override directo de stock y cantidadTotal.
func (r *PushRouter) HandleStockChange(data json.RawMessage) {
	var ev dto.StockChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		r.log.Warn().Err(err).Str("event", EventStockProductoChange).Msg("payload inválido")
		return
	}
	if ev.ID == "" || ev.Stock == nil {
		r.log.Warn().Str("event", EventStockProductoChange).Str("producto_id", string(ev.ID)).
			Msg("evento sin id o sin stock, descartado")
		return
	}
	if !r.store.ApplyStock(string(ev.ID), *ev.Stock) {
		r.log.Debug().Str("producto_id", string(ev.ID)).Msg("stock de producto no cargado, descartado")
	}
}

// HandleBatchCreated aplica newTandaCreated: normaliza e inserta si el id no existe.
func (r *PushRouter) HandleBatchCreated(data json.RawMessage) {
	w, ok := r.decodeBatch(EventNewTandaCreated, data)
	if !ok {
		return
	}
	b := NormalizeBatch(w)
	if !r.store.InsertBatch(b) {
		r.log.Debug().Str("producto_id", b.ProductID).Str("tanda_id", b.ID).Msg("tanda de producto no cargado, descartada")
	}
}

// HandleBatchUpdated aplica newTandaUpdate: fusiona en el lote existente; si el producto
// o el lote no están cargados el evento se descarta (no se sintetizan entidades parciales).
func (r *PushRouter) HandleBatchUpdated(data json.RawMessage) {
	w, ok := r.decodeBatch(EventNewTandaUpdate, data)
	if !ok {
		return
	}
	applied := r.store.UpdateBatch(string(w.ProductoID), string(w.ID), func(b *entity.Batch) {
		MergeBatch(b, w)
	})
	if !applied {
		r.log.Debug().Str("producto_id", string(w.ProductoID)).Str("tanda_id", string(w.ID)).Msg("actualización de tanda no cargada, descartada")
	}
}

func (r *PushRouter) decodeBatch(event string, data json.RawMessage) (dto.TandaWire, bool) {
	var w dto.TandaWire
	if err := json.Unmarshal(data, &w); err != nil {
		r.log.Warn().Err(err).Str("event", event).Msg("payload inválido")
		return w, false
	}
	if w.ID == "" || w.ProductoID == "" {
		r.log.Warn().Str("event", event).Msg("tanda sin id o productoId")
		return w, false
	}
	return w, true
}
