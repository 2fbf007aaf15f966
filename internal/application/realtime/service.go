package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// Config parámetros del servicio de sincronización.
type Config struct {
	RequestTimeout    time.Duration
	Policy            Policy
	RecentConcurrency int // 1 = peticiones por producto estrictamente secuenciales
}

// SyncService reúne guard, correlador, store y router push. Se construye una vez por proceso
// y se inyecta donde haga falta; Stop lo desmonta al cerrar sesión.
type SyncService struct {
	guard      *Guard
	correlator *Correlator
	store      *Store
	push       *PushRouter
	log        *logger.Logger

	recentConcurrency int
}

// NewSyncService construye el servicio sobre transport (puede ser nil) y store.
func NewSyncService(transport Transport, store *Store, cfg Config, log *logger.Logger) *SyncService {
	log = log.Component("sync")
	guard := NewGuard(transport, log)
	if cfg.RecentConcurrency < 1 {
		cfg.RecentConcurrency = 1
	}
	return &SyncService{
		guard:             guard,
		correlator:        NewCorrelator(guard, cfg.RequestTimeout, cfg.Policy, log),
		store:             store,
		push:              NewPushRouter(guard, store, log),
		log:               log,
		recentConcurrency: cfg.RecentConcurrency,
	}
}

// Store devuelve el store observado por la UI.
func (s *SyncService) Store() *Store { return s.store }

// Start registra los handlers push. Se llama después de conectar el transporte.
func (s *SyncService) Start() error {
	return s.push.Register()
}

// Stop retira los handlers push y rechaza las peticiones pendientes.
func (s *SyncService) Stop() {
	s.push.Unregister()
	s.correlator.CancelAll(domain.ErrTransportUnavailable)
}

// FetchProducts pide getAllProductos y reemplaza los productos del store.
func (s *SyncService) FetchProducts(ctx context.Context) ([]entity.Product, error) {
	wire, err := Fetch[[]dto.ProductoWire](ctx, s.correlator, Call{
		Event:    EventGetAllProductos,
		Response: EventLoadAllProductos,
	})
	if err != nil {
		return degradeResult(s, err, EventGetAllProductos, []entity.Product{})
	}
	list := make([]entity.Product, 0, len(wire))
	for _, w := range wire {
		list = append(list, NormalizeProduct(w))
	}
	s.store.ReplaceProducts(list)
	return s.store.Products(), nil
}

// FetchWarehouses pide getAllBodegas.
func (s *SyncService) FetchWarehouses(ctx context.Context) ([]entity.Warehouse, error) {
	wire, err := Fetch[[]dto.BodegaWire](ctx, s.correlator, Call{
		Event:    EventGetAllBodegas,
		Response: EventLoadAllBodegas,
	})
	if err != nil {
		return degradeResult(s, err, EventGetAllBodegas, []entity.Warehouse{})
	}
	list := make([]entity.Warehouse, 0, len(wire))
	for _, w := range wire {
		list = append(list, NormalizeWarehouse(w))
	}
	s.store.ReplaceWarehouses(list)
	return list, nil
}

// FetchLocations pide las ubicaciones de una bodega por su canal propio.
func (s *SyncService) FetchLocations(ctx context.Context, warehouseID string) ([]entity.Location, error) {
	wire, err := Fetch[[]dto.UbicacionWire](ctx, s.correlator, Call{
		Event:    EventGetUbicacionesByBodega,
		Payload:  dto.UbicacionesRequest{IDBodega: dto.FlexID(warehouseID)},
		Response: UbicacionesChannel(warehouseID),
	})
	if err != nil {
		return degradeResult(s, err, EventGetUbicacionesByBodega, []entity.Location{})
	}
	list := make([]entity.Location, 0, len(wire))
	for _, w := range wire {
		list = append(list, NormalizeLocation(w, warehouseID))
	}
	s.store.ReplaceLocations(warehouseID, list)
	return list, nil
}

// FetchBatches pide las tandas de un producto por su canal propio, las normaliza y las
// fusiona en el store (reemplazo completo de lotes + recálculo).
func (s *SyncService) FetchBatches(ctx context.Context, productID string) ([]entity.Batch, error) {
	wire, err := Fetch[[]dto.TandaWire](ctx, s.correlator, Call{
		Event:    EventGetTandasByIDProducto,
		Payload:  dto.TandasRequest{IDProducto: dto.FlexID(productID)},
		Response: TandaChannel(productID),
	})
	if err != nil {
		return degradeResult(s, err, EventGetTandasByIDProducto, []entity.Batch{})
	}
	list := make([]entity.Batch, 0, len(wire))
	for _, w := range wire {
		b := NormalizeBatch(w)
		if b.ProductID == "" {
			b.ProductID = productID
		}
		list = append(list, b)
	}
	s.store.ReplaceBatches(productID, list)
	list, _ = s.store.Batches(productID)
	return list, nil
}

// degradeResult convierte ErrTransportUnavailable en resultado vacío; el resto se propaga.
func degradeResult[T any](s *SyncService, err error, event string, empty T) (T, error) {
	if errors.Is(err, domain.ErrTransportUnavailable) {
		s.log.Debug().Str("event", event).Msg("sin transporte: resultado vacío")
		return empty, nil
	}
	var zero T
	s.log.Error().Err(err).Str("event", event).Msg("petición fallida")
	return zero, err
}
