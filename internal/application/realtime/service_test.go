package realtime_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/application/realtime"
	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// servidor simula las respuestas del servidor de inventario sobre el fakeTransport.
type servidor struct {
	productos   []map[string]any
	bodegas     []map[string]any
	ubicaciones map[string][]map[string]any
	tandas      map[string][]map[string]any
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
}

func (sv *servidor) responder(f *fakeTransport, event string, payload any) {
	switch event {
	case realtime.EventGetAllProductos:
		f.Deliver(realtime.EventLoadAllProductos, sv.productos)
	case realtime.EventGetAllBodegas:
		f.Deliver(realtime.EventLoadAllBodegas, sv.bodegas)
	case realtime.EventGetUbicacionesByBodega:
		id := string(payload.(dto.UbicacionesRequest).IDBodega)
		f.Deliver(realtime.UbicacionesChannel(id), sv.ubicaciones[id])
	case realtime.EventGetTandasByIDProducto:
		id := string(payload.(dto.TandasRequest).IDProducto)
		n := sv.inFlight.Add(1)
		for {
			max := sv.maxInFlight.Load()
			if n <= max || sv.maxInFlight.CompareAndSwap(max, n) {
				break
			}
		}
		if sv.delay > 0 {
			time.Sleep(sv.delay)
		}
		sv.inFlight.Add(-1)
		f.Deliver(realtime.TandaChannel(id), sv.tandas[id])
	}
}

func newService(t *testing.T, sv *servidor, concurrency int) (*realtime.SyncService, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	ft.responder = sv.responder
	svc := realtime.NewSyncService(ft, realtime.NewStore(), realtime.Config{
		RequestTimeout:    time.Second,
		Policy:            realtime.PolicyQueue,
		RecentConcurrency: concurrency,
	}, logger.Nop())
	require.NoError(t, svc.Start())
	return svc, ft
}

func tresProductos() *servidor {
	return &servidor{
		productos: []map[string]any{
			{"id": 1, "nombre": "Arroz", "stock": 10},
			{"id": 2, "nombre": "Jabón", "stock": 5},
			{"id": 3, "nombre": "Aceite", "stock": 0},
		},
		tandas: map[string][]map[string]any{
			"1": {
				{"id": 11, "productoId": 1, "cantidad": 4, "fechaIngreso": "2024-01-01"},
				{"id": 12, "productoId": 1, "cantidad": 6, "fechaIngreso": "2024-03-01"},
			},
			"2": {
				{"id": 21, "productoId": 2, "cantidadActual": 2, "fechaIngreso": "2024-02-01"},
				{"id": 22, "productoId": 2, "cantidadActual": 3, "createdAt": "2024-05-01T10:00:00Z"},
			},
			"3": {
				{"id": 31, "productoId": 3, "cantidad": 1, "fechaIngreso": "2024-04-01"},
				{"id": 32, "productoId": 3, "cantidad": 1},
			},
		},
	}
}

func TestSyncService_FetchProducts(t *testing.T) {
	svc, ft := newService(t, tresProductos(), 1)

	list, err := svc.FetchProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Jabón", list[1].Name)
	assert.True(t, list[0].TotalQuantity.Equal(decimal.NewFromInt(10)), "sin lotes cargados refleja el stock")
	assert.Nil(t, list[0].Batches)
	assert.False(t, ft.HasHandler(realtime.EventLoadAllProductos), "el canal de respuesta queda libre")
}

func TestSyncService_FetchBatchesFusionaEnProducto(t *testing.T) {
	svc, _ := newService(t, tresProductos(), 1)
	ctx := context.Background()
	_, err := svc.FetchProducts(ctx)
	require.NoError(t, err)

	batches, err := svc.FetchBatches(ctx, "2")
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.True(t, batches[0].Quantity.Equal(decimal.NewFromInt(2)), "cantidadActual como respaldo")

	p, ok := svc.Store().Product("2")
	require.True(t, ok)
	assert.True(t, p.TotalQuantity.Equal(decimal.NewFromInt(5)))
	assert.Len(t, p.Batches, 2)
}

func TestSyncService_FetchLocationsYBodegas(t *testing.T) {
	sv := &servidor{
		bodegas: []map[string]any{{"id": 7, "nombre": "Central"}},
		ubicaciones: map[string][]map[string]any{
			"7": {{"id": 1, "nombre": "Pasillo A"}},
		},
	}
	svc, ft := newService(t, sv, 1)
	ctx := context.Background()

	bodegas, err := svc.FetchWarehouses(ctx)
	require.NoError(t, err)
	require.Len(t, bodegas, 1)
	assert.Equal(t, "7", bodegas[0].ID)

	ubic, err := svc.FetchLocations(ctx, "7")
	require.NoError(t, err)
	require.Len(t, ubic, 1)
	assert.Equal(t, "7", ubic[0].WarehouseID)

	var payloadOK bool
	for _, e := range ft.Emitted() {
		if e.Event == realtime.EventGetUbicacionesByBodega {
			payloadOK = e.Payload == dto.UbicacionesRequest{IDBodega: "7"}
		}
	}
	assert.True(t, payloadOK)

	_, fetched := svc.Store().Locations("8")
	assert.False(t, fetched)
}

func TestSyncService_SinConexionDevuelveVacio(t *testing.T) {
	svc, ft := newService(t, tresProductos(), 1)
	ft.SetConnected(false)
	ctx := context.Background()

	products, err := svc.FetchProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	batches, err := svc.FetchBatches(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, batches)
	assert.Empty(t, ft.Emitted())
}

func TestSyncService_TimeoutSePropaga(t *testing.T) {
	ft := newFakeTransport()
	svc := realtime.NewSyncService(ft, realtime.NewStore(), realtime.Config{
		RequestTimeout: 20 * time.Millisecond,
	}, logger.Nop())

	_, err := svc.FetchWarehouses(context.Background())
	assert.ErrorIs(t, err, domain.ErrResponseTimeout)
}

func TestFetchRecent_OrdenaAnotaYRecorta(t *testing.T) {
	svc, ft := newService(t, tresProductos(), 1)

	recent, err := svc.FetchRecent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)

	ids := make([]string, 0, len(recent))
	for _, r := range recent {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"22", "31", "12", "21", "11"}, ids)
	assert.Equal(t, "Jabón", recent[0].ProductName)
	assert.Equal(t, "Aceite", recent[1].ProductName)
	assert.Equal(t, recent, svc.Store().Recent())

	var tandaReqs []string
	for _, e := range ft.Emitted() {
		if e.Event == realtime.EventGetTandasByIDProducto {
			tandaReqs = append(tandaReqs, string(e.Payload.(dto.TandasRequest).IDProducto))
		}
	}
	assert.Equal(t, []string{"1", "2", "3"}, tandaReqs, "una petición por producto, en orden")
}

func TestFetchRecent_SinLimite(t *testing.T) {
	svc, _ := newService(t, tresProductos(), 1)

	recent, err := svc.FetchRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recent, 6)
	assert.Equal(t, "32", recent[5].ID, "sin fecha va al final")
}

func TestFetchRecent_Concurrente(t *testing.T) {
	sv := &servidor{tandas: map[string][]map[string]any{}, delay: 20 * time.Millisecond}
	for i := 1; i <= 8; i++ {
		id := fmt.Sprint(i)
		sv.productos = append(sv.productos, map[string]any{"id": i, "nombre": "P" + id})
		sv.tandas[id] = []map[string]any{
			{"id": i * 10, "productoId": i, "cantidad": i, "fechaIngreso": fmt.Sprintf("2024-01-%02d", i)},
		}
	}
	svc, _ := newService(t, sv, 4)

	recent, err := svc.FetchRecent(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "80", recent[0].ID)
	assert.Equal(t, "70", recent[1].ID)
	assert.Equal(t, "60", recent[2].ID)
	assert.LessOrEqual(t, sv.maxInFlight.Load(), int32(4))

	for i := 1; i <= 8; i++ {
		p, ok := svc.Store().Product(fmt.Sprint(i))
		require.True(t, ok)
		assert.True(t, p.TotalQuantity.Equal(decimal.NewFromInt(int64(i))))
	}
}

func TestSyncService_StopRetiraPush(t *testing.T) {
	svc, ft := newService(t, tresProductos(), 1)
	assert.True(t, ft.HasHandler(realtime.EventStockProductoChange))

	svc.Stop()
	assert.False(t, ft.HasHandler(realtime.EventStockProductoChange))
	assert.False(t, ft.HasHandler(realtime.EventNewTandaCreated))
}

func TestSortRecent_Estable(t *testing.T) {
	list := []entity.RecentBatch{
		recentBatch("a", "2024-01-01", ""),
		recentBatch("b", "", ""),
		recentBatch("c", "", "2024-02-01"),
		recentBatch("d", "2024-01-01", ""),
		recentBatch("e", "basura", ""),
	}
	realtime.SortRecent(list)
	got := make([]string, 0, len(list))
	for _, r := range list {
		got = append(got, r.ID)
	}
	assert.Equal(t, []string{"c", "a", "d", "b", "e"}, got)
}

func recentBatch(id, ingreso, creado string) entity.RecentBatch {
	return entity.RecentBatch{Batch: entity.Batch{ID: id, ReceivedAt: ingreso, CreatedAt: creado}}
}
