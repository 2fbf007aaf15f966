package natsbridge_test

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/application/realtime"
	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-sync/internal/infrastructure/natsbus"
	"github.com/jhoicas/Inventario-sync/internal/interfaces/natsbridge"
	"github.com/jhoicas/Inventario-sync/internal/interfaces/socket"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

type fixture struct {
	catalog *memory.Catalog
	bridge  *natsbridge.Bridge
	svc     *realtime.SyncService
}

func newFixture(t *testing.T, timeout time.Duration) fixture {
	t.Helper()
	ns, err := natsbus.StartEmbedded("127.0.0.1", -1, "")
	require.NoError(t, err)
	t.Cleanup(ns.Shutdown)

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	catalog, err := memory.LoadCatalog("")
	require.NoError(t, err)
	bridge := natsbridge.New(nc, "inventario", socket.NewRequests(catalog), logger.Nop())
	require.NoError(t, bridge.Start())
	t.Cleanup(bridge.Close)
	catalog.SetNotifier(bridge.Broadcast)

	tr := natsbus.NewTransport(natsbus.Config{URL: ns.ClientURL(), Prefix: "inventario"}, logger.Nop())
	require.NoError(t, tr.Connect(context.Background(), ""))
	t.Cleanup(func() { _ = tr.Disconnect() })

	svc := realtime.NewSyncService(tr, realtime.NewStore(), realtime.Config{RequestTimeout: timeout}, logger.Nop())
	require.NoError(t, svc.Start())
	t.Cleanup(svc.Stop)
	return fixture{catalog: catalog, bridge: bridge, svc: svc}
}

func TestBridge_PeticionesYPushPorNATS(t *testing.T) {
	f := newFixture(t, 2*time.Second)
	ctx := context.Background()

	bodegas, err := f.svc.FetchWarehouses(ctx)
	require.NoError(t, err)
	assert.Len(t, bodegas, 2)

	products, err := f.svc.FetchProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)

	batches, err := f.svc.FetchBatches(ctx, "2")
	require.NoError(t, err)
	require.Len(t, batches, 1)

	locs, err := f.svc.FetchLocations(ctx, "2")
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "Estante 1", locs[0].Name)

	_, err = f.catalog.CreateTanda(dto.CreateTandaRequest{
		ProductoID: "2", UbicacionID: "3", Cantidad: decimal.NewFromInt(15), FechaVencimiento: "2025-09-01",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		p, _ := f.svc.Store().Product("2")
		return len(p.Batches) == 2 && p.Stock.Equal(decimal.NewFromInt(75))
	}, 2*time.Second, 10*time.Millisecond)
	p, _ := f.svc.Store().Product("2")
	assert.True(t, p.TotalQuantity.Equal(decimal.NewFromInt(75)))
	require.NotNil(t, p.NearestExpiry)
	assert.Equal(t, "2025-09-01", p.NearestExpiry.Format("2006-01-02"))
}

func TestBridge_RecientesPorNATS(t *testing.T) {
	f := newFixture(t, 2*time.Second)

	recent, err := f.svc.FetchRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	ids := make([]string, 0, len(recent))
	for _, r := range recent {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"4", "2", "3", "1"}, ids)
}

func TestBridge_CerradoNoResponde(t *testing.T) {
	f := newFixture(t, 200*time.Millisecond)
	f.bridge.Close()

	_, err := f.svc.FetchProducts(context.Background())
	assert.ErrorIs(t, err, domain.ErrResponseTimeout)
}
