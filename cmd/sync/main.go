package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/Inventario-sync/internal/application/auth"
	"github.com/jhoicas/Inventario-sync/internal/application/realtime"
	"github.com/jhoicas/Inventario-sync/internal/application/usecase"
	"github.com/jhoicas/Inventario-sync/internal/infrastructure/natsbus"
	"github.com/jhoicas/Inventario-sync/internal/infrastructure/restapi"
	"github.com/jhoicas/Inventario-sync/internal/infrastructure/socket"
	"github.com/jhoicas/Inventario-sync/pkg/config"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// transport canal en tiempo real con ciclo de vida propio.
type transport interface {
	realtime.Transport
	auth.Connector
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("transport", cfg.Transport.Kind).
		Msg("iniciando cliente de sincronización")

	var tr transport
	switch cfg.Transport.Kind {
	case "nats":
		tr = natsbus.NewTransport(natsbus.Config{
			URL:    cfg.Transport.NATSURL,
			Prefix: cfg.Transport.NATSPrefix,
			Token:  cfg.Transport.NATSToken,
			Name:   cfg.App.Name,
		}, log)
	default:
		tr = socket.NewTransport(cfg.Transport.SocketURL(), log)
	}

	api := restapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout, log)
	store := realtime.NewStore()
	svc := realtime.NewSyncService(tr, store, realtime.Config{
		RequestTimeout:    cfg.Sync.RequestTimeout,
		Policy:            realtime.Policy(cfg.Sync.ChannelPolicy),
		RecentConcurrency: cfg.Sync.RecentConcurrency,
	}, log)
	session := auth.NewSessionUseCase(api, tr, svc, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.API.Token != "" {
		_, err = session.Resume(ctx, cfg.API.Token)
	} else {
		_, err = session.Login(ctx, cfg.Login.Email, cfg.Login.Password)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("abrir sesión")
	}
	defer func() {
		if err := session.Logout(); err != nil {
			log.Error().Err(err).Msg("cerrar sesión")
		}
	}()

	warehouses, err := svc.FetchWarehouses(ctx)
	if err != nil {
		log.Error().Err(err).Msg("cargar bodegas")
	}
	log.Info().Int("bodegas", len(warehouses)).Msg("bodegas cargadas")

	recent, err := svc.FetchRecent(ctx, cfg.Sync.RecentLimit)
	if err != nil {
		log.Error().Err(err).Msg("cargar tandas recientes")
	}
	for _, b := range recent {
		log.Info().
			Str("tanda", b.ID).
			Str("producto", b.ProductName).
			Str("cantidad", b.Quantity.String()).
			Str("ingreso", b.ReceivedAt).
			Str("vence", b.Expiry).
			Msg("tanda reciente")
	}

	catalogUC := usecase.NewCatalogUseCase(api, store)
	movimientoUC := usecase.NewMovimientoUseCase(api)
	if err := runCommand(ctx, os.Args[1:], catalogUC, movimientoUC, log); err != nil {
		log.Error().Err(err).Msg("comando")
	}

	cancel := store.Observe(func(ch realtime.Change) {
		ev := log.Info().Str("tipo", string(ch.Kind)).Str("id", ch.ID)
		if ch.Kind == realtime.ChangeProduct || ch.Kind == realtime.ChangeBatches {
			if p, ok := store.Product(ch.ID); ok {
				ev = ev.Str("stock", p.Stock.String()).Str("cantidadTotal", p.TotalQuantity.String())
				if p.NearestExpiry != nil {
					ev = ev.Time("vencimiento", *p.NearestExpiry)
				}
			}
		}
		ev.Msg("cambio en inventario")
	})
	defer cancel()

	<-ctx.Done()
	log.Info().Msg("apagando cliente de sincronización")
}
