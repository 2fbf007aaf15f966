package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/jhoicas/Inventario-sync/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-sync/internal/infrastructure/natsbus"
	httpRouter "github.com/jhoicas/Inventario-sync/internal/interfaces/http"
	"github.com/jhoicas/Inventario-sync/internal/interfaces/natsbridge"
	"github.com/jhoicas/Inventario-sync/internal/interfaces/socket"
	"github.com/jhoicas/Inventario-sync/pkg/config"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

//go:generate go run github.com/swaggo/swag/cmd/swag init -g cmd/peer/main.go -d ../.. -o ../../docs --outputTypes json --parseInternal

// Peer de desarrollo: sirve la API REST y el socket /inventario sobre un catálogo en memoria,
// y opcionalmente los mismos canales sobre un servidor NATS embebido.
//
// @title                       Inventario peer API
// @version                     1.0
// @description                 API REST del peer de desarrollo (misma forma que la API de inventario).
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
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
		Str("addr", cfg.Peer.Addr()).
		Msg("iniciando peer de inventario")

	catalog, err := memory.LoadCatalog(cfg.Peer.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Msg("cargar seed")
	}

	requests := socket.NewRequests(catalog)
	hub := socket.NewHub(requests, log)
	notifiers := []memory.Notifier{hub.Broadcast}

	if cfg.Peer.NATSPort != 0 {
		ns, err := natsbus.StartEmbedded(cfg.Peer.Host, cfg.Peer.NATSPort, cfg.Transport.NATSToken)
		if err != nil {
			log.Fatal().Err(err).Msg("servidor NATS embebido")
		}
		defer ns.Shutdown()

		opts := []nats.Option{nats.Name(cfg.App.Name + "-peer")}
		if cfg.Transport.NATSToken != "" {
			opts = append(opts, nats.Token(cfg.Transport.NATSToken))
		}
		nc, err := nats.Connect(ns.ClientURL(), opts...)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión al NATS embebido")
		}
		defer nc.Close()

		bridge := natsbridge.New(nc, cfg.Transport.NATSPrefix, requests, log)
		if err := bridge.Start(); err != nil {
			log.Fatal().Err(err).Msg("puente NATS")
		}
		defer bridge.Close()
		notifiers = append(notifiers, bridge.Broadcast)
		log.Info().Str("url", ns.ClientURL()).Str("prefix", cfg.Transport.NATSPrefix).Msg("NATS embebido listo")
	}

	catalog.SetNotifier(func(event string, data any) {
		for _, n := range notifiers {
			n(event, data)
		}
	})

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name + "-peer",
		DisableStartupMessage: true,
		ReadTimeout:           time.Second * 10,
		WriteTimeout:          time.Second * 10,
		IdleTimeout:           time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if httpRouter.MountDocs(app, cfg.Peer.DocsFile, cfg.App.Name+" peer API") {
		log.Info().Str("spec", cfg.Peer.DocsFile).Msg("swagger UI en /" + httpRouter.DocsPath)
	} else {
		log.Warn().Str("spec", cfg.Peer.DocsFile).Msg("spec swagger no encontrado, /docs deshabilitado")
	}

	// El socket va antes que las rutas REST: /inventario comparte prefijo con el grupo protegido.
	hub.Mount(app, "/inventario", cfg.Peer.JWTSecret)
	httpRouter.Router(app, httpRouter.RouterDeps{
		Catalog:   catalog,
		Users:     catalog,
		JWTSecret: cfg.Peer.JWTSecret,
		Issuer:    cfg.App.Name,
		TokenTTL:  60,
	})

	go func() {
		if err := app.Listen(cfg.Peer.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando peer...")
	hub.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Int("clientes", hub.ClientCount()).Msg("peer detenido")
}
