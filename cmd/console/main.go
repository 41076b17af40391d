package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/equip-manager/equip-console/internal/app"
	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/certificates"
	"github.com/equip-manager/equip-console/internal/dashboard"
	"github.com/equip-manager/equip-console/internal/equipment"
	"github.com/equip-manager/equip-console/internal/importing"
	"github.com/equip-manager/equip-console/internal/listing"
	"github.com/equip-manager/equip-console/internal/live"
	"github.com/equip-manager/equip-console/internal/observability"
	"github.com/equip-manager/equip-console/internal/platform/cache"
	"github.com/equip-manager/equip-console/internal/points"
	"github.com/equip-manager/equip-console/internal/refdata"
	"github.com/equip-manager/equip-console/internal/settings"
	"github.com/equip-manager/equip-console/internal/shared"
	"github.com/equip-manager/equip-console/internal/shell"
	"github.com/equip-manager/equip-console/internal/view"
)

const sessionCookie = "equip_session"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout,
		backend.WithLogger(logger.With(slog.String("component", "backend"))),
		backend.WithObservers(metrics),
		backend.WithPublicURL(cfg.BackendPublicURL),
	)
	resources := backend.NewResources(client)
	if err := client.Ping(ctx); err != nil {
		logger.Warn("backend not reachable at startup", slog.String("url", cfg.BackendURL), slog.Any("error", err))
	}

	refCache := refdata.NewCache(resources.Config,
		refdata.WithTTL(cfg.RefdataTTL),
		refdata.WithLogger(logger.With(slog.String("component", "refdata"))),
		refdata.WithStats(metrics),
	)

	sessionManager := shared.NewSessionManager(redisClient, sessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	validator := shared.NewValidator()

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	badge := shell.NewBadge(resources.Dashboard, cfg.BadgeTTL, nil, logger)
	registry := shell.NewRegistry()
	shellHandler := shell.NewHandler(logger, registry, resources.Dashboard, badge)
	responder := view.NewResponder(templates, csrfManager, shellHandler.Chrome, logger)
	shellHandler.SetResponder(responder)

	listSettings := listing.Settings{PerPage: cfg.ListPerPage, Debounce: cfg.SearchDebounce, Logger: logger}
	dashboardHandler := dashboard.NewHandler(logger, resources.Dashboard, responder)
	equipmentHandler := equipment.NewHandler(logger, resources, refCache, responder, validator, listSettings)
	pointsHandler := points.NewHandler(logger, resources, refCache, responder, validator, listSettings)
	certificatesHandler := certificates.NewHandler(logger, resources, refCache, responder, validator, listSettings)
	importHandler := importing.NewHandler(logger, resources.Import, responder, cfg.ImportRateLimit)
	settingsHandler := settings.NewHandler(logger, resources.Config, refCache, responder, validator)

	warmRefdata := func(ctx context.Context) { refCache.Get(ctx, false) }
	registry.Register(shell.Section{Name: "dashboard", Title: "Dashboard", Path: dashboard.Path, Icon: "gauge"})
	registry.Register(shell.Section{Name: "equipamentos", Title: "Equipamentos", Path: equipment.Path, Icon: "tool",
		Init: warmRefdata, Search: equipment.SearchLocation})
	registry.Register(shell.Section{Name: "pontos-medicao", Title: "Pontos de Medição", Path: points.Path, Icon: "pin",
		Init: warmRefdata, Search: points.SearchLocation})
	registry.Register(shell.Section{Name: "certificados", Title: "Certificados", Path: certificates.Path, Icon: "file",
		Init: warmRefdata, Search: certificates.SearchLocation})
	registry.Register(shell.Section{Name: "importacao", Title: "Importação/Exportação", Path: importing.Path, Icon: "upload"})
	registry.Register(shell.Section{Name: "configuracoes", Title: "Configurações", Path: settings.Path, Icon: "cog",
		Init: warmRefdata})

	liveHandler := live.NewHandler(logger, metrics)
	liveHandler.Register("equipamentos", func() live.Screen { return equipmentHandler.NewScreen() })
	liveHandler.Register("pontos-medicao", func() live.Screen { return pointsHandler.NewScreen() })
	liveHandler.Register("certificados", func() live.Screen { return certificatesHandler.NewScreen() })

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Metrics:        metrics,
		Track:          shellHandler.Track,
		Pages: []app.Mounter{
			shellHandler,
			dashboardHandler,
			equipmentHandler,
			pointsHandler,
			certificatesHandler,
			importHandler,
			settingsHandler,
		},
		Live:   liveHandler,
		Health: client.Ping,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}
	server.RegisterOnShutdown(liveHandler.Shutdown)

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.BackendURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
