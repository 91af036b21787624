package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pozt-backend/internal/auth"
	"pozt-backend/internal/cache"
	"pozt-backend/internal/config"
	"pozt-backend/internal/db"
	"pozt-backend/internal/handlers"
	"pozt-backend/internal/health"
	h "pozt-backend/internal/http"
	"pozt-backend/internal/idgen"
	"pozt-backend/internal/logging"
	"pozt-backend/internal/metrics"
	"pozt-backend/internal/middleware"
	"pozt-backend/internal/notify"
	"pozt-backend/internal/realtime"
	"pozt-backend/internal/repositories"
	"pozt-backend/internal/services"
	"pozt-backend/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	migrateOnly := flag.Bool("migrate-only", false, "apply migrations and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWith(ctx, *configPath, config.FetchJWTSecret)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(ctx, cfg, logger, *migrateOnly); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrateOnly bool) error {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("database connected", zap.String("host", cfg.Database.Host), zap.String("name", cfg.Database.Name))

	if err := db.Migrate(ctx, pool, logger); err != nil {
		return err
	}
	if migrateOnly {
		logger.Info("migrations applied")
		return nil
	}

	// Redis is optional; without it reference lists are read from Postgres every time.
	listCache := cache.Disabled(logger)
	if cfg.Redis.Enabled {
		c, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL, logger)
		if err != nil {
			logger.Warn("redis unavailable, caching disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			logger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
		}
		listCache = c
	}
	defer listCache.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	otpRepo := repositories.NewOTPRepository(pool)
	locationRepo := repositories.NewLocationRepository(pool)
	shipperRepo := repositories.NewShipperRepository(pool)
	orderRepo := repositories.NewOrderRepository(pool)

	ids := idgen.New(map[idgen.Kind]idgen.ProbeFunc{
		idgen.KindShipper: shipperRepo.CodeExists,
		idgen.KindOrder:   orderRepo.TrackingIDExists,
	}, idgen.WithMaxAttempts(cfg.IDGen.MaxAttempts))

	sender, err := notify.New(cfg.Notify, logger)
	if err != nil {
		return fmt.Errorf("notification sender: %w", err)
	}
	logger.Info("notification provider ready", zap.String("provider", sender.Name()))

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration, cfg.JWT.PendingExpiration)
	hub := realtime.NewHub(logger)
	defer hub.Close()

	// Services
	otpService := services.NewOTPService(otpRepo, sender, cfg.OTP.TTL, cfg.OTP.ResendCooldown, logger)
	userService := services.NewUserService(userRepo, locationRepo, otpService, jwtManager, logger)
	locationService := services.NewLocationService(locationRepo, listCache, logger)
	shipperService := services.NewShipperService(shipperRepo, locationRepo, ids, logger)
	orderService := services.NewOrderService(orderRepo, shipperRepo, locationRepo, ids, hub, logger)

	labelService := services.NewLabelService(orderService, nil, logger)
	archive, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("label archive: %w", err)
	}
	if archive != nil {
		labelService.Archive = archive
		logger.Info("archiving AWB labels", zap.String("bucket", cfg.Storage.Bucket))
	}

	sweeper := services.NewOTPSweeper(otpRepo, cfg.OTP.Retention, cfg.OTP.SweepInterval, logger)

	// Health checks ping Redis only when it is configured.
	var cachePinger health.Pinger
	if cfg.Redis.Enabled {
		cachePinger = listCache
	}
	checker := health.NewHealthChecker(pool, cachePinger)

	router := h.NewRouter(
		handlers.NewUserHandler(userService),
		handlers.NewLocationHandler(locationService),
		handlers.NewShipperHandler(shipperService),
		handlers.NewOrderHandler(orderService, labelService),
		handlers.NewHealthHandler(checker),
		hub,
		middleware.NewAuthMiddleware(jwtManager, cfg.Auth.ProtectRoutes),
		logger,
	)
	if !cfg.Auth.ProtectRoutes {
		logger.Warn("route protection disabled, write endpoints accept anonymous requests")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           middleware.NewCORS(cfg)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	poolStats := metrics.NewPoolCollector(func() metrics.PoolStats {
		st := pool.Stat()
		return metrics.PoolStats{
			Total:        st.TotalConns(),
			Idle:         st.IdleConns(),
			Acquired:     st.AcquiredConns(),
			AcquireCount: st.AcquireCount(),
		}
	}, 15*time.Second, logger)
	g.Go(func() error {
		return poolStats.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
