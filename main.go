package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"artmarket/internal/config"
	"artmarket/internal/database"
	"artmarket/internal/handlers"
	"artmarket/internal/logging"
	"artmarket/internal/models"
	"artmarket/internal/payments"
	"artmarket/internal/pricing"
	"artmarket/internal/repositories"
	"artmarket/internal/services"
	"artmarket/pkg/cache"
	"artmarket/pkg/rabbitmq"
)

// application is the wired server plus the resources it must release.
type application struct {
	app    *fiber.App
	db     *gorm.DB
	mq     *rabbitmq.Client
	redis  *cache.RedisCache
	auth   *services.AuthService
	store  repositories.Store
	logger *zap.Logger
}

func main() {
	cfg, err := config.Load(viper.New())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	a, err := newApplication(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer a.close()

	if cfg.SeedDemoData {
		if err := a.seedDemoData(context.Background()); err != nil {
			log.Error("failed to seed demo data", zap.Error(err))
		}
	}

	if a.mq != nil {
		if err := a.mq.ConsumeOrderEvents(services.OrderEventLogger(log.Named("consumer"))); err != nil {
			log.Error("failed to start RabbitMQ consumer", zap.Error(err))
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("starting server", zap.String("addr", cfg.AppPort))
		if err := a.app.Listen(cfg.AppPort); err != nil {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	log.Info("shutting down server")
	if err := a.app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("error during Fiber shutdown", zap.Error(err))
	}
	log.Info("server gracefully stopped")
}

// newApplication opens every backing resource and wires the HTTP app. The
// broker and redis are optional and skipped when their address is empty.
func newApplication(cfg *config.Config, log *zap.Logger) (*application, error) {
	db, err := database.Open(cfg.Database, cfg.AppEnv == "dev")
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	a := &application{db: db, logger: log}

	var publisher services.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		a.mq, err = rabbitmq.NewClient(rabbitmq.Config{
			URL:      cfg.RabbitMQ.URL,
			Exchange: cfg.RabbitMQ.Exchange,
			Queue:    cfg.RabbitMQ.Queue,
		}, log.Named("rabbitmq"))
		if err != nil {
			a.close()
			return nil, err
		}
		publisher = a.mq
	} else {
		log.Info("RABBITMQ_URL not set, order events disabled")
	}

	var idempotencyCache cache.Cache
	if cfg.Redis.Addr != "" {
		a.redis = cache.NewRedisCache(cfg.Redis.Addr, "artmarket")
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.redis.Ping(ctx); err != nil {
			a.close()
			return nil, err
		}
		idempotencyCache = a.redis
	} else {
		log.Info("REDIS_ADDR not set, idempotency keys disabled")
	}

	a.store = repositories.NewGORMStore(db)
	a.auth = services.NewAuthService(a.store.Users(), cfg.JWTSecret, log.Named("auth"))
	gateway := payments.NewSimulatedGateway(cfg.Payments.DeclineMethods, log.Named("gateway"))

	svc := handlers.Services{
		Auth:      a.auth,
		Artworks:  services.NewArtworkService(a.store, log.Named("artworks")),
		Carts:     services.NewCartService(a.store, log.Named("carts")),
		Wishlists: services.NewWishlistService(a.store, log.Named("wishlists")),
		Orders:    services.NewOrderService(a.store, pricing.DefaultPolicy(), publisher, log.Named("orders")),
		Payments:  services.NewPaymentService(a.store, gateway, publisher, log.Named("payments")),
		Reviews:   services.NewReviewService(a.store, log.Named("reviews")),
	}

	app := fiber.New(fiber.Config{AppName: "artmarket"})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Get("/health", a.handleHealth)
	handlers.Register(app, svc, handlers.RouteOptions{
		Cache:          idempotencyCache,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
	}, log.Named("http"))

	a.app = app
	return a, nil
}

func (a *application) handleHealth(c *fiber.Ctx) error {
	status := fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": "up",
		"rabbitmq": "disabled",
		"redis":    "disabled",
	}
	code := fiber.StatusOK

	if sqlDB, err := a.db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		status["status"], status["database"] = "unhealthy", "down"
		code = fiber.StatusServiceUnavailable
	}
	if a.mq != nil {
		status["rabbitmq"] = "connected"
	}
	if a.redis != nil {
		status["redis"] = "up"
		if err := a.redis.Ping(c.UserContext()); err != nil {
			status["redis"] = "down"
		}
	}
	return c.Status(code).JSON(status)
}

func (a *application) close() {
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			a.logger.Warn("error closing RabbitMQ client", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("error closing redis client", zap.Error(err))
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// seedDemoData creates one artist, one buyer and one staff account with a few
// artworks, and logs a token for each account. It is a no-op once the demo
// artist exists.
func (a *application) seedDemoData(ctx context.Context) error {
	artist := &models.User{ID: "demo-artist", Username: "demo_artist", Email: "artist@demo.local", FullName: "Demo Artist", UserType: models.UserTypeArtist}
	buyer := &models.User{ID: "demo-buyer", Username: "demo_buyer", Email: "buyer@demo.local", FullName: "Demo Buyer", UserType: models.UserTypeBuyer}
	staff := &models.User{ID: "demo-staff", Username: "demo_staff", Email: "staff@demo.local", FullName: "Demo Staff", UserType: models.UserTypeBuyer, IsStaff: true}

	if _, err := a.store.Users().GetByID(ctx, artist.ID); err == nil {
		a.logger.Info("demo data already present")
		return a.logDemoTokens(artist, buyer, staff)
	} else if !errors.Is(err, repositories.ErrRecordNotFound) {
		return err
	}

	err := a.store.InTx(ctx, func(tx repositories.Store) error {
		for _, u := range []*models.User{artist, buyer, staff} {
			if err := tx.Users().Create(ctx, u); err != nil {
				return err
			}
		}
		artworks := []models.Artwork{
			{Title: "Harbour at Dusk", Medium: "Oil on canvas", Price: decimal.RequireFromString("650.00")},
			{Title: "Quiet Field", Medium: "Watercolour", Price: decimal.RequireFromString("180.00")},
			{Title: "Copper Study No. 3", Medium: "Etching", Price: decimal.RequireFromString("95.50")},
		}
		for i := range artworks {
			artworks[i].ArtistID = artist.ID
			if err := tx.Artworks().Create(ctx, &artworks[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}
	a.logger.Info("seeded demo data")
	return a.logDemoTokens(artist, buyer, staff)
}

func (a *application) logDemoTokens(users ...*models.User) error {
	for _, u := range users {
		token, err := a.auth.IssueToken(u)
		if err != nil {
			return err
		}
		a.logger.Info("demo account", zap.String("username", u.Username), zap.String("token", token))
	}
	return nil
}
