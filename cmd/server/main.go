package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/modster/pickforge/internal/api"
	appconfig "github.com/modster/pickforge/internal/config"
	"github.com/modster/pickforge/internal/events"
	"github.com/modster/pickforge/internal/ids"
	"github.com/modster/pickforge/internal/imagegen"
	"github.com/modster/pickforge/internal/payments"
	"github.com/modster/pickforge/internal/secrets"
	postgres "github.com/modster/pickforge/internal/storage/postgres"
	"github.com/modster/pickforge/internal/telemetry"
)

func newLogger(cfg appconfig.Config) *log.Logger {
	prefix := ""
	if cfg.ServiceName != "" {
		prefix = fmt.Sprintf("[%s] ", cfg.ServiceName)
	}
	logger := log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds)
	log.SetOutput(os.Stdout)
	log.SetFlags(logger.Flags())
	log.SetPrefix(prefix)
	return logger
}

func setupTelemetry(lc fx.Lifecycle, cfg appconfig.Config) {
	var cleanup func()
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			cleanup = telemetry.InitTracer(cfg.ServiceName)
			return nil
		},
		OnStop: func(context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})
}

// newSQLDB provides the shared *sql.DB and closes it on stop.
func newSQLDB(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger) (*sql.DB, error) {
	logger.Printf("Connecting to PostgreSQL database %s@%s:%d", cfg.Database.Database, cfg.Database.Host, cfg.Database.Port)
	db, err := postgres.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(db); err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return db.Close()
		},
	})
	return db, nil
}

// newKafkaProducer constructs the shared producer and binds its lifecycle to Fx.
func newKafkaProducer(cfg appconfig.Config, lc fx.Lifecycle) *events.Producer {
	prod := events.NewProducer(cfg.Kafka.Brokers)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return prod.Close()
		},
	})
	return prod
}

func newStripeClient(cfg appconfig.Config) *payments.Client {
	return payments.NewClient(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
}

func newImageGenerator(cfg appconfig.Config) *imagegen.WorkersAI {
	return imagegen.NewWorkersAI(imagegen.Config{
		BaseURL:   cfg.ImageGen.BaseURL,
		AccountID: cfg.ImageGen.AccountID,
		APIToken:  cfg.ImageGen.APIToken,
		Model:     cfg.ImageGen.Model,
	})
}

func newBlobStore(db *sql.DB) *postgres.BlobStore { return postgres.NewBlobStore(db) }

func newOrderStore(db *sql.DB) *postgres.OrderStore { return postgres.NewOrderStore(db) }

func registerWebServer(
	lc fx.Lifecycle,
	cfg appconfig.Config,
	logger *log.Logger,
	shutdowner fx.Shutdowner,
	gen *imagegen.WorkersAI,
	blobs *postgres.BlobStore,
	orders *postgres.OrderStore,
	stripe *payments.Client,
	prod *events.Producer,
) {
	httpServer := newWebServer(cfg.HTTP.Addr, gen, blobs, orders, stripe, prod)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				logger.Printf("API available on %s", cfg.HTTP.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Printf("API server error: %v", err)
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	})
}

func newWebServer(
	addr string,
	gen *imagegen.WorkersAI,
	blobs *postgres.BlobStore,
	orders *postgres.OrderStore,
	stripe *payments.Client,
	prod *events.Producer,
) *http.Server {
	mux := http.NewServeMux()

	idgen := ids.UUID{}
	api.RegisterImageRoutes(mux, gen, blobs, idgen)
	api.RegisterPaymentRoutes(mux, stripe)
	api.RegisterWebhookRoutes(mux, stripe, orders, prod, idgen)
	api.RegisterOrderRoutes(mux, orders)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return &http.Server{
		Addr:    addr,
		Handler: withCORS(mux),
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Simple permissive CORS for local testing
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Stripe-Signature")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	_ = godotenv.Load()

	if err := secrets.BootstrapFromOpenBao(context.Background()); err != nil {
		log.Printf("WARNING: OpenBao bootstrap failed: %v", err)
	}

	app := fx.New(
		fx.Provide(
			appconfig.Load,
			newLogger,
			newSQLDB,
			newBlobStore,
			newOrderStore,
			newStripeClient,
			newImageGenerator,
			newKafkaProducer,
		),
		fx.Invoke(
			func(logger *log.Logger, cfg appconfig.Config) {
				logger.Printf("Starting %s...", cfg.ServiceName)
			},
			setupTelemetry,
			registerWebServer,
		),
	)

	app.Run()
}
