package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/internal/auth"
	authpostgres "github.com/frahmantamala/crm/internal/auth/postgres"
	"github.com/frahmantamala/crm/internal/contract"
	contractpostgres "github.com/frahmantamala/crm/internal/contract/postgres"
	"github.com/frahmantamala/crm/internal/core/database"
	"github.com/frahmantamala/crm/internal/core/events"
	"github.com/frahmantamala/crm/internal/customer"
	customerpostgres "github.com/frahmantamala/crm/internal/customer/postgres"
	"github.com/frahmantamala/crm/internal/department"
	departmentpostgres "github.com/frahmantamala/crm/internal/department/postgres"
	"github.com/frahmantamala/crm/internal/manager"
	managerpostgres "github.com/frahmantamala/crm/internal/manager/postgres"
	"github.com/frahmantamala/crm/internal/notification"
	"github.com/frahmantamala/crm/internal/product"
	productpostgres "github.com/frahmantamala/crm/internal/product/postgres"
	"github.com/frahmantamala/crm/internal/transport/rest"
	"github.com/frahmantamala/crm/internal/transport/swagger"
	"github.com/frahmantamala/crm/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	Redis      *redis.Client
	EventBus   *events.EventBus
	Dispatcher *notification.Dispatcher
	Router     *chi.Mux
	Handlers   rest.Handlers
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.Handlers, rest.RouterConfig{
		AllowedOrigins: deps.Config.Server.AllowedOrigins,
		OpenAPIPath:    deps.Config.Server.OpenAPIPath,
	}, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		deps.shutdown(ctx)
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

// shutdown drains in-flight notifications before closing connections.
func (d *Dependencies) shutdown(ctx context.Context) {
	d.EventBus.Wait()
	if err := d.Dispatcher.Shutdown(ctx); err != nil {
		d.Logger.Error("Dispatcher shutdown error", "error", err)
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.L()

	if config.Server.OpenAPIPath != "" {
		doc, err := swagger.Load(ctx, config.Server.OpenAPIPath)
		if err != nil {
			return nil, err
		}
		lg.Info("openapi document loaded", "title", doc.Info.Title, "version", doc.Info.Version)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db, config.Env)
	if err != nil {
		return nil, err
	}

	store, redisClient, err := initTokenStore(ctx, config.Redis, lg)
	if err != nil {
		return nil, err
	}

	txManager := database.NewTransactionManager(gdb)
	bus := events.NewEventBus(lg)
	dispatcher := initDispatcher(config.Notification, initMailer(config.Mail, lg), lg)

	hasher := auth.NewBcryptHasher(config.Security.BCryptCost)
	tokens := auth.NewJWTTokenGenerator(config.Security.JWTSecret, config.Security.AccessTokenDuration)
	authService := auth.NewService(authpostgres.NewRepository(gdb), tokens, store, lg)

	departmentService := department.NewService(departmentpostgres.NewDepartmentRepository(gdb), txManager, lg)
	managerService := manager.NewService(managerpostgres.NewManagerRepository(gdb), hasher, txManager, lg)
	customerService := customer.NewService(customerpostgres.NewCustomerRepository(gdb), txManager, lg)
	productService := product.NewService(productpostgres.NewProductRepository(gdb), txManager, lg)
	contractService := contract.NewService(
		contractpostgres.NewContractRepository(gdb),
		contractpostgres.NewStatsRepository(db),
		txManager,
		bus,
		lg,
	)

	notification.NewEventHandler(managerRecipients(managerService), dispatcher, lg).Register(bus)

	health := map[string]rest.Pinger{"postgres": db}
	if redisClient != nil {
		health["redis"] = rest.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	return &Dependencies{
		Config:     config,
		DB:         db,
		Redis:      redisClient,
		EventBus:   bus,
		Dispatcher: dispatcher,
		Router:     chi.NewRouter(),
		Handlers: rest.Handlers{
			Auth:       auth.NewHandler(authService),
			RBAC:       auth.NewRBACAuthorization(auth.NewPermissionChecker(), lg),
			Department: department.NewHandler(departmentService),
			Manager:    manager.NewHandler(managerService),
			Customer:   customer.NewHandler(customerService),
			Product:    product.NewHandler(productService),
			Contract:   contract.NewHandler(contractService),
			Health:     rest.NewHealthHandler(health),
		},
		Logger: lg,
	}, nil
}

// managerRecipients resolves contract creators to mail recipients.
func managerRecipients(svc manager.ServiceAPI) notification.RecipientLookup {
	return notification.RecipientLookupFunc(func(ctx context.Context, managerID int64) (notification.Recipient, error) {
		m, err := svc.GetByID(ctx, managerID)
		if err != nil {
			if errors.Is(err, manager.ErrManagerNotFound) {
				return notification.Recipient{}, notification.ErrRecipientNotFound
			}
			return notification.Recipient{}, err
		}
		return notification.Recipient{Name: m.Name, Email: m.Email}, nil
	})
}
