package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/config"
	"storefront/consumers"
	"storefront/controllers"
	"storefront/database"
	"storefront/logger"
	"storefront/middlewares"
	"storefront/rabbitmq"
	"storefront/routes"
	"storefront/sessions"
	"storefront/utils"
)

const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Port string
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the storefront HTTP API.

The server starts accepting requests immediately. The database connects in
the background: MySQL first, then the SQLite file if MySQL is unreachable.
Until it is ready, data endpoints answer 503 and /api/health reports
"initializing".

Example:
  storefront serve
  storefront serve --port 8081 --env-file ./deploy/.env`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Port, "port", "", "listen port (overrides PORT)")

	return cmd
}

func runServer(cmd *cobra.Command, opts *ServeOptions) error {
	cfg := config.Load(opts.EnvFile)
	if opts.Port != "" {
		cfg.Port = opts.Port
	}

	logger.Initialize(cfg.Env)
	defer logger.Sync()
	if !cfg.Verbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := database.NewManager()
	defer manager.Close()
	go func() {
		if err := manager.Init(ctx, cfg); err != nil {
			logger.Log.Error("Database initialization failed", zap.Error(err))
		}
	}()

	denylist := newDenylist(ctx, cfg)

	var events controllers.EventPublisher
	if rmq := newRabbitMQ(ctx, cfg, manager); rmq != nil {
		defer rmq.Close()
		events = rmq
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	limiter := middlewares.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	go limiter.Run(ctx)

	router := routes.SetupRouter(routes.Deps{
		Controller: controllers.New(controllers.Options{
			DB:       manager,
			Tokens:   tokens,
			Denylist: denylist,
			Events:   events,
			Verbose:  cfg.Verbose(),
		}),
		Tokens:      tokens,
		Denylist:    denylist,
		Limiter:     limiter,
		FrontendURL: cfg.FrontendURL,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server is running",
			zap.String("port", cfg.Port),
			zap.String("health", "http://localhost:"+cfg.Port+"/api/health"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newDenylist connects to Redis when configured. Without it, logout only
// affects the client.
func newDenylist(ctx context.Context, cfg *config.Config) sessions.Denylist {
	if cfg.RedisURL == "" {
		return sessions.NoopDenylist{}
	}
	client, err := sessions.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Log.Warn("Redis unavailable, token revocation disabled", zap.Error(err))
		return sessions.NoopDenylist{}
	}
	logger.Log.Info("Connected to Redis")
	return sessions.NewRedisDenylist(client)
}

// newRabbitMQ sets up order events and the status consumer when a broker
// is configured. A broker failure leaves the API running without events.
func newRabbitMQ(ctx context.Context, cfg *config.Config, manager *database.Manager) *rabbitmq.RabbitMQ {
	if cfg.RabbitMQURL == "" {
		return nil
	}
	rmq, err := rabbitmq.NewRabbitMQ(cfg)
	if err != nil {
		logger.Log.Warn("RabbitMQ unavailable, order events disabled", zap.Error(err))
		return nil
	}
	if err := rmq.SetupQueues(); err != nil {
		logger.Log.Warn("Failed to setup RabbitMQ queues", zap.Error(err))
		rmq.Close()
		return nil
	}
	if err := consumers.StartOrderConsumer(ctx, rmq.Channel, cfg, manager); err != nil {
		logger.Log.Warn("Failed to start status consumer", zap.Error(err))
	}
	return rmq
}
