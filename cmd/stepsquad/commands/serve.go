package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/stepsquad/internal/api"
	"github.com/mmynk/stepsquad/internal/auth"
	"github.com/mmynk/stepsquad/internal/lock"
	"github.com/mmynk/stepsquad/internal/metrics"
	"github.com/mmynk/stepsquad/internal/middleware"
	"github.com/mmynk/stepsquad/internal/service"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(c *cli) *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the group service API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx, !skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply postgres migrations on startup")
	return cmd
}

// pinger is a dependency /healthz checks.
type pinger interface {
	Ping(ctx context.Context) error
}

func (c *cli) serve(ctx context.Context, migrate bool) error {
	store, err := c.openStore(ctx, migrate)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	checks := map[string]pinger{"store": store}

	var locker lock.Locker = lock.NewKeyedMutex()
	if c.cfg.RedisURL != "" {
		redisLocker, err := lock.NewRedisLocker(c.cfg.RedisURL, c.cfg.LockTTL)
		if err != nil {
			return fmt.Errorf("failed to initialize redis locker: %w", err)
		}
		defer redisLocker.Close()
		locker = redisLocker
		checks["redis"] = redisLocker
		c.logger.Info("Using redis group locks", "ttl", c.cfg.LockTTL)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	jwtManager := auth.NewJWTManager(c.cfg.JWTSecret, 24*time.Hour)
	svc := service.NewGroupService(store, store, c.logger,
		service.WithLocker(locker),
		service.WithLocation(c.cfg.Location),
		service.WithMetrics(m),
	)

	mux := http.NewServeMux()
	path, handler := api.NewGroupServiceHandler(svc, c.logger, connect.WithInterceptors(
		middleware.LoggingInterceptor(c.logger),
		middleware.MetricsInterceptor(m),
		middleware.RequireAuth(jwtManager, api.SearchPublicGroupsProcedure),
	))
	mux.Handle(path, handler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.Handle("GET /healthz", healthHandler(checks))

	// h2c serves HTTP/2 without TLS for Connect clients.
	srv := &http.Server{
		Addr:              c.cfg.APIAddr,
		Handler:           h2c.NewHandler(middleware.RequestLogger(c.logger, middleware.CORS(c.cfg.CORSOrigin, mux)), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info("Connect server starting", "address", c.cfg.APIAddr, "timezone", c.cfg.Location.String())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	c.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// healthHandler answers 200 when every check pings, 503 otherwise.
func healthHandler(checks map[string]pinger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				http.Error(w, name+" unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
}
