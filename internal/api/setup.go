package api

import (
	"context"
	"errors"
	"github.com/felixge/httpsnoop"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"net/http"
	"old-maid-server/internal/auth"
	"old-maid-server/internal/core"
	"time"
)

const shutdownTimeout = 5 * time.Second

// recoveryLogger adapts zerolog to handlers.RecoveryHandlerLogger.
type recoveryLogger struct {
	log zerolog.Logger
}

func (l recoveryLogger) Println(args ...interface{}) {
	l.log.Error().Interface("panic", args).Msg("recovered from panic")
}

func accessLog(logger zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", m.Code).
				Dur("duration", m.Duration).
				Int64("bytes", m.Written).
				Msg("request")
		})
	}
}

func NewRouter(service *core.Service, issuer *auth.Issuer, hub *Hub, cfg core.ServerConfig, logger zerolog.Logger) http.Handler {
	logger = logger.With().Str("component", "api").Logger()

	r := mux.NewRouter()
	r.Handle("/ws", newWsHandler(service, issuer, hub, cfg.AllowedOrigins, logger)).Methods(http.MethodGet)
	r.HandleFunc("/api/session", SessionHandler(service, issuer, logger)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", HealthHandler).Methods(http.MethodGet)
	r.Use(accessLog(logger))

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{logger}))
	return recovery(cors(r))
}

// Serve blocks until ctx is cancelled or the listener fails. onShutdown runs
// when the server starts shutting down; hijacked websockets are not closed
// by the server itself.
func Serve(ctx context.Context, addr string, handler http.Handler, logger zerolog.Logger, onShutdown ...func()) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	for _, f := range onShutdown {
		srv.RegisterOnShutdown(f)
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("listening")
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
