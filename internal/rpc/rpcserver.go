package rpc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ringops/ringstats/internal/catalog"
	"github.com/ringops/ringstats/internal/rpc/handlers"
	"github.com/ringops/ringstats/internal/table"
	"go.uber.org/zap"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

type Deps struct {
	Store      table.Store
	Watch      handlers.WatchList
	Categories []catalog.Category
	LastRun    handlers.LastRunFunc
}

func NewMux(deps Deps) *http.ServeMux {
	mux := http.NewServeMux()

	itemsHandler := func(r *http.Request) (any, error) {
		return handlers.ItemsGetHandler(r, deps.Store, deps.Categories)
	}

	handlers.SetupHandlers(mux, handlers.MethodHandlers{
		handlers.CreateApiV1Path("status"): {
			handlers.HTTP_GET: func(r *http.Request) (any, error) {
				return handlers.StatusGetHandler(r, deps.LastRun)
			},
		},
		handlers.CreateApiV1Path("items"): {
			handlers.HTTP_GET: itemsHandler,
		},
		handlers.CreateApiV1Path("items/"): {
			handlers.HTTP_GET: itemsHandler,
		},
		handlers.CreateApiV1Path("watch"): {
			handlers.HTTP_GET: func(r *http.Request) (any, error) {
				return handlers.WatchGetHandler(r, deps.Watch)
			},
			handlers.HTTP_POST: func(r *http.Request) (any, error) {
				return handlers.WatchPostHandler(r, deps.Watch)
			},
		},
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func StartRPCServer(port int, deps Deps, ctx context.Context) func() {
	zap.L().Info("Starting RPC server on port", zap.Int("port", port))

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:    addr,
		Handler: loggingMiddleware(NewMux(deps)),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil {
			if err == http.ErrServerClosed {
				zap.L().Info("RPC server closed")
			} else {
				zap.L().Fatal("starting RPC server failed", zap.Error(err))
			}
		}
	}()
	closeFunc := func() {
		zap.L().Info("Closing RPC server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("server shutdown failed", zap.Error(err))
		}
	}
	return closeFunc
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{w, http.StatusOK}
		next.ServeHTTP(rw, r)

		zap.L().Info("Request",
			zap.String("ip", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.statusCode),
		)
	})
}
