// Package httpserver mounts a tiny /healthz + /metrics router for each
// service, grounded on cc-backend/cmd/cc-backend/main.go's router
// composition: gorilla/mux for routing, gorilla/handlers for
// compression, panic recovery, and access logging.
package httpserver

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seisgo/pipeline/pkg/log"
)

// HealthFunc reports whether a service is ready to serve traffic; a
// non-nil error is surfaced as a 503 with the error text as the body.
type HealthFunc func() error

// Server is a minimal HTTP server exposing /healthz and /metrics,
// matching cc-backend's CompressHandler/RecoveryHandler/
// CustomLoggingHandler middleware stack.
type Server struct {
	addr   string
	server *http.Server
}

// New builds a Server bound to addr. health is polled on every
// /healthz request; it may be nil to always report healthy.
func New(addr string, health HealthFunc) *Server {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(rw http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health(); err != nil {
				http.Error(rw, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.Use(handlers.CompressHandler)
	r.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true)))

	handler := handlers.CustomLoggingHandler(io.Discard, r, func(_ io.Writer, params handlers.LogFormatterParams) {
		if strings.HasPrefix(params.Request.RequestURI, "/metrics") {
			log.Debugf("%s %s (%d, %dms)", params.Request.Method, params.URL.RequestURI(),
				params.StatusCode, time.Since(params.TimeStamp).Milliseconds())
			return
		}
		log.Infof("%s %s (%d, %dms)", params.Request.Method, params.URL.RequestURI(),
			params.StatusCode, time.Since(params.TimeStamp).Milliseconds())
	})

	return &Server{
		addr: addr,
		server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Serve starts the server in the background, logging a Fatal on any
// error other than a graceful shutdown.
func (s *Server) Serve() {
	log.Infof("http server listening at %s", s.addr)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("httpserver: %v", err)
		}
	}()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
