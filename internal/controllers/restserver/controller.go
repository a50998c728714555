// Package restserver exposes the calculation engine over HTTP.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/chrissnell/bazi/internal/log"
	"github.com/chrissnell/bazi/internal/store"
	"github.com/chrissnell/bazi/pkg/bazi"
	"github.com/chrissnell/bazi/pkg/config"
)

const defaultRequestTimeout = 30 * time.Second

// Controller represents the REST server controller
type Controller struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	restConfig     config.ServerData
	requestTimeout time.Duration
	Server         http.Server
	engine         *bazi.Engine
	store          store.Store
	logger         *zap.SugaredLogger
	handlers       *Handlers
}

// NewController creates a new REST server controller. A nil store disables
// chart persistence.
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.ServerData, engine *bazi.Engine, st store.Store, logger *zap.SugaredLogger) (*Controller, error) {
	ctrl := &Controller{
		ctx:            ctx,
		wg:             wg,
		engine:         engine,
		store:          st,
		logger:         logger,
		requestTimeout: defaultRequestTimeout,
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Info("server.listen-addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}

	if rc.Port == 0 {
		logger.Info("server.port not provided; defaulting to 8080")
		rc.Port = 8080
	}

	if rc.RequestTimeout != "" {
		d, err := time.ParseDuration(rc.RequestTimeout)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid server.request-timeout %q", rc.RequestTimeout)
		}
		ctrl.requestTimeout = d
	}
	ctrl.restConfig = rc

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server and shuts it down when the
// controller's context ends
func (c *Controller) StartController() error {
	c.logger.Infof("Starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		var err error
		if c.restConfig.Cert != "" && c.restConfig.Key != "" {
			err = c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key)
		} else {
			err = c.Server.ListenAndServe()
		}
		if err != http.ErrServerClosed {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// Handler returns the routed handler, for tests and embedding
func (c *Controller) Handler() http.Handler {
	return c.Server.Handler
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", c.handlers.Healthz).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(c.timeoutMiddleware)

	api.HandleFunc("/charts", c.handlers.CreateChart).Methods(http.MethodPost)
	api.HandleFunc("/charts/batch", c.handlers.CreateChartBatch).Methods(http.MethodPost)
	api.HandleFunc("/charts/{id}", c.handlers.GetChart).Methods(http.MethodGet)
	api.HandleFunc("/solar-terms/{year:-?[0-9]+}", c.handlers.GetSolarTerms).Methods(http.MethodGet)
	api.HandleFunc("/rulesets", c.handlers.GetRuleSets).Methods(http.MethodGet)
	api.HandleFunc("/logs/http", c.handlers.GetHTTPLogs).Methods(http.MethodGet)

	// Wrapped outside the router so unmatched requests and preflights pass through too
	var h http.Handler = router
	if c.restConfig.EnableCORS {
		h = c.corsMiddleware(h)
	}
	// A panicking calculation (strict mode) becomes a 500
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(c.logger.Desugar())),
		handlers.PrintRecoveryStack(true),
	)(h)
	return c.loggingMiddleware(h)
}

// statusRecorder captures what the handler wrote for the request log
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// loggingMiddleware records every request in the HTTP log buffer. The log
// endpoint itself is skipped so reading the buffer does not grow it.
func (c *Controller) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		if r.URL.Path == "/api/v1/logs/http" {
			return
		}
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		duration := time.Since(start)
		c.logger.Debugf("%s %s %s %d %v", r.Method, r.RequestURI, r.RemoteAddr, rec.status, duration)
		log.LogHTTPRequest(log.HTTPRequest{
			Method:     r.Method,
			Path:       r.URL.Path,
			Status:     rec.status,
			Duration:   duration,
			Size:       rec.size,
			RemoteAddr: r.RemoteAddr,
			UserAgent:  r.UserAgent(),
			ChartID:    rec.Header().Get(chartIDHeader),
		})
	})
}

// corsMiddleware adds CORS headers
func (c *Controller) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// timeoutMiddleware bounds each API request; the engine checks the context
// before every calculation
func (c *Controller) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), c.requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
