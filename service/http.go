package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.ule.co/platform/config"
	"go.ule.co/platform/core"
	"go.ule.co/platform/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var _ handlers.RecoveryHandlerLogger = (*recoverLogger)(nil)

type recoverLogger struct {
	logger *core.Logger
}

func (r *recoverLogger) Println(v ...interface{}) {
	r.logger.Error("Recovered from panic", zap.Any("panic", v))
}

type HTTPServiceParams struct {
	fx.In
	Config  config.Manager
	Logger  *core.Logger
	Metrics *Metrics
	APIs    []core.API `group:"api"`
}

type HTTPServiceDefault struct {
	config  config.Manager
	logger  *core.Logger
	metrics *Metrics
	apis    []core.API
	router  *mux.Router
	srv     *http.Server
}

func NewHTTPService(lc fx.Lifecycle, params HTTPServiceParams) (*HTTPServiceDefault, error) {
	h := &HTTPServiceDefault{
		config:  params.Config,
		logger:  params.Logger,
		metrics: params.Metrics,
		apis:    params.APIs,
		router:  mux.NewRouter(),
	}

	if err := h.Init(); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: h.Serve,
		OnStop: func(ctx context.Context) error {
			return h.srv.Shutdown(ctx)
		},
	})

	return h, nil
}

func (h *HTTPServiceDefault) Router() *mux.Router {
	return h.router
}

// Handler is the router wrapped in the middleware every request passes
// through, outermost first: panic recovery, proxy headers, CORS.
func (h *HTTPServiceDefault) Handler() http.Handler {
	return h.srv.Handler
}

func (h *HTTPServiceDefault) Init() error {
	cfg := h.config.Config().Core

	for _, api := range h.apis {
		if err := api.Configure(h.router); err != nil {
			return err
		}
		h.logger.Debug("api configured", zap.String("api", api.Name()))
	}

	if h.metrics != nil {
		h.router.Handle("/metrics", promhttp.HandlerFor(h.metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	var handler http.Handler = h.router
	handler = middleware.CorsMiddleware(cfg.Domain)(handler)
	handler = handlers.ProxyHeaders(handler)
	handler = handlers.RecoveryHandler(handlers.RecoveryLogger(&recoverLogger{h.logger}))(handler)

	h.srv = &http.Server{
		Addr:              ":" + strconv.FormatUint(uint64(cfg.Port), 10),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return nil
}

func (h *HTTPServiceDefault) Serve(_ context.Context) error {
	ln, err := net.Listen("tcp", h.srv.Addr)
	if err != nil {
		return err
	}

	h.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))

	go func() {
		err := h.srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Fatal("Failed to serve", zap.Error(err))
		}
	}()

	return nil
}
