package server

import (
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hifi/internal/shared"
)

// HandlerOpts assembles the complete gateway handler.
type HandlerOpts struct {
	Config  shared.ServerConfig
	Gateway *Gateway
	Login   *LoginHandler // nil disables the login bridge
	Metrics *Metrics      // nil disables /metrics
	Logger  *log.Logger
}

// NewHandler mounts the gateway, login bridge, metrics endpoint and static client
// behind the middleware stack.
//
// Order, outermost first: logging, recovery, security headers, CORS, metrics.
func NewHandler(opts HandlerOpts) *BasicRouter {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	router := NewBasicRouter()
	router.Use(Logging(logger), Recovery(logger), SecurityHeaders, CORS(opts.Config.AllowedOrigins))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
		router.Handle(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	opts.Gateway.Register(router)
	if opts.Login != nil {
		router.Handler(opts.Login)
	}
	router.Handler(NewStaticHandler(opts.Config.StaticDir))

	return router
}
