package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Timeout        time.Duration
	RateLimitRPS   float64 // per client IP on the calculator routes; 0 disables
	RateLimitBurst int

	// TrustProxyHeaders lets chi's RealIP rewrite RemoteAddr from
	// True-Client-IP, X-Real-IP or X-Forwarded-For. Enable only behind a
	// proxy that overwrites those headers; otherwise any client can pick
	// its own rate-limit key.
	TrustProxyHeaders bool
}

type Server struct {
	mux     *chi.Mux
	limiter *IPRateLimiter
}

func New(opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	m := chi.NewRouter()

	// All middlewares go here (before any routes are added)
	if opts.TrustProxyHeaders {
		m.Use(chimw.RealIP)
	}
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)       // chi's built-in recover
	m.Use(Timeout(opts.Timeout)) // timeout wrapper
	m.Use(Metrics)
	m.Use(Logger(log.Logger))

	s := &Server{mux: m}
	if opts.RateLimitRPS > 0 {
		s.limiter = NewIPRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
	}
	return s
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
