package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"oracleAMM/internal/amm"
)

const (
	maxBodyBytes          = 1 << 16
	defaultRequestTimeout = 15 * time.Second
)

// Config controls the HTTP surface of the engine.
type Config struct {
	JWTSecret      string
	JWTIssuer      string
	RatePerSecond  float64
	RateBurst      int
	RequestTimeout time.Duration
}

// Server exposes engine operations over JSON/HTTP. Mutating routes act on
// behalf of the authenticated token subject.
type Server struct {
	engine  *amm.Engine
	logger  *zap.Logger
	auth    *authenticator
	limiter *rateLimiter
	timeout time.Duration
}

func New(cfg Config, engine *amm.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Server{
		engine:  engine,
		logger:  logger,
		auth:    newAuthenticator(cfg.JWTSecret, cfg.JWTIssuer, logger),
		limiter: newRateLimiter(cfg.RatePerSecond, cfg.RateBurst),
		timeout: timeout,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/config", s.handleConfig)
		r.Get("/pairs/{tokenIn}/{tokenOut}", s.handleGetPair)
		r.Get("/pools/{token}", s.handleGetPool)
		r.Get("/pools/{token}/positions/{owner}", s.handleGetPosition)
		r.Get("/quote", s.handleQuote)
		r.Get("/protocol-fees/{token}", s.handleGetProtocolFees)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.middleware)
			r.Use(s.limiter.middleware)

			r.Post("/pairs", s.handleAddPair)
			r.Post("/pairs/toggle", s.handleTogglePair)
			r.Post("/liquidity/add", s.handleAddLiquidity)
			r.Post("/liquidity/remove", s.handleRemoveLiquidity)
			r.Post("/liquidity/remove-alternative", s.handleRemoveAlternative)
			r.Post("/swap", s.handleSwap)
			r.Post("/treasury", s.handleSetTreasury)
			r.Post("/protocol-fees/collect", s.handleCollectProtocolFees)
			r.Get("/snapshot", s.handleSnapshot)
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
