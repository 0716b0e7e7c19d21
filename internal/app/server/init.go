package server

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/ozontech/s3-uploader/internal/api"
	"github.com/ozontech/s3-uploader/internal/app/mw"
	"github.com/ozontech/s3-uploader/internal/app/tokenlimiter"
	"github.com/ozontech/s3-uploader/logger"
	"github.com/ozontech/s3-uploader/tracing"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	defaultCORSAllowedOrigins = "*"
	maxHTTPHeaderBytes        = 1 << 12 // 4 KiB
)

var (
	defaultCORSAllowedMethods = []string{"HEAD", "GET", "POST", "OPTIONS"}
	defaultCORSExposedHeaders = []string{mw.RequestIDHeader}
)

func (s *Server) init(ctx context.Context, registrar *api.Registrar) error {
	if err := s.prepareRateLimiters(); err != nil {
		return err
	}

	trustedProxies, err := mw.ParseTrustedProxies(s.config.TrustedProxies)
	if err != nil {
		return fmt.Errorf("server.trusted_proxies: %w", err)
	}
	s.trustedProxies = trustedProxies

	if s.config.MaxInflightUploads > 0 {
		s.inflightLimiter = tokenlimiter.New(s.config.MaxInflightUploads)
	}

	s.prepareHTTPServer(ctx, registrar)

	s.prepareDebugServer(ctx)

	return nil
}

// setupCORS applies CORS policies set in config to the provided mux.
func (s *Server) setupCORS(mux *chi.Mux) {
	allowedOrigins := s.config.CORS.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = append(allowedOrigins, defaultCORSAllowedOrigins)
	}
	allowedMethods := s.config.CORS.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = append(allowedMethods, defaultCORSAllowedMethods...)
	}
	exposedHeaders := s.config.CORS.ExposedHeaders
	if len(exposedHeaders) == 0 {
		exposedHeaders = append(exposedHeaders, defaultCORSExposedHeaders...)
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:     allowedOrigins,
		AllowedMethods:     allowedMethods,
		AllowedHeaders:     s.config.CORS.AllowedHeaders,
		ExposedHeaders:     exposedHeaders,
		AllowCredentials:   s.config.CORS.AllowCredentials,
		MaxAge:             s.config.CORS.MaxAge,
		OptionsPassthrough: s.config.CORS.OptionsPassthrough,
	}))
}

// prepareRateLimiters prepares requests rate limiters based on server config.
func (s *Server) prepareRateLimiters() error {
	if len(s.config.RateLimiters) == 0 {
		return nil
	}

	s.rateLimiters = make(map[string]map[string]mw.RateLimiter)

	for apiName, rateLimiters := range s.config.RateLimiters {
		s.rateLimiters[apiName] = make(map[string]mw.RateLimiter)

		logger.Info("init default rate limiter", zap.String("api", apiName))
		defaultLimiter, err := mw.NewRateLimiter(apiName, rateLimiters.Default)
		if err != nil {
			return fmt.Errorf("init default rate limiter: %w", err)
		}

		s.rateLimiters[apiName][mw.RateLimiterDefaultClient] = defaultLimiter

		for client, rateLimiter := range rateLimiters.SpecialClients {
			logger.Info(
				"init client rate limiter",
				zap.String("api", apiName),
				zap.String("client", client),
			)
			limiter, err := mw.NewRateLimiter(apiName, rateLimiter)
			if err != nil {
				return fmt.Errorf("init client %q rate limiter: %w", client, err)
			}

			s.rateLimiters[apiName][client] = limiter
		}
	}

	return nil
}

// prepareHTTPServer prepares HTTP server with applied CORS policies and added interceptors.
func (s *Server) prepareHTTPServer(ctx context.Context, registrar *api.Registrar) {
	s.httpServer = s.makeHTTPServer(ctx, s.newHTTPMux(registrar))
}

func (s *Server) newHTTPMux(registrar *api.Registrar) *chi.Mux {
	mux := chi.NewMux()
	if s.config.CORS != nil {
		s.setupCORS(mux)
	}
	interceptors := chi.Middlewares{
		mw.HTTPNotFoundInterceptor(),
		mw.HTTPRecoverInterceptor(),
		mw.HTTPRequestIDInterceptor(),
		mw.HTTPClientKeyInterceptor(s.trustedProxies),
		mw.HTTPMetricInterceptor(),
		mw.HTTPTraceInterceptor(),
		mw.HTTPLogInterceptor(tracing.NewLogger(logger.Instance)),
	}
	if len(s.rateLimiters) > 0 {
		interceptors = append(interceptors, mw.HTTPRateLimitInterceptor(s.rateLimiters))
	}
	if s.inflightLimiter != nil {
		interceptors = append(interceptors, mw.HTTPInflightLimitInterceptor(s.inflightLimiter))
	}
	mux.Use(interceptors...)

	registrar.RegisterHTTPHandlers(mux)

	return mux
}

// prepareDebugServer prepares debug HTTP server with metrics, health and pprof handlers.
func (s *Server) prepareDebugServer(ctx context.Context) {
	s.debugServer = s.makeHTTPServer(ctx, newDebugMux())
}

func newDebugMux() *chi.Mux {
	mux := chi.NewMux()
	mux.Use(mw.HTTPRecoverInterceptor())
	mux.Handle("/metrics", promhttp.Handler())
	serveHealth(mux)
	servePprof(mux)
	return mux
}

// makeHTTPServer makes HTTP server from provided mux.
func (s *Server) makeHTTPServer(ctx context.Context, mux *chi.Mux) *http.Server {
	return &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: s.config.HTTPReadHeaderTimeout,
		ReadTimeout:       s.config.HTTPReadTimeout,
		WriteTimeout:      s.config.HTTPWriteTimeout,
		MaxHeaderBytes:    maxHTTPHeaderBytes, // 4 KiB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
}
