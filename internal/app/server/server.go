package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ozontech/s3-uploader/internal/api"
	"github.com/ozontech/s3-uploader/internal/app/config"
	"github.com/ozontech/s3-uploader/internal/app/mw"
	"github.com/ozontech/s3-uploader/internal/app/tokenlimiter"
)

// Server contains application dependencies.
type Server struct {
	config      *config.Server
	debugServer *http.Server
	httpServer  *http.Server

	rateLimiters    map[string]map[string]mw.RateLimiter // rate limiter by api and client
	inflightLimiter *tokenlimiter.Limiter
	trustedProxies  mw.TrustedProxies
}

// New returns a new Server.
func New(ctx context.Context, cfg *config.Server, registrar *api.Registrar) (*Server, error) {
	s := &Server{config: cfg}

	if err := s.init(ctx, registrar); err != nil {
		return nil, fmt.Errorf("init server: %w", err)
	}

	return s, nil
}
