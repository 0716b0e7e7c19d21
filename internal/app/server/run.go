package server

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/ozontech/s3-uploader/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Run starts accepting new connections until the context is done.
func (s *Server) Run(ctx context.Context) error {
	errWg, ctx := errgroup.WithContext(ctx)

	// run HTTP server
	errWg.Go(func() error {
		l, err := net.Listen("tcp", s.config.HTTPAddr)
		if err != nil {
			return err
		}

		return s.httpServer.Serve(l)
	})

	// run debug server
	errWg.Go(func() error {
		l, err := net.Listen("tcp", s.config.DebugAddr)
		if err != nil {
			return err
		}

		return s.debugServer.Serve(l)
	})

	errWg.Go(func() error {
		logger.Info("app started",
			zap.String("http", s.config.HTTPAddr),
			zap.String("debug", s.config.DebugAddr),
		)
		return nil
	})

	// graceful shutdown
	errWg.Go(func() error {
		<-ctx.Done()

		s.stop()

		return nil
	})

	return errWg.Wait()
}

// Stop the HTTP and debug servers.
func (s *Server) stop() {
	var wg sync.WaitGroup

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for name, srv := range map[string]interface {
		Shutdown(context.Context) error
	}{
		"http":  s.httpServer,
		"debug": s.debugServer,
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("shutting down the "+name+" server", zap.Error(err))
			} else {
				logger.Warn(name + " server gracefully stopped")
			}
		}()
	}

	wg.Wait()
}
