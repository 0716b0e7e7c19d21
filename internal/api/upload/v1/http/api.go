package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/ozontech/s3-uploader/internal/app/config"
	"github.com/ozontech/s3-uploader/internal/pkg/service/upload"
	"github.com/ozontech/s3-uploader/logger"
	"github.com/ozontech/s3-uploader/tracing"
)

type API struct {
	service upload.Service
	logger  *tracing.Logger

	maxBodySize              int64
	clientErrorsAsBadRequest bool
}

func New(svc upload.Service, cfg config.Upload) *API {
	return &API{
		service:                  svc,
		logger:                   tracing.NewLogger(logger.Instance),
		maxBodySize:              cfg.MaxBodySize,
		clientErrorsAsBadRequest: cfg.ClientErrorsAsBadRequest,
	}
}

func (a *API) Router() chi.Router {
	mux := chi.NewMux()

	mux.Post("/", a.serveUpload)
	mux.Post("/file", a.serveUpload)

	return mux
}
