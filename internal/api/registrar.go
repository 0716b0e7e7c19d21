// Package api S3 Uploader Server.
//
//	@title		S3 Uploader Server
//	@version	1.0
//
//	@accept		multipart/form-data
//	@produce	json
package api

import (
	"github.com/go-chi/chi/v5"
	upload_v1_api "github.com/ozontech/s3-uploader/internal/api/upload/v1"
)

// Registrar is registrar of HTTP handlers.
type Registrar struct {
	uploadV1 *upload_v1_api.Upload
}

// NewRegistrar returns new registrar instance.
func NewRegistrar(uploadV1 *upload_v1_api.Upload) *Registrar {
	return &Registrar{
		uploadV1: uploadV1,
	}
}

// RegisterHTTPHandlers registers all handlers for mux.
func (r *Registrar) RegisterHTTPHandlers(mux *chi.Mux) {
	if r.uploadV1 != nil {
		mux.Mount("/upload/v1", r.uploadV1.HTTPRouter())
	}
}
