package upload_v1

import (
	"github.com/go-chi/chi/v5"
	http_api "github.com/ozontech/s3-uploader/internal/api/upload/v1/http"
	lambda_api "github.com/ozontech/s3-uploader/internal/api/upload/v1/lambda"
	"github.com/ozontech/s3-uploader/internal/app/config"
	"github.com/ozontech/s3-uploader/internal/pkg/service/upload"
)

type Upload struct {
	httpAPI   *http_api.API
	lambdaAPI *lambda_api.API
}

func New(service upload.Service, cfg config.Upload) *Upload {
	return &Upload{
		httpAPI:   http_api.New(service, cfg),
		lambdaAPI: lambda_api.New(service, cfg),
	}
}

func (u *Upload) HTTPRouter() chi.Router {
	return u.httpAPI.Router()
}

func (u *Upload) LambdaHandler() *lambda_api.API {
	return u.lambdaAPI
}
