package lambda

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/ozontech/s3-uploader/internal/api/httputil"
	"github.com/ozontech/s3-uploader/internal/app/config"
	"github.com/ozontech/s3-uploader/internal/app/types"
	"github.com/ozontech/s3-uploader/internal/pkg/service/upload"
	"github.com/ozontech/s3-uploader/logger"
	"github.com/ozontech/s3-uploader/metric"
	"github.com/ozontech/s3-uploader/tracing"
	"go.uber.org/zap"
)

const (
	component  = "lambda"
	methodName = "upload_v1_upload"
)

// API serves upload requests delivered as API Gateway proxy events.
type API struct {
	service upload.Service
	logger  *tracing.Logger

	clientErrorsAsBadRequest bool
}

func New(svc upload.Service, cfg config.Upload) *API {
	return &API{
		service:                  svc,
		logger:                   tracing.NewLogger(logger.Instance),
		clientErrorsAsBadRequest: cfg.ClientErrorsAsBadRequest,
	}
}

// Handle never returns an error: every failure is reported in the response.
func (a *API) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()

	if reqID := event.RequestContext.RequestID; reqID != "" {
		ctx = context.WithValue(ctx, types.RequestIDKey{}, reqID)
	}

	ctx, span := tracing.StartSpan(ctx, methodName)
	defer span.End()

	metric.ServerRequestReceived.WithLabelValues(component, methodName).Inc()

	res, err := a.service.Upload(ctx, types.UploadRequest{
		Headers:         eventHeaders(event),
		Body:            []byte(event.Body),
		IsBase64Encoded: event.IsBase64Encoded,
	})
	if err != nil {
		a.logger.Error(ctx, "upload failed",
			zap.String("error_kind", types.KindOf(err).String()),
			zap.Error(err),
		)
	} else {
		a.logger.Info(ctx, "file uploaded",
			zap.String("filename", res.Filename),
			zap.Int("size", res.Size),
			zap.String("url", res.URL),
		)
	}

	status, body := httputil.MarshalResult(res, err, a.clientErrorsAsBadRequest)
	metric.HandledIncomingRequest(ctx, component, methodName, http.StatusText(status), time.Since(start))

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    httputil.ResponseHeaders(),
		Body:       string(body),
	}, nil
}

// eventHeaders prefers single-value headers and falls back to the
// multi-value form some integrations send exclusively.
func eventHeaders(event events.APIGatewayProxyRequest) types.Headers {
	if len(event.Headers) > 0 {
		return types.NewHeaders(event.Headers)
	}
	return types.NewHeadersFromMulti(event.MultiValueHeaders)
}
