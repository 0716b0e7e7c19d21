package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ozontech/s3-uploader/internal/api/httputil"
	"github.com/ozontech/s3-uploader/internal/app/types"
	"github.com/ozontech/s3-uploader/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	headerTransferEncoding = "Content-Transfer-Encoding"
	headerIsBase64Encoded  = "X-Is-Base64-Encoded"
)

// serveUpload go doc.
//
//	@Router		/upload/v1/ [post]
//	@ID			upload_v1_upload
//	@Tags		upload_v1
//	@Accept		multipart/form-data
//	@Param		file	formData	file					true	"Uploaded file"
//	@Success	200		{object}	httputil.UploadResponse	"A successful response"
//	@Failure	default	{object}	httputil.Error			"An unexpected error response"
func (a *API) serveUpload(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartSpan(r.Context(), "upload_v1_upload")
	defer span.End()

	wr := httputil.NewWriter(w)
	wr.AllowAnyOrigin()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.maxBodySize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			err = types.NewErrBodyTooLarge(maxBytesErr.Limit)
		} else {
			err = fmt.Errorf("read request body: %w", err)
		}
		a.processError(r, wr, err)
		return
	}

	req := types.UploadRequest{
		Headers:         types.NewHeadersFromMulti(r.Header),
		Body:            body,
		IsBase64Encoded: isBase64Encoded(r.Header),
	}

	span.SetAttributes(
		attribute.Int("body_size", len(body)),
		attribute.Bool("is_base64_encoded", req.IsBase64Encoded),
	)

	res, err := a.service.Upload(ctx, req)
	if err != nil {
		a.processError(r.WithContext(ctx), wr, err)
		return
	}

	a.logger.Info(ctx, "file uploaded",
		zap.String("filename", res.Filename),
		zap.Int("size", res.Size),
		zap.String("content_type", res.ContentType),
		zap.String("url", res.URL),
	)

	wr.WriteJson(httputil.NewUploadResponse(res))
}

func (a *API) processError(r *http.Request, wr *httputil.Writer, err error) {
	a.logger.Error(r.Context(), "upload failed",
		zap.String("error_kind", types.KindOf(err).String()),
		zap.Error(err),
	)
	httputil.ProcessError(wr, err, a.clientErrorsAsBadRequest)
}

func isBase64Encoded(h http.Header) bool {
	if strings.EqualFold(strings.TrimSpace(h.Get(headerTransferEncoding)), "base64") {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(h.Get(headerIsBase64Encoded)), "true")
}
