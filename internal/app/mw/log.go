package mw

import (
	"context"
	"strings"
	"time"

	"github.com/ozontech/s3-uploader/tracing"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var nonLogHeaders = map[string]struct{}{
	"authorization":        {},
	"cookie":               {},
	"x-amz-security-token": {},
}

// arrStr wrapper for []string logging.
type arrStr []string

// MarshalLogArray called when arrStr object is passed to zap.Array.
func (o arrStr) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, item := range o {
		enc.AppendString(item)
	}
	return nil
}

// mapStrArrStr wrapper for map[string][]string logging.
type mapStrArrStr map[string]arrStr

// MarshalLogObject called when mapStrArrStr object is passed to zap.Object.
func (o mapStrArrStr) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	for key, val := range o {
		_ = enc.AddArray(key, val)
	}
	return nil
}

// prepareHeaderMapForLog drops credentials from header map and returns
// it in zap-marshalable form.
func prepareHeaderMapForLog(header map[string][]string) mapStrArrStr {
	hMap := mapStrArrStr{}
	for key, val := range header {
		lkey := strings.ToLower(key)
		if _, has := nonLogHeaders[lkey]; has {
			continue
		}
		hMap[key] = val
	}
	return hMap
}

type requestLogArgs struct {
	component     string
	header        map[string][]string
	fullMethod    string
	contentLength int64
	statusCode    string
	took          time.Duration
	clientError   string
	serverError   string
	client        string
}

// logRequestBeforeHandler logs incoming request before the handler call.
// Request body is never logged, only its declared length.
func logRequestBeforeHandler(ctx context.Context, logger *tracing.Logger, args requestLogArgs) {
	processedHeader := prepareHeaderMapForLog(args.header)
	logArgs := []zap.Field{
		zap.String("component", args.component),
		zap.Object("header", processedHeader),
		zap.String("full_method", args.fullMethod),
		zap.Int64("content_length", args.contentLength),
	}
	if args.client != "" {
		logArgs = append(logArgs, zap.String("client", args.client))
	}
	logger.Info(ctx, "incoming request", logArgs...)
}

// logRequestAfterHandler logs request processing results after handler call.
// It can be linked with the incoming request log via request_id or trace_id.
//
// Depending on the status code the log level is set to:
//
// * Info - no errors
//
// * Warning - client errors (status code 4xx)
//
// * Error - server errors (status code 5xx).
func logRequestAfterHandler(ctx context.Context, logger *tracing.Logger, args requestLogArgs) {
	logArgs := []zap.Field{
		zap.String("component", args.component),
		zap.String("full_method", args.fullMethod),
		zap.String("status_code", args.statusCode),
		zap.String("took", args.took.String()),
	}
	if args.client != "" {
		logArgs = append(logArgs, zap.String("client", args.client))
	}

	switch {
	case args.clientError != "":
		logArgs = append(logArgs, zap.String("client_error", args.clientError))
		logger.Warn(ctx, "client error occurred", logArgs...)
	case args.serverError != "":
		logArgs = append(logArgs, zap.String("server_error", args.serverError))
		logger.Error(ctx, "server error occurred", logArgs...)
	default:
		logger.Info(ctx, "successful request", logArgs...)
	}
}
