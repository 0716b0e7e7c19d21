package mw

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/ozontech/s3-uploader/logger"
	"github.com/ozontech/s3-uploader/metric"
	"go.uber.org/zap"
)

var errUnexpected = errors.New("recover: unexpected server error")

// handleRecover logs the recovered value with stack trace and returns
// the error reported to the client.
func handleRecover(method string, recoverVal any) error {
	metric.ServerRequestPanics.Inc()
	var err error
	switch x := recoverVal.(type) {
	case string:
		err = errors.New(x)
	case error:
		err = x
	default:
		err = fmt.Errorf("unknown panic: %v", x)
	}
	logger.Error("recovered after panic",
		zap.String("method", method),
		zap.String("stack_trace", string(debug.Stack())),
		zap.Error(err),
	)
	return errUnexpected
}
