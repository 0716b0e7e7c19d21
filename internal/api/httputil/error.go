package httputil

import (
	"fmt"
	"net/http"

	"github.com/ozontech/s3-uploader/internal/app/types"
)

type Error struct {
	Error string `json:"error"`
} // @name UploadError

type UploadResponse struct {
	Message string `json:"message"`
	URL     string `json:"url"`
} // @name UploadResponse

func NewUploadResponse(res types.UploadResult) UploadResponse {
	return UploadResponse{
		Message: fmt.Sprintf("File %s uploaded successfully", res.Filename),
		URL:     res.URL,
	}
}

// StatusFromKind maps error kind to response status. Every failure is 500
// unless clientErrorsAsBadRequest is set, then upload format errors become
// 400 and oversized bodies 413.
func StatusFromKind(kind types.ErrorKind, clientErrorsAsBadRequest bool) int {
	if !clientErrorsAsBadRequest || !kind.IsClientError() {
		return http.StatusInternalServerError
	}
	if kind == types.KindBodyTooLarge {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func ProcessError(w *Writer, err error, clientErrorsAsBadRequest bool) {
	if err == nil {
		return
	}
	w.Error(err, StatusFromKind(types.KindOf(err), clientErrorsAsBadRequest))
}

// MarshalResult renders the upload outcome as status code and JSON body.
func MarshalResult(res types.UploadResult, err error, clientErrorsAsBadRequest bool) (int, []byte) {
	status := http.StatusOK
	var data any = NewUploadResponse(res)
	if err != nil {
		status = StatusFromKind(types.KindOf(err), clientErrorsAsBadRequest)
		data = Error{Error: err.Error()}
	}

	body, mErr := json.Marshal(data)
	if mErr != nil {
		body, _ = json.Marshal(Error{Error: mErr.Error()})
		return http.StatusInternalServerError, body
	}
	return status, body
}
