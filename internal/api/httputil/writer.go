package httputil

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	headerContentType = "Content-Type"
	headerAllowOrigin = "Access-Control-Allow-Origin"

	contentTypeJSON = "application/json"
	allowAnyOrigin  = "*"
)

// ResponseHeaders are set on every upload response, successful or not.
func ResponseHeaders() map[string]string {
	return map[string]string{
		headerContentType: contentTypeJSON,
		headerAllowOrigin: allowAnyOrigin,
	}
}

type Writer struct {
	http.ResponseWriter
	ErrorMessage string
	StatusCode   int
}

func NewWriter(w http.ResponseWriter) *Writer {
	if ww, ok := w.(*Writer); ok {
		return ww
	}
	w.Header().Set(headerContentType, contentTypeJSON)
	return &Writer{ResponseWriter: w}
}

func (w *Writer) WriteHeader(statusCode int) {
	w.StatusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.StatusCode == 0 {
		w.StatusCode = http.StatusOK
	}
	return w.ResponseWriter.Write(p)
}

func (w *Writer) WriteJson(data any) {
	resp, err := json.Marshal(data)
	if err != nil {
		w.Error(err, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp)
}

func (w *Writer) Error(err error, code int) {
	msg := err.Error()
	resp, _ := json.Marshal(Error{
		Error: msg,
	})

	w.WriteHeader(code)
	_, _ = w.Write(resp)
	w.ErrorMessage = msg
}

// AllowAnyOrigin sets permissive CORS header on the response. Handlers
// call it directly so the header does not depend on the CORS middleware.
func (w *Writer) AllowAnyOrigin() {
	w.Header().Set(headerAllowOrigin, allowAnyOrigin)
}
