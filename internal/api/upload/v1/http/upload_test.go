package http

import (
	"bytes"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ozontech/s3-uploader/internal/api/httputil"
	"github.com/ozontech/s3-uploader/internal/app/config"
	"github.com/ozontech/s3-uploader/internal/pkg/filestore/mock"
	"github.com/ozontech/s3-uploader/internal/pkg/service/upload"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

const (
	testBucket  = "clothing-images-ecom"
	photoCT     = "multipart/form-data; boundary=XYZ"
	photoURL    = "https://clothing-images-ecom.s3.amazonaws.com/photo.jpg"
	successBody = `{"message":"File photo.jpg uploaded successfully","url":"` + photoURL + `"}`
)

var photoContent = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46}

func photoBody() []byte {
	var b bytes.Buffer
	b.WriteString("--XYZ\r\n")
	b.WriteString("Content-Disposition: form-data; name=\"file\"; filename=\"photo.jpg\"\r\n")
	b.WriteString("Content-Type: image/jpeg\r\n\r\n")
	b.Write(photoContent)
	b.WriteString("\r\n--XYZ--\r\n")
	return b.Bytes()
}

func wantHeaders() map[string]string {
	return httputil.ResponseHeaders()
}

func newTestAPI(t *testing.T, cfg config.Upload) (*API, *mock.MockFileStore) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockFileStore(ctrl)
	store.EXPECT().Bucket().Return(testBucket).AnyTimes()

	svc := upload.New(store, config.FileStore{
		StorageDomain: config.DefaultStorageDomain,
	})
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = 1 << 20
	}
	return New(svc, cfg), store
}

func TestServeUpload(t *testing.T) {
	type mockArgs struct {
		content []byte
		err     error
	}

	tCases := []struct {
		name    string
		cfg     config.Upload
		headers map[string]string
		body    []byte

		mockArgs   *mockArgs
		wantStatus int
		wantBody   string
	}{
		{
			name:       "ok",
			headers:    map[string]string{"Content-Type": photoCT},
			body:       photoBody(),
			mockArgs:   &mockArgs{content: photoContent},
			wantStatus: http.StatusOK,
			wantBody:   successBody,
		},
		{
			name: "ok_base64",
			headers: map[string]string{
				"Content-Type":              photoCT,
				"Content-Transfer-Encoding": "base64",
			},
			body:       []byte(base64.StdEncoding.EncodeToString(photoBody())),
			mockArgs:   &mockArgs{content: photoContent},
			wantStatus: http.StatusOK,
			wantBody:   successBody,
		},
		{
			name: "ok_base64_flag_header",
			headers: map[string]string{
				"Content-Type":        photoCT,
				"X-Is-Base64-Encoded": "True",
			},
			body:       []byte(base64.StdEncoding.EncodeToString(photoBody())),
			mockArgs:   &mockArgs{content: photoContent},
			wantStatus: http.StatusOK,
			wantBody:   successBody,
		},
		{
			name:       "err_storage",
			headers:    map[string]string{"Content-Type": photoCT},
			body:       photoBody(),
			mockArgs:   &mockArgs{content: photoContent, err: errors.New("AccessDenied")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"storage error: AccessDenied"}`,
		},
		{
			name:       "err_missing_header",
			body:       photoBody(),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"content-type header is missing"}`,
		},
		{
			name:       "err_missing_header_bad_request",
			cfg:        config.Upload{ClientErrorsAsBadRequest: true},
			body:       photoBody(),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"content-type header is missing"}`,
		},
		{
			name: "err_decoding",
			headers: map[string]string{
				"Content-Type":              photoCT,
				"Content-Transfer-Encoding": "base64",
			},
			body:       []byte("!!not base64!!"),
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "err_no_file",
			headers:    map[string]string{"Content-Type": photoCT},
			body:       []byte("--XYZ\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\nb\r\n--XYZ--\r\n"),
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "err_body_too_large",
			cfg:        config.Upload{MaxBodySize: 16},
			headers:    map[string]string{"Content-Type": photoCT},
			body:       photoBody(),
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "err_body_too_large_bad_request",
			cfg:        config.Upload{MaxBodySize: 16, ClientErrorsAsBadRequest: true},
			headers:    map[string]string{"Content-Type": photoCT},
			body:       photoBody(),
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tc := range tCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			api, store := newTestAPI(t, tc.cfg)
			if tc.mockArgs != nil {
				store.EXPECT().
					Put(gomock.Any(), "photo.jpg", tc.mockArgs.content, "image/jpeg").
					Return(tc.mockArgs.err).
					Times(1)
			}

			req := httptest.NewRequest(http.MethodPost, "/upload/v1/", bytes.NewReader(tc.body))
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			httputil.DoTestHTTP(t, httputil.TestDataHTTP{
				Req:             req,
				Handler:         api.serveUpload,
				WantStatus:      tc.wantStatus,
				WantRespBody:    tc.wantBody,
				WantRespHeaders: wantHeaders(),
			})
		})
	}
}

func TestRouter(t *testing.T) {
	tCases := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{
			name:       "root",
			method:     http.MethodPost,
			path:       "/",
			wantStatus: http.StatusOK,
		},
		{
			name:       "file",
			method:     http.MethodPost,
			path:       "/file",
			wantStatus: http.StatusOK,
		},
		{
			name:       "method_not_allowed",
			method:     http.MethodGet,
			path:       "/",
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tc := range tCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			api, store := newTestAPI(t, config.Upload{})
			if tc.wantStatus == http.StatusOK {
				store.EXPECT().Put(gomock.Any(), "photo.jpg", photoContent, "image/jpeg").Return(nil)
			}

			req := httptest.NewRequest(tc.method, tc.path, bytes.NewReader(photoBody()))
			req.Header.Set("Content-Type", photoCT)

			w := httptest.NewRecorder()
			api.Router().ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code, w.Body.String())
		})
	}
}
