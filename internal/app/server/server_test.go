package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ozontech/s3-uploader/internal/api"
	upload_v1 "github.com/ozontech/s3-uploader/internal/api/upload/v1"
	"github.com/ozontech/s3-uploader/internal/app/config"
	"github.com/ozontech/s3-uploader/internal/app/mw"
	"github.com/ozontech/s3-uploader/internal/pkg/filestore/mock"
	"github.com/ozontech/s3-uploader/internal/pkg/service/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const photoCT = "multipart/form-data; boundary=XYZ"

func photoBody() []byte {
	return []byte("--XYZ\r\n" +
		"Content-Disposition: form-data; name=\"file\"; filename=\"photo.jpg\"\r\n" +
		"Content-Type: image/jpeg\r\n\r\n" +
		"\xFF\xD8\xFF\xE0\x00\x10JFIF" +
		"\r\n--XYZ--\r\n")
}

func newTestServer(t *testing.T, cfg *config.Server) (*Server, *mock.MockFileStore) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockFileStore(ctrl)
	store.EXPECT().Bucket().Return(config.DefaultBucketName).AnyTimes()

	svc := upload.New(store, config.FileStore{StorageDomain: config.DefaultStorageDomain})
	registrar := api.NewRegistrar(upload_v1.New(svc, config.Upload{MaxBodySize: 1 << 20}))

	s, err := New(context.Background(), cfg, registrar)
	require.NoError(t, err)

	return s, store
}

func TestHTTPServer(t *testing.T) {
	s, store := newTestServer(t, &config.Server{
		CORS: &config.CORS{},
		RateLimiters: config.ApiToRateLimiters{
			"upload": {Default: config.RateLimiter{RatePerSec: 100, MaxBurst: 100}},
		},
		MaxInflightUploads: 2,
	})
	store.EXPECT().Put(gomock.Any(), "photo.jpg", gomock.Any(), "image/jpeg").Return(nil).Times(3)

	h := s.httpServer.Handler

	for _, path := range []string{"/upload/v1/", "/upload/v1", "/upload/v1/file"} {
		r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(photoBody()))
		r.Header.Set("Content-Type", photoCT)
		r.Header.Set("Origin", "https://shop.example.com")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"), path)
		assert.NotEmpty(t, w.Header().Get(mw.RequestIDHeader), path)
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"), path)
		assert.JSONEq(t,
			`{"message":"File photo.jpg uploaded successfully","url":"https://clothing-images-ecom.s3.amazonaws.com/photo.jpg"}`,
			w.Body.String(), path)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/unknown/v1/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 0, s.inflightLimiter.InUse("192.0.2.1"))
}

func TestInitInvalidRateLimiter(t *testing.T) {
	registrar := api.NewRegistrar(nil)

	_, err := New(context.Background(), &config.Server{
		RateLimiters: config.ApiToRateLimiters{
			"download": {Default: config.RateLimiter{RatePerSec: 1}},
		},
	}, registrar)
	require.Error(t, err)
}

func TestDebugServer(t *testing.T) {
	h := newDebugMux()

	for _, path := range []string{"/live", "/ready", "/metrics"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestInitInvalidTrustedProxies(t *testing.T) {
	_, err := New(context.Background(), &config.Server{
		TrustedProxies: []string{"not-an-ip"},
	}, api.NewRegistrar(nil))
	require.Error(t, err)
}
