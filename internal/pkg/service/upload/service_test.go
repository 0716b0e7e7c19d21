package upload

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ozontech/s3-uploader/internal/app/config"
	"github.com/ozontech/s3-uploader/internal/app/types"
	"github.com/ozontech/s3-uploader/internal/pkg/filestore/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	testBucket = "clothing-images-ecom"
	testDomain = "s3.amazonaws.com"
)

var photoContent = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46}

func photoRequest() types.UploadRequest {
	body := "--XYZ\r\n" +
		"Content-Disposition: form-data; name=\"file\"; filename=\"photo.jpg\"\r\n" +
		"Content-Type: image/jpeg\r\n\r\n" +
		string(photoContent) +
		"\r\n--XYZ--\r\n"

	return types.UploadRequest{
		Headers: types.NewHeaders(map[string]string{"Content-Type": "multipart/form-data; boundary=XYZ"}),
		Body:    []byte(body),
	}
}

func newTestService(t *testing.T, putTimeout time.Duration) (Service, *mock.MockFileStore) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockFileStore(ctrl)
	store.EXPECT().Bucket().Return(testBucket).AnyTimes()

	return New(store, config.FileStore{
		PutTimeout:    putTimeout,
		StorageDomain: testDomain,
	}), store
}

func TestUpload(t *testing.T) {
	tCases := []struct {
		name string
		req  types.UploadRequest

		putErr      error
		expectPut   bool
		want        types.UploadResult
		wantErrKind types.ErrorKind
	}{
		{
			name:      "success",
			req:       photoRequest(),
			expectPut: true,
			want: types.UploadResult{
				Filename:    "photo.jpg",
				URL:         "https://clothing-images-ecom.s3.amazonaws.com/photo.jpg",
				Size:        len(photoContent),
				ContentType: "image/jpeg",
			},
		},
		{
			name:        "err_storage",
			req:         photoRequest(),
			expectPut:   true,
			putErr:      errors.New("AccessDenied: Access Denied"),
			wantErrKind: types.KindStorage,
		},
		{
			name: "err_missing_header",
			req: types.UploadRequest{
				Headers: types.NewHeaders(nil),
				Body:    photoRequest().Body,
			},
			wantErrKind: types.KindMissingHeader,
		},
		{
			name: "err_decoding",
			req: types.UploadRequest{
				Headers:         photoRequest().Headers,
				Body:            []byte("%%%"),
				IsBase64Encoded: true,
			},
			wantErrKind: types.KindDecoding,
		},
	}

	for _, tCase := range tCases {
		tCase := tCase
		t.Run(tCase.name, func(t *testing.T) {
			t.Parallel()

			svc, store := newTestService(t, time.Second)
			if tCase.expectPut {
				store.EXPECT().
					Put(gomock.Any(), "photo.jpg", photoContent, "image/jpeg").
					Return(tCase.putErr).
					Times(1)
			}

			got, err := svc.Upload(context.Background(), tCase.req)
			if tCase.wantErrKind != types.KindUnknown {
				require.Error(t, err)
				assert.Equal(t, tCase.wantErrKind, types.KindOf(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tCase.want, got)
		})
	}
}

func TestUploadPutTimeout(t *testing.T) {
	svc, store := newTestService(t, 10*time.Millisecond)

	store.EXPECT().Put(gomock.Any(), "photo.jpg", gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ []byte, _ string) error {
			deadline, ok := ctx.Deadline()
			require.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, time.Second)

			<-ctx.Done()
			return ctx.Err()
		}).Times(1)

	_, err := svc.Upload(context.Background(), photoRequest())
	require.ErrorIs(t, err, types.ErrStorage)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestObjectURL(t *testing.T) {
	assert.Equal(t,
		"https://clothing-images-ecom.s3.amazonaws.com/photo.jpg",
		ObjectURL("clothing-images-ecom", "s3.amazonaws.com", "", "photo.jpg"),
	)
	assert.Equal(t,
		"http://localhost:9000/uploads/photo.jpg",
		ObjectURL("uploads", "s3.amazonaws.com", "http://localhost:9000/uploads/", "photo.jpg"),
	)
}
