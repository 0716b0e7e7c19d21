package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	for _, name := range []string{
		EnvBucketName, EnvRegion, EnvAccessKeyID, EnvSecretAccessKey,
		EnvSessionToken, EnvS3Endpoint, EnvJaegerAgentHost, EnvJaegerAgentPort,
		EnvTracingServiceName, EnvTracingSamplerParam,
	} {
		t.Setenv(name, "")
	}
}

func TestFromFileDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromFile(writeConfig(t, "server:\n  http_addr: \":8080\"\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, defaultDebugAddr, cfg.Server.DebugAddr)
	assert.Equal(t, FileStoreProviderS3, cfg.FileStore.Provider)
	assert.Equal(t, DefaultBucketName, cfg.FileStore.BucketName)
	assert.Equal(t, DefaultRegion, cfg.FileStore.S3.Region)
	assert.Equal(t, DefaultStorageDomain, cfg.FileStore.StorageDomain)
	assert.Equal(t, defaultPutTimeout, cfg.FileStore.PutTimeout)
	assert.Equal(t, int64(defaultMaxBodySize), cfg.Handlers.Upload.MaxBodySize)
	assert.False(t, cfg.Handlers.Upload.ClientErrorsAsBadRequest)
	assert.Nil(t, cfg.Tracing)
}

func TestFromFileExample(t *testing.T) {
	clearEnv(t)

	cfg, err := FromFile(filepath.Join("..", "..", "..", "config", "config.example.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Server.MaxInflightUploads)
	assert.Equal(t, []string{"10.0.0.1", "172.16.0.0/12"}, cfg.Server.TrustedProxies)
	assert.Equal(t, 10, cfg.Server.RateLimiters["upload"].Default.RatePerSec)
	assert.Equal(t, 100, cfg.Server.RateLimiters["upload"].SpecialClients["10.0.0.10"].RatePerSec)
	assert.Equal(t, 30*time.Second, cfg.FileStore.PutTimeout)
}

func TestFromFileEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBucketName, "my-bucket")
	t.Setenv(EnvRegion, "eu-west-1")
	t.Setenv(EnvAccessKeyID, "AKID")
	t.Setenv(EnvSecretAccessKey, "SECRET")
	t.Setenv(EnvJaegerAgentHost, "jaeger")
	t.Setenv(EnvTracingSamplerParam, "0.5")

	cfg, err := FromFile(writeConfig(t, "file_store:\n  bucket_name: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, "my-bucket", cfg.FileStore.BucketName)
	assert.Equal(t, "eu-west-1", cfg.FileStore.S3.Region)
	assert.Equal(t, "AKID", cfg.FileStore.S3.AccessKeyID)
	assert.Equal(t, "SECRET", cfg.FileStore.S3.SecretAccessKey)

	require.NotNil(t, cfg.Tracing)
	assert.Equal(t, "jaeger", cfg.Tracing.Jaeger.AgentHost)
	assert.Equal(t, defaultJaegerAgentPort, cfg.Tracing.Jaeger.AgentPort)
	assert.Equal(t, 0.5, cfg.Tracing.Sampler.Param)
}

func TestFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBucketName, "lambda-bucket")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "lambda-bucket", cfg.FileStore.BucketName)
	assert.Equal(t, FileStoreProviderS3, cfg.FileStore.Provider)
	assert.NotNil(t, cfg.Server)
	assert.NotNil(t, cfg.Handlers)
}

func TestFromFileErrors(t *testing.T) {
	tCases := []struct {
		name string
		data string
	}{
		{
			name: "err_unknown_field",
			data: "server:\n  grpc_addr: \":9090\"\n",
		},
		{
			name: "err_invalid_provider",
			data: "file_store:\n  provider: gcs\n",
		},
		{
			name: "err_minio_without_endpoint",
			data: "file_store:\n  provider: minio\n",
		},
		{
			name: "err_half_credentials",
			data: "file_store:\n  s3:\n    access_key_id: AKID\n",
		},
		{
			name: "err_negative_inflight",
			data: "server:\n  max_inflight_uploads: -1\n",
		},
	}

	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			clearEnv(t)

			_, err := FromFile(writeConfig(t, tCase.data))
			require.Error(t, err)
		})
	}

	_, err := FromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
