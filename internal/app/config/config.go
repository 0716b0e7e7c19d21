package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	FileStoreProviderS3    = "s3"
	FileStoreProviderMinio = "minio"

	DefaultBucketName    = "clothing-images-ecom"
	DefaultRegion        = "us-east-1"
	DefaultStorageDomain = "s3.amazonaws.com"

	defaultHTTPAddr  = ":5555"
	defaultDebugAddr = ":5556"

	defaultPutTimeout      = 30 * time.Second
	defaultMaxBodySize     = 10 << 20 // 10 MiB
	defaultServiceName     = "s3-uploader"
	defaultJaegerAgentPort = "6831"
)

// Environment variables recognized on top of the config file.
const (
	EnvBucketName      = "BUCKET_NAME"
	EnvRegion          = "AWS_REGION"
	EnvAccessKeyID     = "AWS_ACCESS_KEY"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvSessionToken    = "AWS_SESSION_TOKEN"
	EnvS3Endpoint      = "S3_ENDPOINT"

	EnvJaegerAgentHost     = "JAEGER_AGENT_HOST"
	EnvJaegerAgentPort     = "JAEGER_AGENT_PORT"
	EnvTracingServiceName  = "TRACING_SERVICE_NAME"
	EnvTracingSamplerParam = "TRACING_SAMPLER_PARAM"
)

type Config struct {
	Server    *Server    `yaml:"server"`
	FileStore *FileStore `yaml:"file_store"`
	Handlers  *Handlers  `yaml:"handlers"`
	Tracing   *Tracing   `yaml:"tracing"`
}

type CORS struct {
	AllowedOrigins     []string `yaml:"allowed_origins"`
	AllowedMethods     []string `yaml:"allowed_methods"`
	AllowedHeaders     []string `yaml:"allowed_headers"`
	ExposedHeaders     []string `yaml:"exposed_headers"`
	AllowCredentials   bool     `yaml:"allow_credentials"`
	MaxAge             int      `yaml:"max_age"`
	OptionsPassthrough bool     `yaml:"options_passthrough"`
}

type (
	RateLimiter struct {
		RatePerSec   int  `yaml:"rate_per_sec"`
		MaxBurst     int  `yaml:"max_burst"`
		StoreMaxKeys int  `yaml:"store_max_keys"`
		PerHandler   bool `yaml:"per_handler"`
	}

	ClientToRateLimiter map[string]RateLimiter

	ApiRateLimiters struct {
		Default        RateLimiter         `yaml:"default"`
		SpecialClients ClientToRateLimiter `yaml:"special_clients"`
	}

	ApiToRateLimiters map[string]ApiRateLimiters
)

type Server struct {
	DebugAddr             string            `yaml:"debug_addr"`
	HTTPAddr              string            `yaml:"http_addr"`
	CORS                  *CORS             `yaml:"cors"`
	HTTPReadHeaderTimeout time.Duration     `yaml:"http_read_header_timeout"`
	HTTPReadTimeout       time.Duration     `yaml:"http_read_timeout"`
	HTTPWriteTimeout      time.Duration     `yaml:"http_write_timeout"`
	RateLimiters          ApiToRateLimiters `yaml:"rate_limiters"`
	// MaxInflightUploads caps concurrent uploads per client, 0 disables the cap.
	MaxInflightUploads int `yaml:"max_inflight_uploads"`
	// TrustedProxies lists IPs or CIDRs allowed to set X-Forwarded-For.
	// Requests from other addresses are keyed by their remote address.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type S3 struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	DisableSSL      bool   `yaml:"disable_ssl"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

type FileStore struct {
	Provider   string        `yaml:"provider"` // "s3" or "minio"
	BucketName string        `yaml:"bucket_name"`
	PutTimeout time.Duration `yaml:"put_timeout"`
	// StorageDomain is the host suffix of public object URLs:
	// https://<bucket>.<storage_domain>/<key>.
	StorageDomain string `yaml:"storage_domain"`
	// PublicURLPrefix replaces the bucket-host URL scheme when set:
	// <public_url_prefix>/<key>.
	PublicURLPrefix string `yaml:"public_url_prefix"`
	S3              S3     `yaml:"s3"`
}

type Upload struct {
	MaxBodySize int64 `yaml:"max_body_size"`
	// ClientErrorsAsBadRequest answers malformed uploads with 4xx instead
	// of 500.
	ClientErrorsAsBadRequest bool `yaml:"client_errors_as_bad_request"`
}

type Handlers struct {
	Upload Upload `yaml:"upload"`
}

type TracingJaeger struct {
	AgentHost string `yaml:"agent_host"`
	AgentPort string `yaml:"agent_port"`
}

type TracingSampler struct {
	Param float64 `yaml:"param"`
}

type Tracing struct {
	ServiceName string         `yaml:"service_name"`
	Jaeger      TracingJaeger  `yaml:"jaeger"`
	Sampler     TracingSampler `yaml:"sampler"`
}

// FromFile parse config from config path.
func FromFile(cfgPath string) (Config, error) {
	cfgBytes, err := os.ReadFile(cfgPath) //nolint:gosec
	if err != nil {
		return Config{}, fmt.Errorf("error reading file: %s", err)
	}

	cfg, err := parse(cfgBytes)
	if err != nil {
		return Config{}, fmt.Errorf("error parsing file: %s", err)
	}

	return prepare(cfg)
}

// FromEnv builds config with defaults and environment overrides only.
func FromEnv() (Config, error) {
	return prepare(Config{})
}

func prepare(cfg Config) (Config, error) {
	setDefaults(&cfg)
	applyEnv(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server == nil {
		cfg.Server = &Server{}
	}
	if cfg.FileStore == nil {
		cfg.FileStore = &FileStore{}
	}
	if cfg.Handlers == nil {
		cfg.Handlers = &Handlers{}
	}

	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = defaultHTTPAddr
	}
	if cfg.Server.DebugAddr == "" {
		cfg.Server.DebugAddr = defaultDebugAddr
	}

	fs := cfg.FileStore
	if fs.Provider == "" {
		fs.Provider = FileStoreProviderS3
	}
	if fs.BucketName == "" {
		fs.BucketName = DefaultBucketName
	}
	if fs.PutTimeout <= 0 {
		fs.PutTimeout = defaultPutTimeout
	}
	if fs.StorageDomain == "" {
		fs.StorageDomain = DefaultStorageDomain
	}
	if fs.S3.Region == "" {
		fs.S3.Region = DefaultRegion
	}

	if cfg.Handlers.Upload.MaxBodySize <= 0 {
		cfg.Handlers.Upload.MaxBodySize = defaultMaxBodySize
	}

	if cfg.Tracing != nil {
		if cfg.Tracing.ServiceName == "" {
			cfg.Tracing.ServiceName = defaultServiceName
		}
		if cfg.Tracing.Jaeger.AgentPort == "" {
			cfg.Tracing.Jaeger.AgentPort = defaultJaegerAgentPort
		}
	}
}

// applyEnv overrides file values with non-empty environment variables.
func applyEnv(cfg *Config) {
	fs := cfg.FileStore
	overrideFromEnv(&fs.BucketName, EnvBucketName)
	overrideFromEnv(&fs.S3.Region, EnvRegion)
	overrideFromEnv(&fs.S3.AccessKeyID, EnvAccessKeyID)
	overrideFromEnv(&fs.S3.SecretAccessKey, EnvSecretAccessKey)
	overrideFromEnv(&fs.S3.SessionToken, EnvSessionToken)
	overrideFromEnv(&fs.S3.Endpoint, EnvS3Endpoint)

	if cfg.Tracing == nil && os.Getenv(EnvJaegerAgentHost) != "" {
		cfg.Tracing = &Tracing{
			ServiceName: defaultServiceName,
			Jaeger: TracingJaeger{
				AgentPort: defaultJaegerAgentPort,
			},
			Sampler: TracingSampler{Param: 1},
		}
	}
	if cfg.Tracing != nil {
		overrideFromEnv(&cfg.Tracing.Jaeger.AgentHost, EnvJaegerAgentHost)
		overrideFromEnv(&cfg.Tracing.Jaeger.AgentPort, EnvJaegerAgentPort)
		overrideFromEnv(&cfg.Tracing.ServiceName, EnvTracingServiceName)
		if v := os.Getenv(EnvTracingSamplerParam); v != "" {
			if param, err := strconv.ParseFloat(v, 64); err == nil {
				cfg.Tracing.Sampler.Param = param
			}
		}
	}
}

func overrideFromEnv(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func validate(cfg Config) error {
	fs := cfg.FileStore
	switch fs.Provider {
	case FileStoreProviderS3:
	case FileStoreProviderMinio:
		if fs.S3.Endpoint == "" {
			return errors.New("file_store.s3.endpoint is required for minio provider")
		}
	default:
		return fmt.Errorf(
			"invalid value for file_store.provider: %q. Allowed values are %q or %q",
			fs.Provider, FileStoreProviderS3, FileStoreProviderMinio,
		)
	}

	if (fs.S3.AccessKeyID == "") != (fs.S3.SecretAccessKey == "") {
		return errors.New("file_store.s3: access_key_id and secret_access_key must be set together")
	}

	if cfg.Server.MaxInflightUploads < 0 {
		return errors.New("server.max_inflight_uploads must be non-negative")
	}

	return nil
}

func parse(cfg []byte) (Config, error) {
	result := Config{}

	decoder := yaml.NewDecoder(bytes.NewReader(cfg))
	decoder.KnownFields(true)

	// empty file is a valid config with defaults only
	if err := decoder.Decode(&result); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}

	return result, nil
}
