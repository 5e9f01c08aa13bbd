package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DEVCAMPER"

// DefaultFile is the optional dotenv file read when no path is given.
const DefaultFile = "config/config.env"

// Backend names returned by Config.Backend.
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

type Config struct {
	Env          string // DEVCAMPER_ENV (default "development")
	HTTPAddr     string // DEVCAMPER_HTTP_ADDR (default ":5000")
	GRPCAddr     string // DEVCAMPER_GRPC_ADDR (optional, empty = no gRPC health)
	DatabaseURL  string // DEVCAMPER_DATABASE_URL (mongodb:// or postgres://)
	DatabaseName string // DEVCAMPER_DATABASE_NAME (MongoDB only)
	AuthToken    string // DEVCAMPER_AUTH_TOKEN (optional, empty = auth disabled)
	NATSURL      string // DEVCAMPER_NATS_URL (optional, empty = no events)

	LogLevel  string // DEVCAMPER_LOG_LEVEL (debug, info, warn, error)
	LogFormat string // DEVCAMPER_LOG_FORMAT (text, json, console)

	CORSOrigins        []string // DEVCAMPER_CORS_ORIGINS (comma separated)
	RateLimitPerMinute int      // DEVCAMPER_RATE_LIMIT_PER_MINUTE (0 = disabled)
	RateLimitBurst     int      // DEVCAMPER_RATE_LIMIT_BURST

	Query    QueryConfig
	Upload   UploadConfig
	Geocoder GeocoderConfig
}

type QueryConfig struct {
	DefaultLimit int           // DEVCAMPER_QUERY_DEFAULT_LIMIT
	MaxLimit     int           // DEVCAMPER_QUERY_MAX_LIMIT (0 = unbounded)
	Timeout      time.Duration // DEVCAMPER_QUERY_TIMEOUT
}

type UploadConfig struct {
	Dir        string // DEVCAMPER_UPLOAD_DIR
	MaxBytes   int64  // DEVCAMPER_UPLOAD_MAX_BYTES
	S3Bucket   string // DEVCAMPER_UPLOAD_S3_BUCKET (enables S3 when set)
	S3Region   string // DEVCAMPER_UPLOAD_S3_REGION
	S3Endpoint string // DEVCAMPER_UPLOAD_S3_ENDPOINT (custom endpoint for MinIO)
	S3Prefix   string // DEVCAMPER_UPLOAD_S3_PREFIX
}

type GeocoderConfig struct {
	Provider string // DEVCAMPER_GEOCODER_PROVIDER
	APIKey   string // DEVCAMPER_GEOCODER_API_KEY (empty = geocoding disabled)
}

var defaults = map[string]any{
	"env":                   "development",
	"http_addr":             ":5000",
	"grpc_addr":             "",
	"database_url":          "mongodb://localhost:27017/devcamper",
	"database_name":         "devcamper",
	"auth_token":            "",
	"nats_url":              "",
	"log_level":             "info",
	"log_format":            "text",
	"cors_origins":          "*",
	"rate_limit_per_minute": 0,
	"rate_limit_burst":      20,
	"query.default_limit":   25,
	"query.max_limit":       0,
	"query.timeout":         "10s",
	"upload.dir":            "./public/uploads",
	"upload.max_bytes":      1000000,
	"upload.s3_bucket":      "",
	"upload.s3_region":      "us-east-1",
	"upload.s3_endpoint":    "",
	"upload.s3_prefix":      "uploads/",
	"geocoder.provider":     "mapquest",
	"geocoder.api_key":      "",
}

// envName returns the environment variable that overrides key.
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load reads defaults, then the dotenv file at path, then the environment.
// An empty path reads DefaultFile when it exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	if err := readFile(v, path); err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(v.GetString("query.timeout"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", envName("query.timeout"), err)
	}

	c := &Config{
		Env:                v.GetString("env"),
		HTTPAddr:           v.GetString("http_addr"),
		GRPCAddr:           v.GetString("grpc_addr"),
		DatabaseURL:        v.GetString("database_url"),
		DatabaseName:       v.GetString("database_name"),
		AuthToken:          v.GetString("auth_token"),
		NATSURL:            v.GetString("nats_url"),
		LogLevel:           strings.ToLower(v.GetString("log_level")),
		LogFormat:          strings.ToLower(v.GetString("log_format")),
		CORSOrigins:        splitList(v.GetString("cors_origins")),
		RateLimitPerMinute: v.GetInt("rate_limit_per_minute"),
		RateLimitBurst:     v.GetInt("rate_limit_burst"),
		Query: QueryConfig{
			DefaultLimit: v.GetInt("query.default_limit"),
			MaxLimit:     v.GetInt("query.max_limit"),
			Timeout:      timeout,
		},
		Upload: UploadConfig{
			Dir:        v.GetString("upload.dir"),
			MaxBytes:   v.GetInt64("upload.max_bytes"),
			S3Bucket:   v.GetString("upload.s3_bucket"),
			S3Region:   v.GetString("upload.s3_region"),
			S3Endpoint: v.GetString("upload.s3_endpoint"),
			S3Prefix:   v.GetString("upload.s3_prefix"),
		},
		Geocoder: GeocoderConfig{
			Provider: strings.ToLower(v.GetString("geocoder.provider")),
			APIKey:   v.GetString("geocoder.api_key"),
		},
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// readFile loads a dotenv file whose keys use the same DEVCAMPER_* names as
// the environment. File values replace defaults, so the environment still wins.
func readFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config file: %w", err)
	}

	fv := viper.New()
	fv.SetConfigFile(path)
	fv.SetConfigType("env")
	if err := fv.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	for k := range defaults {
		name := strings.ToLower(envName(k))
		if fv.IsSet(name) {
			v.SetDefault(k, fv.Get(name))
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s is required", envName("database_url"))
	}
	if c.Backend() == "" {
		return fmt.Errorf("%s: unsupported scheme in %q (want mongodb or postgres)", envName("database_url"), redact(c.DatabaseURL))
	}
	switch c.LogFormat {
	case "text", "json", "console":
	default:
		return fmt.Errorf("%s: unknown format %q", envName("log_format"), c.LogFormat)
	}
	if c.Query.DefaultLimit <= 0 {
		return fmt.Errorf("%s must be positive", envName("query.default_limit"))
	}
	if c.Query.MaxLimit < 0 {
		return fmt.Errorf("%s must not be negative", envName("query.max_limit"))
	}
	if c.Query.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", envName("query.timeout"))
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("%s must be positive", envName("upload.max_bytes"))
	}
	if c.RateLimitPerMinute < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit settings must not be negative")
	}
	return nil
}

// Backend reports which store the database URL selects, or "" when the
// scheme is not supported.
func (c *Config) Backend() string {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "mongodb", "mongodb+srv":
		return BackendMongo
	case "postgres", "postgresql":
		return BackendPostgres
	}
	return ""
}

// IsProduction reports whether Env names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// RedactedDatabaseURL returns DatabaseURL with any password masked, for logs.
func (c *Config) RedactedDatabaseURL() string {
	return redact(c.DatabaseURL)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// redact hides the password of a connection URL.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}
