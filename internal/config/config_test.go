package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func clearAllEnv(t *testing.T) {
	t.Helper()
	for key := range defaults {
		t.Setenv(envName(key), "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearAllEnv(t)

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPAddr != ":5000" {
		t.Errorf("HTTPAddr = %q, want :5000", c.HTTPAddr)
	}
	if c.Backend() != BackendMongo {
		t.Errorf("Backend = %q, want %q", c.Backend(), BackendMongo)
	}
	if c.Query.DefaultLimit != 25 || c.Query.MaxLimit != 0 || c.Query.Timeout != 10*time.Second {
		t.Errorf("Query = %+v", c.Query)
	}
	if c.Upload.MaxBytes != 1000000 || c.Upload.S3Region != "us-east-1" {
		t.Errorf("Upload = %+v", c.Upload)
	}
	if !reflect.DeepEqual(c.CORSOrigins, []string{"*"}) {
		t.Errorf("CORSOrigins = %v", c.CORSOrigins)
	}
	if c.RateLimitBurst != 20 {
		t.Errorf("RateLimitBurst = %d, want 20", c.RateLimitBurst)
	}
	if c.IsProduction() {
		t.Error("default env should not be production")
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, c *Config)
	}{
		{
			name: "Postgres",
			env:  map[string]string{"DEVCAMPER_DATABASE_URL": "postgres://u:p@db:5432/devcamper?sslmode=disable"},
			check: func(t *testing.T, c *Config) {
				if c.Backend() != BackendPostgres {
					t.Errorf("Backend = %q", c.Backend())
				}
			},
		},
		{
			name: "NestedKeys",
			env: map[string]string{
				"DEVCAMPER_QUERY_DEFAULT_LIMIT": "10",
				"DEVCAMPER_QUERY_MAX_LIMIT":     "100",
				"DEVCAMPER_QUERY_TIMEOUT":       "2s",
				"DEVCAMPER_UPLOAD_S3_BUCKET":    "photos",
				"DEVCAMPER_GEOCODER_API_KEY":    "secret",
			},
			check: func(t *testing.T, c *Config) {
				want := QueryConfig{DefaultLimit: 10, MaxLimit: 100, Timeout: 2 * time.Second}
				if c.Query != want {
					t.Errorf("Query = %+v, want %+v", c.Query, want)
				}
				if c.Upload.S3Bucket != "photos" || c.Geocoder.APIKey != "secret" {
					t.Errorf("Upload = %+v, Geocoder = %+v", c.Upload, c.Geocoder)
				}
			},
		},
		{
			name: "CORSList",
			env:  map[string]string{"DEVCAMPER_CORS_ORIGINS": "https://a.example, https://b.example,"},
			check: func(t *testing.T, c *Config) {
				want := []string{"https://a.example", "https://b.example"}
				if !reflect.DeepEqual(c.CORSOrigins, want) {
					t.Errorf("CORSOrigins = %v, want %v", c.CORSOrigins, want)
				}
			},
		},
		{name: "UnsupportedScheme", env: map[string]string{"DEVCAMPER_DATABASE_URL": "mysql://localhost/db"}, wantErr: true},
		{name: "BadTimeout", env: map[string]string{"DEVCAMPER_QUERY_TIMEOUT": "soon"}, wantErr: true},
		{name: "ZeroDefaultLimit", env: map[string]string{"DEVCAMPER_QUERY_DEFAULT_LIMIT": "0"}, wantErr: true},
		{name: "NegativeMaxLimit", env: map[string]string{"DEVCAMPER_QUERY_MAX_LIMIT": "-1"}, wantErr: true},
		{name: "UnknownLogFormat", env: map[string]string{"DEVCAMPER_LOG_FORMAT": "xml"}, wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			c, err := Load("")
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tc.check(t, c)
		})
	}
}

func TestLoadFile(t *testing.T) {
	clearAllEnv(t)
	path := filepath.Join(t.TempDir(), "config.env")
	data := "DEVCAMPER_HTTP_ADDR=:7000\nDEVCAMPER_QUERY_DEFAULT_LIMIT=5\nDEVCAMPER_ENV=production\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	// The environment overrides the file.
	t.Setenv("DEVCAMPER_HTTP_ADDR", ":8000")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want :8000", c.HTTPAddr)
	}
	if c.Query.DefaultLimit != 5 {
		t.Errorf("DefaultLimit = %d, want 5", c.Query.DefaultLimit)
	}
	if !c.IsProduction() {
		t.Error("expected production env from file")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearAllEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestRedact(t *testing.T) {
	got := redact("postgres://user:hunter2@db/devcamper")
	if got != "postgres://user:xxxxx@db/devcamper" {
		t.Errorf("redact = %q", got)
	}
}
