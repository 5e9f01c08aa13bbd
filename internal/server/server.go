package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/alfredjeanlab/devcamper/internal/events"
	"github.com/alfredjeanlab/devcamper/internal/geocode"
	"github.com/alfredjeanlab/devcamper/internal/metrics"
	"github.com/alfredjeanlab/devcamper/internal/query"
	"github.com/alfredjeanlab/devcamper/internal/store"
	"github.com/alfredjeanlab/devcamper/internal/upload"
)

// DefaultMaxUploadBytes caps photo uploads when Options leaves it unset.
const DefaultMaxUploadBytes = 1000000

// Options carries the collaborators of a Server. Nil fields get working
// defaults: no events, no geocoding, no uploads.
type Options struct {
	Publisher events.Publisher
	Builder   *query.Builder
	Uploads   upload.Destination
	Geocoder  geocode.Geocoder
	Metrics   *metrics.Metrics
	Logger    *slog.Logger

	MaxUploadBytes     int64
	AuthToken          string
	CORSOrigins        []string
	RateLimitPerMinute int
	RateLimitBurst     int
}

// Server implements the devcamper HTTP API on top of an injected store.
type Server struct {
	store     store.Store
	publisher events.Publisher
	builder   *query.Builder
	uploads   upload.Destination
	geocoder  geocode.Geocoder
	metrics   *metrics.Metrics
	logger    *slog.Logger
	hub       *eventHub

	maxUploadBytes int64
	authToken      string
	corsOrigins    []string
	ratePerMinute  int
	rateBurst      int
}

// New returns a Server backed by s.
func New(s store.Store, opts Options) *Server {
	srv := &Server{
		store:          s,
		publisher:      opts.Publisher,
		builder:        opts.Builder,
		uploads:        opts.Uploads,
		geocoder:       opts.Geocoder,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		hub:            newEventHub(),
		maxUploadBytes: opts.MaxUploadBytes,
		authToken:      opts.AuthToken,
		corsOrigins:    opts.CORSOrigins,
		ratePerMinute:  opts.RateLimitPerMinute,
		rateBurst:      opts.RateLimitBurst,
	}
	if srv.logger == nil {
		srv.logger = slog.Default()
	}
	if srv.publisher == nil {
		srv.publisher = events.NoopPublisher{}
	}
	if srv.builder == nil {
		srv.builder = query.NewBuilder(query.WithLogger(srv.logger))
	}
	if srv.geocoder == nil {
		srv.geocoder = geocode.Disabled{}
	}
	if srv.maxUploadBytes <= 0 {
		srv.maxUploadBytes = DefaultMaxUploadBytes
	}
	return srv
}

// publish sends an event to NATS and to connected stream clients. Both are
// best-effort; failures are logged and never reach the caller.
func (s *Server) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "error", err)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event for stream", "topic", topic, "error", err)
		return
	}
	s.hub.broadcast(topic, payload)
}
