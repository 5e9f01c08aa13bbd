package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// streamBacklog is the number of recent events kept for Last-Event-ID
	// replay.
	streamBacklog = 256

	// streamKeepalive is how often a comment line is sent to idle clients.
	streamKeepalive = 15 * time.Second
)

// streamEvent is one published event as sent to stream clients.
type streamEvent struct {
	ID    uint64
	Topic string
	Data  []byte
}

// eventHub fans published events out to connected stream clients and keeps a
// bounded backlog for reconnection.
type eventHub struct {
	mu      sync.Mutex
	nextID  uint64
	backlog []streamEvent // oldest first, at most streamBacklog entries
	clients map[*streamClient]struct{}
}

type streamClient struct {
	topics []string
	ch     chan streamEvent
}

func newEventHub() *eventHub {
	return &eventHub{clients: make(map[*streamClient]struct{})}
}

func (h *eventHub) broadcast(topic string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	evt := streamEvent{ID: h.nextID, Topic: topic, Data: data}
	if len(h.backlog) == streamBacklog {
		copy(h.backlog, h.backlog[1:])
		h.backlog = h.backlog[:streamBacklog-1]
	}
	h.backlog = append(h.backlog, evt)

	for c := range h.clients {
		if !c.wants(topic) {
			continue
		}
		select {
		case c.ch <- evt:
		default:
			// Slow client; it can catch up with Last-Event-ID.
		}
	}
}

// subscribe registers a client and returns the backlog after lastID that
// matches its topics. Registration and replay happen under one lock so no
// event is missed or delivered twice.
func (h *eventHub) subscribe(topics []string, lastID uint64) (*streamClient, []streamEvent) {
	c := &streamClient{topics: topics, ch: make(chan streamEvent, 64)}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}

	var replay []streamEvent
	if lastID > 0 {
		for _, evt := range h.backlog {
			if evt.ID > lastID && c.wants(evt.Topic) {
				replay = append(replay, evt)
			}
		}
	}
	return c, replay
}

func (h *eventHub) unsubscribe(c *streamClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (c *streamClient) wants(topic string) bool {
	if len(c.topics) == 0 {
		return true
	}
	for _, p := range c.topics {
		if matchTopic(p, topic) {
			return true
		}
	}
	return false
}

// matchTopic matches a dot-separated topic against a NATS-style pattern:
// "*" matches one segment and a trailing ">" matches one or more.
func matchTopic(pattern, topic string) bool {
	pp := strings.Split(pattern, ".")
	tp := strings.Split(topic, ".")
	for i, seg := range pp {
		if seg == ">" && i == len(pp)-1 {
			return len(tp) > i
		}
		if i >= len(tp) || (seg != "*" && seg != tp[i]) {
			return false
		}
	}
	return len(pp) == len(tp)
}

// handleEventStream handles GET /api/v1/events/stream as server-sent events.
// ?topics= takes a comma-separated list of patterns.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	var topics []string
	for _, t := range strings.Split(r.URL.Query().Get("topics"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	lastID, _ := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)

	client, replay := s.hub.subscribe(topics, lastID)
	defer s.hub.unsubscribe(client)

	// Streams outlive the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	for _, evt := range replay {
		writeStreamEvent(w, evt)
	}
	if err := rc.Flush(); err != nil {
		s.logger.Warn("event stream not supported", "error", err)
		return
	}

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-client.ch:
			writeStreamEvent(w, evt)
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeStreamEvent(w io.Writer, evt streamEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", evt.ID, evt.Topic, evt.Data)
}
