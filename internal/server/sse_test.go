package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/devcamper/internal/events"
)

func TestEventHub_BroadcastAndReceive(t *testing.T) {
	hub := newEventHub()

	client, replay := hub.subscribe(nil, 0)
	defer hub.unsubscribe(client)
	if len(replay) != 0 {
		t.Fatalf("expected no replay, got %d", len(replay))
	}

	hub.broadcast(events.TopicBootcampCreated, []byte(`{"_id":"b1"}`))

	select {
	case evt := <-client.ch:
		if evt.Topic != events.TopicBootcampCreated || string(evt.Data) != `{"_id":"b1"}` || evt.ID != 1 {
			t.Fatalf("unexpected event %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEventHub_TopicFiltering(t *testing.T) {
	hub := newEventHub()

	client, _ := hub.subscribe([]string{"devcamper.course.*"}, 0)
	defer hub.unsubscribe(client)

	hub.broadcast(events.TopicBootcampCreated, []byte(`{}`))
	hub.broadcast(events.TopicCourseDeleted, []byte(`{}`))

	select {
	case evt := <-client.ch:
		if evt.Topic != events.TopicCourseDeleted {
			t.Fatalf("expected %q, got %q", events.TopicCourseDeleted, evt.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	select {
	case evt := <-client.ch:
		t.Fatalf("unexpected event %+v", evt)
	default:
	}
}

func TestEventHub_Replay(t *testing.T) {
	hub := newEventHub()
	for i := 0; i < 5; i++ {
		hub.broadcast(events.TopicCourseCreated, []byte(`{}`))
	}

	client, replay := hub.subscribe(nil, 3)
	defer hub.unsubscribe(client)
	if len(replay) != 2 || replay[0].ID != 4 || replay[1].ID != 5 {
		t.Fatalf("replay = %+v, want ids 4 and 5", replay)
	}
}

func TestEventHub_BacklogIsBounded(t *testing.T) {
	hub := newEventHub()
	for i := 0; i < streamBacklog+10; i++ {
		hub.broadcast(events.TopicCourseCreated, []byte(`{}`))
	}
	if len(hub.backlog) != streamBacklog {
		t.Fatalf("backlog = %d, want %d", len(hub.backlog), streamBacklog)
	}
	if hub.backlog[0].ID != 11 {
		t.Errorf("oldest id = %d, want 11", hub.backlog[0].ID)
	}
}

func TestMatchTopic(t *testing.T) {
	for _, tc := range []struct {
		pattern, topic string
		want           bool
	}{
		{"devcamper.bootcamp.created", "devcamper.bootcamp.created", true},
		{"devcamper.bootcamp.*", "devcamper.bootcamp.created", true},
		{"devcamper.bootcamp.*", "devcamper.course.created", false},
		{"devcamper.*", "devcamper.bootcamp.created", false},
		{"devcamper.>", "devcamper.bootcamp.created", true},
		{"devcamper.>", "devcamper", false},
		{"devcamper.bootcamp", "devcamper.bootcamp.created", false},
	} {
		if got := matchTopic(tc.pattern, tc.topic); got != tc.want {
			t.Errorf("matchTopic(%q, %q) = %v, want %v", tc.pattern, tc.topic, got, tc.want)
		}
	}
}

func TestHandleEventStream(t *testing.T) {
	srv := New(newMockStore(), Options{Logger: discardLogger()})
	ts := httptest.NewServer(srv.NewHTTPHandler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+APIPrefix+"/events/stream?topics=devcamper.course.>", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type = %q", ct)
	}

	// The subscription is registered before the headers are flushed.
	srv.publish(ctx, events.TopicBootcampDeleted, events.BootcampDeleted{BootcampID: "b1"})
	srv.publish(ctx, events.TopicCourseDeleted, events.CourseDeleted{CourseID: "c1", BootcampID: "b1"})

	sc := bufio.NewScanner(resp.Body)
	var lines []string
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	got := strings.Join(lines, "\n")
	want := "id:2\nevent:" + events.TopicCourseDeleted + "\ndata:" + `{"course_id":"c1","bootcamp_id":"b1"}`
	if got != want {
		t.Fatalf("event =\n%s\nwant\n%s", got, want)
	}
}
