package events

import (
	"context"
	"encoding/json"
	"slices"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
)

// startTestNATS starts an embedded NATS server and returns its client URL.
func startTestNATS(t *testing.T) string {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

// newBus connects a publisher and a subscriber to a fresh embedded server.
func newBus(t *testing.T) (*NATSPublisher, *NATSSubscriber) {
	t.Helper()
	url := startTestNATS(t)
	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	t.Cleanup(func() { pub.Close() })
	sub, err := NewNATSSubscriber(url)
	if err != nil {
		t.Fatalf("creating subscriber: %v", err)
	}
	t.Cleanup(func() { sub.Close() })
	return pub, sub
}

// collect reads messages until n arrived or the wait expires.
func collect(ch <-chan Message, n int, wait time.Duration) []Message {
	var got []Message
	deadline := time.After(wait)
	for len(got) < n {
		select {
		case msg, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, msg)
		case <-deadline:
			return got
		}
	}
	return got
}

// writeEvents publishes one event of every topic, in declaration order.
func writeEvents(t *testing.T, pub *NATSPublisher) []string {
	t.Helper()
	ctx := context.Background()
	all := []struct {
		topic string
		event any
	}{
		{TopicBootcampCreated, BootcampCreated{}},
		{TopicBootcampUpdated, BootcampUpdated{}},
		{TopicBootcampPhotoUploaded, BootcampPhotoUploaded{BootcampID: "b1", Photo: "photo_b1.jpg"}},
		{TopicCourseCreated, CourseCreated{}},
		{TopicCourseUpdated, CourseUpdated{}},
		{TopicCourseDeleted, CourseDeleted{CourseID: "c1", BootcampID: "b1"}},
		{TopicBootcampDeleted, BootcampDeleted{BootcampID: "b1"}},
		{TopicUserRegistered, UserRegistered{UserID: "u1", Email: "john@gmail.com", Role: "publisher"}},
	}
	topics := make([]string, len(all))
	for i, e := range all {
		if err := pub.Publish(ctx, e.topic, e.event); err != nil {
			t.Fatalf("publishing %s: %v", e.topic, err)
		}
		topics[i] = e.topic
	}
	if err := pub.conn.Flush(); err != nil {
		t.Fatal(err)
	}
	return topics
}

func TestNATSSubscriber_TopicFamilies(t *testing.T) {
	for _, tc := range []struct {
		pattern string
		want    []string
	}{
		{"devcamper.bootcamp.>", []string{TopicBootcampCreated, TopicBootcampUpdated, TopicBootcampPhotoUploaded, TopicBootcampDeleted}},
		{"devcamper.course.>", []string{TopicCourseCreated, TopicCourseUpdated, TopicCourseDeleted}},
		{"devcamper.*.deleted", []string{TopicCourseDeleted, TopicBootcampDeleted}},
		{TopicUserRegistered, []string{TopicUserRegistered}},
	} {
		t.Run(tc.pattern, func(t *testing.T) {
			pub, sub := newBus(t)
			ch, cancel, err := sub.Subscribe(tc.pattern)
			if err != nil {
				t.Fatalf("subscribing: %v", err)
			}
			defer cancel()

			writeEvents(t, pub)
			got := collect(ch, len(tc.want)+1, 300*time.Millisecond)
			topics := make([]string, len(got))
			for i, m := range got {
				topics[i] = m.Topic
			}
			if !slices.Equal(topics, tc.want) {
				t.Errorf("topics = %v, want %v", topics, tc.want)
			}
		})
	}
}

func TestNATSSubscriber_TopicAllSeesEveryWrite(t *testing.T) {
	pub, sub := newBus(t)
	ch, cancel, err := sub.Subscribe(TopicAll)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer cancel()

	want := writeEvents(t, pub)
	got := collect(ch, len(want), 2*time.Second)
	if len(got) != len(want) {
		t.Fatalf("received %d messages, want %d", len(got), len(want))
	}
	for i, m := range got {
		if m.Topic != want[i] {
			t.Errorf("message %d topic = %q, want %q", i, m.Topic, want[i])
		}
	}
}

func TestNATSSubscriber_PayloadsDecode(t *testing.T) {
	pub, sub := newBus(t)
	ch, cancel, err := sub.Subscribe("devcamper.*.deleted")
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer cancel()

	writeEvents(t, pub)
	got := collect(ch, 2, 2*time.Second)
	if len(got) != 2 {
		t.Fatalf("received %d messages, want 2", len(got))
	}

	var course CourseDeleted
	if err := json.Unmarshal(got[0].Data, &course); err != nil {
		t.Fatalf("decoding %s: %v", got[0].Topic, err)
	}
	if course != (CourseDeleted{CourseID: "c1", BootcampID: "b1"}) {
		t.Errorf("course event = %+v", course)
	}
	var bootcamp BootcampDeleted
	if err := json.Unmarshal(got[1].Data, &bootcamp); err != nil {
		t.Fatalf("decoding %s: %v", got[1].Topic, err)
	}
	if bootcamp.BootcampID != "b1" {
		t.Errorf("bootcamp event = %+v", bootcamp)
	}
}

func TestNATSSubscriber_CancelClosesChannel(t *testing.T) {
	pub, sub := newBus(t)
	ch, cancel, err := sub.Subscribe(TopicAll)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 50 {
			_ = pub.Publish(context.Background(), TopicCourseCreated, CourseCreated{})
		}
		pub.conn.Flush()
	}()
	cancel()
	cancel()
	<-done

	for range ch {
	}
}

func TestNATSSubscriber_ImplementsSubscriber(t *testing.T) {
	var _ Subscriber = (*NATSSubscriber)(nil)
}
