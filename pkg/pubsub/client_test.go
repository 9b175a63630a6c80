package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/citypulse-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "city"}
	cases := map[string]string{
		"":                             "",
		"  ":                           "",
		"notifications":                "projects/city/topics/notifications",
		"projects/other/topics/alerts": "projects/other/topics/alerts",
		" citypulse-notifications ":    "projects/city/topics/citypulse-notifications",
	}
	for in, want := range cases {
		if got := c.topicResourceName(in); got != want {
			t.Fatalf("topicResourceName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	if _, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{}, nil); err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
}

func TestNilPublisherErrors(t *testing.T) {
	var p *TopicPublisher
	if _, err := p.Publish(context.Background(), []byte("x"), nil); err == nil {
		t.Fatal("expected error from nil publisher")
	}
	p.Stop()
}
