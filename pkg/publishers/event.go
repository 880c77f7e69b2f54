package publishers

import (
	"time"

	"github.com/samvad-hq/samvad-news-desk/internal/domain"
)

// EventTypeArticleGenerated is the only event the desk emits.
const EventTypeArticleGenerated = "article.generated"

// Event represents the payload published downstream.
type Event struct {
	Type        string         `json:"type"`
	Topic       string         `json:"topic"`
	Article     domain.Article `json:"article"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// NewEvent constructs an article.generated Event for the given topic + article.
func NewEvent(topic string, article domain.Article) Event {
	return Event{
		Type:        EventTypeArticleGenerated,
		Topic:       topic,
		Article:     article,
		GeneratedAt: time.Now().UTC(),
	}
}

// attributes are the routing attributes attached to queue/topic messages.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_type": e.Type,
		"topic":      e.Topic,
	}
}
