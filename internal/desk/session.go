package desk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-news-desk/internal/domain"
	"github.com/samvad-hq/samvad-news-desk/internal/logger"
	"github.com/samvad-hq/samvad-news-desk/pkg/httpclient"
)

var (
	// ErrEmptyTopic is returned without any network call when the topic is blank.
	ErrEmptyTopic = errors.New("topic is empty")
	// ErrInFlight is returned while a previous Generate has not finished.
	ErrInFlight = errors.New("generation already in progress")
	// ErrRequestFailed wraps transport failures talking to the desk.
	ErrRequestFailed = errors.New("generate request failed")
)

// ResponseError is a generation response that carried an error field.
type ResponseError struct {
	Message string
	HTML    string
	// Summary is a short plain-text rendering of HTML, empty when there was none.
	Summary string
}

func (e *ResponseError) Error() string {
	if e.Summary != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Summary)
	}
	return e.Message
}

// Session is one user's view of the desk: the current topic, the loading flag, the
// latest article and the history of everything generated since it was created.
// Nothing is persisted.
type Session struct {
	client   httpclient.Client
	endpoint string
	log      logger.Logger

	mu      sync.Mutex
	topic   string
	loading bool
	latest  *domain.Article
	history []domain.Article
	err     error
}

// NewSession returns a session posting to endpoint, the desk's /api/generate URL.
func NewSession(client httpclient.Client, endpoint string, log logger.Logger) (*Session, error) {
	if client == nil {
		return nil, fmt.Errorf("http client must not be nil")
	}
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("desk endpoint must not be empty")
	}
	return &Session{client: client, endpoint: endpoint, log: logger.Ensure(log)}, nil
}

func (s *Session) SetTopic(topic string) {
	s.mu.Lock()
	s.topic = topic
	s.mu.Unlock()
}

// Generate requests an article for the current topic. Only one call may be in
// flight; the loading flag is cleared on every path.
func (s *Session) Generate(ctx context.Context) (domain.Article, error) {
	s.mu.Lock()
	topic := strings.TrimSpace(s.topic)
	if topic == "" {
		s.mu.Unlock()
		return domain.Article{}, ErrEmptyTopic
	}
	if s.loading {
		s.mu.Unlock()
		return domain.Article{}, ErrInFlight
	}
	s.loading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	start := time.Now()
	resp, err := s.client.PostJSON(ctx, s.endpoint, nil, domain.GenerateRequest{Topic: topic})
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRequestFailed, err)
		s.fail(err)
		s.log.ErrorObj("generate request failed", "generate_error", map[string]any{
			"topic": topic,
			"error": err.Error(),
		})
		return domain.Article{}, err
	}

	article, payload := domain.NormalizeArticle(topic, resp.Body())
	if payload != nil {
		respErr := &ResponseError{
			Message: payload.Error,
			HTML:    payload.HTML,
			Summary: SummarizeHTML(payload.HTML),
		}
		s.fail(respErr)
		s.log.WarnObj("generate returned an error", "generate_error", map[string]any{
			"topic":  topic,
			"status": resp.StatusCode(),
			"error":  respErr.Error(),
		})
		return domain.Article{}, respErr
	}

	s.mu.Lock()
	s.latest = &article
	s.history = append([]domain.Article{article}, s.history...)
	s.err = nil
	s.mu.Unlock()

	s.log.InfoObj("article generated", "generate_meta", map[string]any{
		"topic":      topic,
		"title":      article.Title,
		"sections":   len(article.Sections),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return article, nil
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.latest = nil
	s.err = err
	s.mu.Unlock()
}

func (s *Session) Topic() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topic
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Latest returns the most recent article, if the last generation succeeded.
func (s *Session) Latest() (domain.Article, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return domain.Article{}, false
	}
	return *s.latest, true
}

// History returns a copy of every generated article, most recent first.
func (s *Session) History() []domain.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Article, len(s.history))
	copy(out, s.history)
	return out
}

// Err returns the error of the last generation, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
