package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samvad-hq/samvad-news-desk/pkg/publishers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	res    Result
	err    error
	topics []string
}

func (f *fakeGenerator) Generate(_ context.Context, topic string) (Result, error) {
	f.topics = append(f.topics, topic)
	return f.res, f.err
}

type fakePublisher struct {
	events []publishers.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.events = append(f.events, evt)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

func (f *fakePublisher) Size() int { return 1 }

type blockingPublisher struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingPublisher) Publish(ctx context.Context, _ publishers.Event) (int, error) {
	close(b.started)
	select {
	case <-b.release:
		return 1, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (b *blockingPublisher) Size() int { return 1 }

func serveGenerate(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h.Generate(c))
	return rec
}

func TestGenerateMissingTopic(t *testing.T) {
	gen := &fakeGenerator{}
	h := NewHandler(gen, nil, nil)

	for _, body := range []string{`{}`, `{"topic":""}`, `{"topic":42}`, `[]`, `"monsoon"`} {
		rec := serveGenerate(t, h, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"Topic is required"}`, rec.Body.String(), body)
	}
	assert.Empty(t, gen.topics, "agent must not be called without a topic")
}

func TestGenerateMalformedBody(t *testing.T) {
	gen := &fakeGenerator{}
	h := NewHandler(gen, nil, nil)

	for _, body := range []string{`{not json`, `null`} {
		rec := serveGenerate(t, h, body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, body)
		assert.JSONEq(t, `{"error":"Failed to generate article"}`, rec.Body.String(), body)
	}
	assert.Empty(t, gen.topics)
}

func TestGenerateUpstreamFailure(t *testing.T) {
	gen := &fakeGenerator{err: ErrUpstream}
	rec := serveGenerate(t, NewHandler(gen, nil, nil), `{"topic":"monsoon"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to generate article"}`, rec.Body.String())
}

func TestGenerateRelaysAndAnnounces(t *testing.T) {
	body := `{"title":"Rains return","subtitle":"","sections":[{"heading":"Forecast","content":"Showers"}]}`
	gen := &fakeGenerator{res: Result{Body: []byte(body), Relayed: true, UpstreamStatus: 200}}
	pub := &fakePublisher{}

	rec := serveGenerate(t, NewHandler(gen, pub, nil), `{"topic":"monsoon"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, body, rec.Body.String())
	require.Len(t, pub.events, 1)
	assert.Equal(t, publishers.EventTypeArticleGenerated, pub.events[0].Type)
	assert.Equal(t, "monsoon", pub.events[0].Topic)
	assert.Equal(t, "Rains return", pub.events[0].Article.Title)
}

func TestGenerateSkipsAnnouncementForErrors(t *testing.T) {
	cases := []Result{
		{Body: []byte(`{"error":"Cloud Run did not return valid JSON","html":"oops"}`)},
		{Body: []byte(`{"error":"model overloaded"}`), Relayed: true},
		{Body: []byte(`"plain markdown"`), Relayed: true},
	}
	for _, res := range cases {
		pub := &fakePublisher{}
		rec := serveGenerate(t, NewHandler(&fakeGenerator{res: res}, pub, nil), `{"topic":"x"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, string(res.Body), rec.Body.String())
		assert.Empty(t, pub.events, string(res.Body))
	}
}

func TestGeneratePublishFailureDoesNotAffectResponse(t *testing.T) {
	gen := &fakeGenerator{res: Result{Body: []byte(`{"title":"t"}`), Relayed: true}}
	pub := &fakePublisher{err: errors.New("sns down")}

	rec := serveGenerate(t, NewHandler(gen, pub, nil), `{"topic":"x"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"title":"t"}`, rec.Body.String())
	assert.Len(t, pub.events, 1)
}

func TestGenerateResponseCompleteBeforeAnnouncement(t *testing.T) {
	body := `{"title":"t","sections":[]}`
	gen := &fakeGenerator{res: Result{Body: []byte(body), Relayed: true}}
	pub := &blockingPublisher{started: make(chan struct{}), release: make(chan struct{})}

	e := echo.New()
	NewHandler(gen, pub, nil).Register(e)
	srv := httptest.NewServer(e)
	defer srv.Close()
	defer close(pub.release)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Post(srv.URL+"/api/generate", echo.MIMEApplicationJSON, strings.NewReader(`{"topic":"x"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "body must be readable while the announcement is still pending")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(len(body)), resp.ContentLength)
	assert.JSONEq(t, body, string(got))

	select {
	case <-pub.started:
	case <-time.After(2 * time.Second):
		t.Fatal("announcement never started")
	}
}

func TestHealthHandler(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	require.NoError(t, HealthHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}
