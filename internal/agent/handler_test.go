package agent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samvad-hq/samvad-news-desk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	article  domain.AgentArticle
	err      error
	topics   []string
	deadline bool
}

func (f *fakeGenerator) Run(ctx context.Context, topic string) (domain.AgentArticle, error) {
	f.topics = append(f.topics, topic)
	_, f.deadline = ctx.Deadline()
	return f.article, f.err
}

func serve(t *testing.T, h *Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.Register(e)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGenerateHandlerSuccess(t *testing.T) {
	gen := &fakeGenerator{article: domain.AgentArticle{
		Topic:          "monsoon",
		Title:          "Rains return",
		SEODescription: "Rain facts",
		Sections:       []domain.Section{{Heading: "A", Content: "a"}},
		Markdown:       "# Rains return",
	}}
	rec := serve(t, NewHandler(gen, time.Minute, nil), http.MethodPost, "/generate", `{"topic":"monsoon"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"topic":"monsoon","title":"Rains return","subtitle":"","seo_description":"Rain facts",
		"sections":[{"heading":"A","content":"a"}],"markdown":"# Rains return"}`, rec.Body.String())
	assert.Equal(t, []string{"monsoon"}, gen.topics)
	assert.True(t, gen.deadline, "pipeline context must carry the timeout")
}

func TestGenerateHandlerMissingTopic(t *testing.T) {
	gen := &fakeGenerator{}
	h := NewHandler(gen, 0, nil)

	for _, body := range []string{`{}`, `{"topic":"  "}`, `not json`} {
		rec := serve(t, h, http.MethodPost, "/generate", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"topic is required"}`, rec.Body.String(), body)
	}
	assert.Empty(t, gen.topics)
}

func TestGenerateHandlerPipelineError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("writer completion: quota exceeded")}
	rec := serve(t, NewHandler(gen, 0, nil), http.MethodPost, "/generate", `{"topic":"monsoon"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"writer completion: quota exceeded"}`, rec.Body.String())
}

func TestAgentHealth(t *testing.T) {
	rec := serve(t, NewHandler(&fakeGenerator{}, 0, nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}
