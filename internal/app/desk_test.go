package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-news-desk/internal/config"
	"github.com/samvad-hq/samvad-news-desk/pkg/publishers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deskConfig(agentURL string) *config.Config {
	return &config.Config{
		AppName:      "desk-test",
		HTTPAddr:     ":0",
		AgentURL:     agentURL,
		AgentTimeout: 2 * time.Second,
	}
}

func postTopic(t *testing.T, d *Desk, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	d.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewDeskRequiresAgentURL(t *testing.T) {
	_, err := NewDesk(context.Background(), deskConfig(""), nil)
	require.Error(t, err)
}

func TestDeskRelaysAgentResponse(t *testing.T) {
	gotTopic := make(chan string, 1)
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotTopic <- req["topic"]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"Rains return","sections":[]}`))
	}))
	defer agent.Close()

	desk, err := NewDesk(context.Background(), deskConfig(agent.URL), nil)
	require.NoError(t, err)

	rec := postTopic(t, desk, `{"topic":"monsoon"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"title":"Rains return","sections":[]}`, rec.Body.String())
	assert.Equal(t, "monsoon", <-gotTopic)

	rec = httptest.NewRecorder()
	desk.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestDeskWrapsNonJSONAgentReply(t *testing.T) {
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>Bad Gateway</html>"))
	}))
	defer agent.Close()

	desk, err := NewDesk(context.Background(), deskConfig(agent.URL), nil)
	require.NoError(t, err)

	rec := postTopic(t, desk, `{"topic":"monsoon"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"Cloud Run did not return valid JSON","html":"<html>Bad Gateway</html>"}`, rec.Body.String())
}

func TestDeskUnreachableAgent(t *testing.T) {
	agent := httptest.NewServer(http.NotFoundHandler())
	url := agent.URL
	agent.Close()

	desk, err := NewDesk(context.Background(), deskConfig(url), nil)
	require.NoError(t, err)

	rec := postTopic(t, desk, `{"topic":"monsoon"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to generate article"}`, rec.Body.String())
}

func TestDeskAnnouncesToHTTPPublisher(t *testing.T) {
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"title":"Rains return","sections":[{"heading":"Forecast","content":"Showers"}]}`))
	}))
	defer agent.Close()

	var (
		mu     sync.Mutex
		events []publishers.Event
	)
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt publishers.Event
		_ = json.NewDecoder(r.Body).Decode(&evt)
		mu.Lock()
		events = append(events, evt)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer sink.Close()

	path := filepath.Join(t.TempDir(), "publishers.yaml")
	raw := "publishers:\n  - id: sink\n    type: http\n    http:\n      url: " + sink.URL + "\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg := deskConfig(agent.URL)
	cfg.PublishersFile = path
	desk, err := NewDesk(context.Background(), cfg, nil)
	require.NoError(t, err)

	rec := postTopic(t, desk, `{"topic":"monsoon"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, "monsoon", events[0].Topic)
	assert.Equal(t, "Rains return", events[0].Article.Title)
}
