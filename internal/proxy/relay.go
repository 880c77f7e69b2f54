package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-news-desk/internal/domain"
	"github.com/samvad-hq/samvad-news-desk/internal/logger"
	"github.com/samvad-hq/samvad-news-desk/pkg/httpclient"
)

// ErrUpstream marks failures to reach the agent at all (transport errors, timeouts).
var ErrUpstream = errors.New("agent request failed")

// Result is what the desk relays back to its caller.
type Result struct {
	// Body is valid JSON: the agent's body verbatim, or a synthesized ErrorPayload.
	Body json.RawMessage
	// Relayed is false when Body was synthesized because the agent's text was not JSON.
	Relayed        bool
	UpstreamStatus int
}

// Relay forwards topics to the configured agent URL.
type Relay struct {
	client   httpclient.Client
	agentURL string
	log      logger.Logger
}

// NewRelay builds a relay for agentURL.
func NewRelay(client httpclient.Client, agentURL string, log logger.Logger) (*Relay, error) {
	if client == nil {
		return nil, fmt.Errorf("http client must not be nil")
	}
	agentURL = strings.TrimSpace(agentURL)
	if agentURL == "" {
		return nil, fmt.Errorf("agent url must not be empty")
	}
	return &Relay{client: client, agentURL: agentURL, log: logger.Ensure(log)}, nil
}

// Generate posts {"topic": topic} to the agent and reads the reply as text. The
// agent's status code is not interpreted: whatever it sent is relayed if it parses.
func (r *Relay) Generate(ctx context.Context, topic string) (Result, error) {
	start := time.Now()
	resp, err := r.client.PostJSON(ctx, r.agentURL, nil, domain.GenerateRequest{Topic: topic})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	text := resp.Body()
	meta := map[string]any{
		"topic":           topic,
		"upstream_status": resp.StatusCode(),
		"body_bytes":      len(text),
		"elapsed_ms":      time.Since(start).Milliseconds(),
	}

	if json.Valid(text) {
		r.log.InfoObj("agent response relayed", "relay_meta", meta)
		return Result{Body: json.RawMessage(text), Relayed: true, UpstreamStatus: resp.StatusCode()}, nil
	}

	meta["body_snippet"] = snippet(text)
	r.log.WarnObj("agent returned non-JSON body", "relay_meta", meta)

	synth, err := invalidJSONPayload(text)
	if err != nil {
		return Result{}, err
	}
	return Result{Body: synth, UpstreamStatus: resp.StatusCode()}, nil
}

// invalidJSONPayload wraps the raw agent text. html is always present, even when empty,
// and markup is not escaped so callers see the text exactly as the agent sent it.
func invalidJSONPayload(text []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	payload := struct {
		Error string `json:"error"`
		HTML  string `json:"html"`
	}{Error: domain.MsgInvalidUpstreamJSON, HTML: string(text)}
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("encode error payload: %w", err)
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func snippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if r := []rune(s); len(r) > maxLen {
		return string(r[:maxLen]) + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
