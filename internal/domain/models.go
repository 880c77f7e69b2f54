package domain

// Domain contains core models shared by the desk, the admin client and the agent.

// Public error messages. Callers match on these strings, so they are part of the wire contract.
const (
	MsgTopicRequired       = "Topic is required"
	MsgInvalidUpstreamJSON = "Cloud Run did not return valid JSON"
	MsgGenerateFailed      = "Failed to generate article"
)

// GenerateRequest is the body of a generation call, both at the desk and at the agent.
type GenerateRequest struct {
	Topic string `json:"topic"`
}

// ErrorPayload is the synthesized object returned when a hop fails. HTML carries the
// raw upstream text when it could not be parsed as JSON.
type ErrorPayload struct {
	Error string `json:"error"`
	HTML  string `json:"html,omitempty"`
}

type Section struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// Article is a generated article as the client view displays it.
type Article struct {
	Topic    string    `json:"topic"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Sections []Section `json:"sections"`
	Markdown string    `json:"markdown,omitempty"`
}

// AgentArticle is the response body of the agent service.
type AgentArticle struct {
	Topic          string    `json:"topic"`
	Title          string    `json:"title"`
	Subtitle       string    `json:"subtitle"`
	SEODescription string    `json:"seo_description"`
	Sections       []Section `json:"sections"`
	Markdown       string    `json:"markdown"`
}
