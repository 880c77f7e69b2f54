package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NormalizeArticle turns a generation response body into a display-ready Article.
// The body's shape is not fixed: a structured object, a bare JSON string holding
// markdown, or an error object are all accepted; a JSON null is a failure. A non-nil ErrorPayload means the
// response must be treated as a failure.
//
// Missing fields fall back the same way the admin page always has: title to the
// topic, subtitle to "", sections to none.
func NormalizeArticle(topic string, body []byte) (Article, *ErrorPayload) {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return Article{}, &ErrorPayload{Error: MsgInvalidUpstreamJSON}
	}

	art := Article{Topic: topic, Title: topic, Sections: []Section{}}

	switch v := data.(type) {
	case nil:
		return Article{}, &ErrorPayload{Error: MsgGenerateFailed}
	case string:
		art.Markdown = v
		return art, nil
	case map[string]any:
		if errVal, ok := v["error"]; ok && truthy(errVal) {
			payload := &ErrorPayload{Error: stringify(errVal)}
			if html, ok := v["html"].(string); ok {
				payload.HTML = html
			}
			return Article{}, payload
		}
		if s := nonEmptyString(v["title"]); s != "" {
			art.Title = s
		}
		art.Subtitle = nonEmptyString(v["subtitle"])
		art.Sections = decodeSections(v["sections"])
		art.Markdown = nonEmptyString(v["markdown"])
		return art, nil
	default:
		return art, nil
	}
}

// IsStructured reports whether body is a JSON object without a truthy error field.
func IsStructured(body []byte) bool {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return false
	}
	errVal, ok := obj["error"]
	return !ok || !truthy(errVal)
}

// decodeSections accepts [{heading, content}] as well as a plain list of headings.
func decodeSections(raw any) []Section {
	list, ok := raw.([]any)
	if !ok {
		return []Section{}
	}
	out := make([]Section, 0, len(list))
	for _, item := range list {
		switch s := item.(type) {
		case map[string]any:
			out = append(out, Section{
				Heading: nonEmptyString(s["heading"]),
				Content: nonEmptyString(s["content"]),
			})
		case string:
			out = append(out, Section{Heading: s})
		}
	}
	return out
}

func nonEmptyString(v any) string {
	s, _ := v.(string)
	return s
}

// truthy follows the loose truthiness the web client applied to the error field.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSpace(string(raw))
}
