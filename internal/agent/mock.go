package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MockLLM answers every stage with canned, topic-shaped output. It needs no network
// and keeps local runs of the whole stack deterministic.
type MockLLM struct{}

func (MockLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch prompt.Stage {
	case StagePlanner:
		topic := strings.TrimSpace(prompt.Topic)
		if topic == "" {
			topic = "the news"
		}
		plan := Plan{
			Title:    "What to know about " + topic,
			Subtitle: "A briefing on " + topic,
			SEO:      "Key facts and context on " + topic + ".",
			Sections: []string{"Background", "Latest developments", "What comes next"},
		}
		out, err := json.Marshal(plan)
		if err != nil {
			return "", err
		}
		return string(out), nil

	case StageWriter:
		var plan Plan
		_ = decodeFinalJSON(prompt.User, &plan)
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\n_%s_\n\n", plan.Title, plan.Subtitle)
		for _, s := range plan.Sections {
			fmt.Fprintf(&b, "## %s\n\n%s is covered here in brief.\n\n", s, s)
		}
		return b.String(), nil

	case StageEditor:
		md := prompt.User
		if i := strings.Index(md, "\n\n"); i >= 0 {
			md = md[i+2:]
		}
		sections := SplitSections(md)
		edited := EditedArticle{Sections: sections}
		if len(sections) > 0 && sections[0].Heading != introHeading {
			edited.Title = sections[0].Heading
			edited.Subtitle = strings.Trim(sections[0].Content, "_")
			edited.Sections = sections[1:]
		}
		out, err := json.Marshal(edited)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	return "", fmt.Errorf("mock llm: unknown stage %q", prompt.Stage)
}
