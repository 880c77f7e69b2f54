package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-news-desk/internal/domain"
	"github.com/samvad-hq/samvad-news-desk/internal/logger"
)

// draftHeading labels the whole editor output when it cannot be structured.
const draftHeading = "Draft"

// Plan is the planner's outline of an article.
type Plan struct {
	Title    string   `json:"title" jsonschema_description:"Working headline for the article"`
	Subtitle string   `json:"subtitle" jsonschema_description:"One-sentence standfirst"`
	SEO      string   `json:"seo" jsonschema_description:"Meta description for search engines, under 160 characters"`
	Sections []string `json:"sections" jsonschema_description:"Ordered section titles"`
}

// EditedArticle is the editor's structured rendition of the written article.
type EditedArticle struct {
	Title    string           `json:"title"`
	Subtitle string           `json:"subtitle"`
	Sections []domain.Section `json:"sections"`
}

const (
	plannerSystem = "You are a content planner who creates structured plans for news articles."
	writerSystem  = "You are a journalist writing high-quality news articles in Markdown."
	editorSystem  = "You are an editor who turns articles into clean, structured JSON. " +
		"Return nothing except valid JSON. Do not include markdown, explanations, or commentary."
)

var (
	planSchema = &Schema{
		Name:        "article_plan",
		Description: "Outline of a news article",
		Value:       reflectSchema(Plan{}),
	}
	editSchema = &Schema{
		Name:        "edited_article",
		Description: "A news article split into headed sections",
		Value:       reflectSchema(EditedArticle{}),
	}
)

// Pipeline runs planner, writer and editor in sequence over one LLM.
type Pipeline struct {
	llm LLM
	log logger.Logger
}

func NewPipeline(llm LLM, log logger.Logger) (*Pipeline, error) {
	if llm == nil {
		return nil, errors.New("llm must not be nil")
	}
	return &Pipeline{llm: llm, log: logger.Ensure(log)}, nil
}

// Run generates an article for topic. Only LLM failures are errors; output that
// cannot be parsed degrades to fallbacks instead.
func (p *Pipeline) Run(ctx context.Context, topic string) (domain.AgentArticle, error) {
	start := time.Now()

	planText, err := p.llm.Complete(ctx, Prompt{
		Stage:  StagePlanner,
		Topic:  topic,
		System: plannerSystem,
		User: fmt.Sprintf("Plan a detailed news article about %q. Output JSON with: title, subtitle, "+
			"seo (a meta description) and sections (a list of section titles).", topic),
		Schema: planSchema,
	})
	if err != nil {
		return domain.AgentArticle{}, err
	}
	var plan Plan
	if err := decodeFinalJSON(planText, &plan); err != nil {
		p.log.WarnObj("planner output unstructured; writing from raw plan", "pipeline_meta", map[string]any{
			"topic": topic,
			"error": err.Error(),
		})
	}

	markdown, err := p.llm.Complete(ctx, Prompt{
		Stage:  StageWriter,
		Topic:  topic,
		System: writerSystem,
		User: "Write the full news article in Markdown from this content plan. Include the title, " +
			"subtitle and every section as a heading.\n\nTopic: " + topic + "\n\nPlan:\n" + planText,
	})
	if err != nil {
		return domain.AgentArticle{}, err
	}

	editText, err := p.llm.Complete(ctx, Prompt{
		Stage:  StageEditor,
		Topic:  topic,
		System: editorSystem,
		User: "Convert this Markdown article into a JSON object with title, subtitle and sections " +
			"(each with heading and content).\n\n" + markdown,
		Schema: editSchema,
	})
	if err != nil {
		return domain.AgentArticle{}, err
	}

	edited, structured := p.edit(topic, editText, markdown)

	article := domain.AgentArticle{
		Topic:          topic,
		Title:          firstNonEmpty(edited.Title, topic),
		Subtitle:       edited.Subtitle,
		SEODescription: plan.SEO,
		Sections:       edited.Sections,
		Markdown:       markdown,
	}
	if article.Sections == nil {
		article.Sections = []domain.Section{}
	}

	p.log.InfoObj("article generated", "pipeline_meta", map[string]any{
		"topic":      topic,
		"structured": structured,
		"sections":   len(article.Sections),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return article, nil
}

// edit parses the editor output. When it holds no JSON object the writer's markdown
// is split by headings; when that has no headings either, the editor output becomes
// a single draft section.
func (p *Pipeline) edit(topic, editText, markdown string) (EditedArticle, bool) {
	raw, err := ExtractFinalJSON(editText)
	if err == nil {
		var edited EditedArticle
		if err = json.Unmarshal(raw, &edited); err == nil {
			return edited, true
		}
	}
	p.log.WarnObj("editor output unstructured; falling back", "pipeline_meta", map[string]any{
		"topic": topic,
		"error": err.Error(),
	})

	if sections := SplitSections(markdown); len(sections) > 0 {
		return EditedArticle{Title: topic, Sections: sections}, false
	}
	return EditedArticle{
		Title:    topic,
		Sections: []domain.Section{{Heading: draftHeading, Content: strings.TrimSpace(editText)}},
	}, false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
