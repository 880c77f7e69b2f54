package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samvad-hq/samvad-news-desk/internal/domain"
	"github.com/samvad-hq/samvad-news-desk/internal/logger"
	"github.com/samvad-hq/samvad-news-desk/pkg/publishers"
)

const defaultPublishTimeout = 10 * time.Second

// Generator produces a relayable result for a topic.
type Generator interface {
	Generate(ctx context.Context, topic string) (Result, error)
}

// EventPublisher announces generated articles downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
	Size() int
}

// Handler serves POST /api/generate.
type Handler struct {
	gen            Generator
	pub            EventPublisher
	log            logger.Logger
	publishTimeout time.Duration
}

// NewHandler wires the generate endpoint. pub may be nil to disable announcements.
func NewHandler(gen Generator, pub EventPublisher, log logger.Logger) *Handler {
	return &Handler{
		gen:            gen,
		pub:            pub,
		log:            logger.Ensure(log),
		publishTimeout: defaultPublishTimeout,
	}
}

// Register mounts the handler's routes on e.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/api/generate", h.Generate)
}

// Generate relays the topic to the agent. Every outcome other than a missing topic
// or an unexpected failure is a 200 carrying whatever object resulted.
func (h *Handler) Generate(c echo.Context) error {
	topic, err := readTopic(c.Request().Body)
	switch {
	case errors.Is(err, errTopicMissing):
		return c.JSON(http.StatusBadRequest, domain.ErrorPayload{Error: domain.MsgTopicRequired})
	case err != nil:
		h.log.ErrorObj("generate request unreadable", "error", err.Error())
		return c.JSON(http.StatusInternalServerError, domain.ErrorPayload{Error: domain.MsgGenerateFailed})
	}

	res, err := h.gen.Generate(c.Request().Context(), topic)
	if err != nil {
		h.log.ErrorObj("generate failed", "generate_error", map[string]any{
			"topic": topic,
			"error": err.Error(),
		})
		return c.JSON(http.StatusInternalServerError, domain.ErrorPayload{Error: domain.MsgGenerateFailed})
	}

	notify := res.Relayed && domain.IsStructured(res.Body) && h.pub != nil && h.pub.Size() > 0

	// A declared length lets the caller finish reading before announcements run.
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(res.Body)))
	if err := c.JSONBlob(http.StatusOK, res.Body); err != nil {
		return err
	}
	if !notify {
		return nil
	}
	c.Response().Flush()
	h.announce(c.Request().Context(), topic, res.Body)
	return nil
}

// announce runs after the response is written; failures are logged and go no further.
func (h *Handler) announce(reqCtx context.Context, topic string, body []byte) {
	article, errPayload := domain.NormalizeArticle(topic, body)
	if errPayload != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(reqCtx), h.publishTimeout)
	defer cancel()

	delivered, err := h.pub.Publish(ctx, publishers.NewEvent(topic, article))
	if err != nil {
		h.log.ErrorObj("article announcement failed", "publish_error", map[string]any{
			"topic":     topic,
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	h.log.DebugObj("article announced", "publish_meta", map[string]any{
		"topic":     topic,
		"delivered": delivered,
	})
}

var errTopicMissing = errors.New("topic missing")

// readTopic decodes {"topic": "..."}. A JSON null body is an error, like any other
// body that cannot be read as an object; other non-object bodies simply have no topic.
func readTopic(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", err
	}
	if body == nil {
		return "", errors.New("request body is null")
	}
	obj, ok := body.(map[string]any)
	if !ok {
		return "", errTopicMissing
	}
	topic, ok := obj["topic"].(string)
	if !ok || topic == "" {
		return "", errTopicMissing
	}
	return topic, nil
}

// HealthHandler serves GET /health.
func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}
