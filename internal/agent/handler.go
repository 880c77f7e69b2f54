package agent

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samvad-hq/samvad-news-desk/internal/domain"
	"github.com/samvad-hq/samvad-news-desk/internal/logger"
)

const msgTopicRequired = "topic is required"

// Generator produces an article for a topic.
type Generator interface {
	Run(ctx context.Context, topic string) (domain.AgentArticle, error)
}

// Handler serves the agent's HTTP API.
type Handler struct {
	gen     Generator
	log     logger.Logger
	timeout time.Duration
}

// NewHandler wires POST /generate. timeout bounds one whole pipeline run; zero means
// the request context alone decides.
func NewHandler(gen Generator, timeout time.Duration, log logger.Logger) *Handler {
	return &Handler{gen: gen, log: logger.Ensure(log), timeout: timeout}
}

func (h *Handler) Register(e *echo.Echo) {
	e.POST("/generate", h.Generate)
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})
}

func (h *Handler) Generate(c echo.Context) error {
	var req domain.GenerateRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Topic) == "" {
		return c.JSON(http.StatusBadRequest, domain.ErrorPayload{Error: msgTopicRequired})
	}

	ctx := c.Request().Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	article, err := h.gen.Run(ctx, req.Topic)
	if err != nil {
		h.log.ErrorObj("article generation failed", "generate_error", map[string]any{
			"topic":     req.Topic,
			"error":     err.Error(),
			"timed_out": errors.Is(err, context.DeadlineExceeded),
		})
		return c.JSON(http.StatusInternalServerError, domain.ErrorPayload{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, article)
}
