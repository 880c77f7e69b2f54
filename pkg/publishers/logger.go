package publishers

import "github.com/samvad-hq/samvad-news-desk/internal/logger"

// Logger is the structured logging surface publishers write to.
type Logger = logger.Logger
