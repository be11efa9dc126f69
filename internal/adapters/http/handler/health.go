package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthChecker はデータベースの疎通確認を行います。
type HealthChecker interface {
	Ping(ctx context.Context) error
	Database() string
}

// HealthHandler は /health を処理します。
type HealthHandler struct {
	checker HealthChecker
	timeout time.Duration
}

// NewHealthHandler は HealthHandler を生成します。
func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker, timeout: 2 * time.Second}
}

// Health は {status, database} を返します。疎通できない場合は 503 です。
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	if err := h.checker.Ping(ctx); err != nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "unavailable",
			"database": h.checker.Database(),
			"error":    err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status":   "ok",
		"database": h.checker.Database(),
	})
}
