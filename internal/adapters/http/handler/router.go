package handler

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// RouteConfig はルーティングに必要な依存をまとめます。
type RouteConfig struct {
	Query   *QueryHandler
	Health  *HealthHandler
	Metrics http.Handler
}

// RegisterRoutes は REST API のルートを登録します。
func RegisterRoutes(router fiber.Router, cfg RouteConfig) {
	if cfg.Query != nil {
		router.Get("/query", cfg.Query.Query)
		router.Post("/query", cfg.Query.Query)
	}
	if cfg.Health != nil {
		router.Get("/health", cfg.Health.Health)
	}
	if cfg.Metrics != nil {
		router.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}
}
