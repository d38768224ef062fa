package routes

import (
	"github.com/gofiber/fiber/v3"

	"github.com/docs-hub/docs-hub/internal/api"
)

// RegisterDocRoutes 挂载文档抓取接口与 /-/ 缓存诊断接口。
func RegisterDocRoutes(app *fiber.App, handler *api.Handler) {
	if app == nil || handler == nil {
		return
	}

	app.Post("/api/fetch_document", handler.FetchDocument)

	app.Get("/-/cache", handler.CacheStats)
	app.Post("/-/cache/save", handler.SaveCache)
	app.Delete("/-/cache", handler.ClearCache)
}
