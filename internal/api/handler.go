package api

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/docs-hub/docs-hub/internal/cache"
	"github.com/docs-hub/docs-hub/internal/docs"
	"github.com/docs-hub/docs-hub/internal/logging"
	"github.com/docs-hub/docs-hub/internal/server"
)

// HeaderCacheHit 标记响应内容是否来自本地缓存。
const HeaderCacheHit = "X-Docs-Hub-Cache-Hit"

// Handler 负责 orchestrate “缓存命中 → singleflight 回源 → 写缓存” 的全流程，
// 对外暴露 Fiber handler，内部复用共享 docs 客户端与文档缓存。
type Handler struct {
	store  cache.Cache
	client *docs.Client
	logger *logrus.Logger
	flight singleflight.Group
}

// NewHandler constructs an API handler with shared cache/docs client/logger.
func NewHandler(store cache.Cache, client *docs.Client, logger *logrus.Logger) *Handler {
	return &Handler{
		store:  store,
		client: client,
		logger: logger,
	}
}

// FetchDocument 处理文档抓取请求：先查缓存，未命中时通过 singleflight 合并
// 相同页面的并发回源，成功后回写缓存再响应。
func (h *Handler) FetchDocument(c fiber.Ctx) error {
	started := time.Now()
	requestID := server.RequestID(c)

	var page docs.PageRequest
	if err := c.Bind().Body(&page); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid_request_body")
	}
	if page.CrateName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "crate_name_required")
	}

	if content, ok := h.store.Get(page); ok {
		h.logResult(page, requestID, true, started, nil)
		return respondContent(c, content, true)
	}

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	value, err, _ := h.flight.Do(page.String(), func() (interface{}, error) {
		content, fetchErr := h.client.FetchPage(ctx, page)
		if fetchErr != nil {
			return nil, fetchErr
		}
		h.store.Insert(page, content)
		return content, nil
	})
	if err != nil {
		h.logResult(page, requestID, false, started, err)
		if errors.Is(err, docs.ErrPageNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "page_not_found"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_failed"})
	}

	content, ok := value.(docs.PageContent)
	if !ok {
		return fiber.NewError(fiber.StatusInternalServerError, "unexpected_flight_result")
	}
	h.logResult(page, requestID, false, started, nil)
	return respondContent(c, content, false)
}

// CacheStats 输出条目总数与每个 crate 的分布，供诊断使用。
func (h *Handler) CacheStats(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"entries": h.store.Len(),
		"crates":  h.store.Stats(),
	})
}

// SaveCache 显式触发一次落盘。部分分片失败会返回 500，已写入的文件保持不变。
func (h *Handler) SaveCache(c fiber.Ctx) error {
	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := h.store.Save(ctx); err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"action":     "cache_save",
			"request_id": server.RequestID(c),
		}).Error("cache_save_failed")
		return fiber.NewError(fiber.StatusInternalServerError, "cache_save_failed")
	}
	return c.JSON(fiber.Map{"saved": true, "entries": h.store.Len()})
}

// ClearCache 原子清空内存表；磁盘分片保持原样，直到下一次 Save 做对账。
func (h *Handler) ClearCache(c fiber.Ctx) error {
	h.store.Clear()
	h.logger.WithFields(logrus.Fields{
		"action":     "cache_clear",
		"request_id": server.RequestID(c),
	}).Info("cache_cleared")
	return c.JSON(fiber.Map{"cleared": true})
}

func respondContent(c fiber.Ctx, content docs.PageContent, cacheHit bool) error {
	c.Set(HeaderCacheHit, strconv.FormatBool(cacheHit))
	return c.JSON(content)
}

func (h *Handler) logResult(page docs.PageRequest, requestID string, cacheHit bool, started time.Time, err error) {
	fields := logging.RequestFields(page.CrateName, page.Version, page.Path, cacheHit)
	fields["action"] = "fetch_document"
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if requestID != "" {
		fields["request_id"] = requestID
	}
	if err != nil {
		fields["error"] = err.Error()
		h.logger.WithFields(fields).Error("fetch_failed")
		return
	}
	h.logger.WithFields(fields).Info("fetch_complete")
}
