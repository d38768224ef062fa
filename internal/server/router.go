package server

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger *logrus.Logger
}

const contextKeyRequestID = "_docshub_request_id"

// NewApp builds a Fiber application with request-ID middleware and
// structured error handling.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		ErrorHandler:  errorHandler(opts.Logger),
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware())

	return app, nil
}

// requestContextMiddleware 为每个请求生成 ID 并写入响应头，便于日志关联。
func requestContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// errorHandler 把未处理的 error 统一渲染为 JSON，并输出结构化日志。
func errorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}

		fields := logrus.Fields{
			"action": "request_error",
			"path":   string(c.Request().URI().Path()),
			"status": status,
		}
		if reqID := RequestID(c); reqID != "" {
			fields["request_id"] = reqID
		}
		logger.WithFields(fields).Warn(err.Error())

		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
