// Package proxy is the HTTP front of the spreadsheet backend. It keeps the
// Baserow token on the server and only lets through writes to columns in
// the field table.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"github.com/five82/lessondesk/internal/baserow"
	"github.com/five82/lessondesk/internal/gateway"
)

const (
	defaultPatchLimit = 120 // per client per minute
	upstreamTimeout   = 15 * time.Second
)

// Upstream is the backend table. *baserow.Client satisfies it.
type Upstream interface {
	ListRows(ctx context.Context) ([]json.RawMessage, error)
	PatchRow(ctx context.Context, rowID int64, fieldID string, value gateway.Value) (json.RawMessage, error)
}

// Options configure the server.
type Options struct {
	Upstream   Upstream
	Fields     *gateway.FieldTable // nil selects the built-in table
	Logger     *log.Logger         // nil logs to stderr
	AccessLog  io.Writer           // nil logs to stderr
	PatchLimit int                 // PATCH requests per client per minute
}

type patchRequest struct {
	StudentID int64          `json:"studentId" validate:"gt=0"`
	FieldName string         `json:"fieldName" validate:"required"`
	Value     *gateway.Value `json:"value"`
}

type server struct {
	upstream Upstream
	fields   *gateway.FieldTable
	logger   *log.Logger
	validate *validator.Validate
}

// New builds the Fiber app.
func New(opts Options) *fiber.App {
	s := &server{
		upstream: opts.Upstream,
		fields:   opts.Fields,
		logger:   opts.Logger,
		validate: validator.New(),
	}
	if s.fields == nil {
		s.fields = gateway.DefaultFieldTable()
	}
	if s.logger == nil {
		s.logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	accessLog := opts.AccessLog
	if accessLog == nil {
		accessLog = os.Stderr
	}
	patchLimit := opts.PatchLimit
	if patchLimit <= 0 {
		patchLimit = defaultPatchLimit
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           90 * time.Second,
	})

	app.Use(recover.New())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(etag.New())
	app.Use(requestID)
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${locals:reqid} ${method} ${path} - ${status} - ${latency}\n",
		Output:     accessLog,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	api := app.Group("/api")
	api.Get("/students", s.listStudents)
	api.Patch("/students", limiter.New(limiter.Config{
		Max:        patchLimit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return jsonError(c, fiber.StatusTooManyRequests, "too many updates, try again shortly")
		},
	}), s.patchStudent)

	return app
}

func requestID(c *fiber.Ctx) error {
	id := c.Get(fiber.HeaderXRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(fiber.HeaderXRequestID, id)
	c.Locals("reqid", id)
	return c.Next()
}

func upstreamContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	ctx := c.UserContext()
	if id, ok := c.Locals("reqid").(string); ok {
		ctx = baserow.WithRequestID(ctx, id)
	}
	return context.WithTimeout(ctx, upstreamTimeout)
}

func (s *server) listStudents(c *fiber.Ctx) error {
	ctx, cancel := upstreamContext(c)
	defer cancel()

	rows, err := s.upstream.ListRows(ctx)
	if err != nil {
		s.logger.Printf("list students failed: %v", err)
		return jsonError(c, fiber.StatusBadGateway, "could not load students")
	}
	return c.JSON(rows)
}

func (s *server) patchStudent(c *fiber.Ctx) error {
	var req patchRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Field() == "StudentID" {
			return jsonError(c, fiber.StatusBadRequest, "studentId must be a positive integer")
		}
		return jsonError(c, fiber.StatusBadRequest, "fieldName is required")
	}

	spec, ok := s.fields.ByID(req.FieldName)
	if !ok || !spec.Writable() {
		return jsonError(c, fiber.StatusBadRequest, "field not allowed")
	}
	value := gateway.Null()
	if req.Value != nil {
		value = *req.Value
	}
	if err := spec.CheckValue(value); err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	ctx, cancel := upstreamContext(c)
	defer cancel()

	row, err := s.upstream.PatchRow(ctx, req.StudentID, req.FieldName, value)
	if err != nil {
		s.logger.Printf("patch student %d %s failed: %v", req.StudentID, req.FieldName, err)
		return jsonError(c, fiber.StatusBadGateway, "could not update student")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(row)
}

func jsonError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "internal error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		msg = fe.Message
	}
	return jsonError(c, status, msg)
}
