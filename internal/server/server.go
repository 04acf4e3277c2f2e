// Package server wires a single catch-all dispatcher into a fiber
// app, grounded on the teacher's StartServer/setupMiddleware
// (server/main.go) bootstrap shape — favicon + recover middleware,
// a custom ErrorHandler, one registration point for the serving
// logic — but replacing the teacher's per-config-route registration
// with first-match-wins table lookups against a live reload.Coordinator.
package server

import (
	"context"
	"io/fs"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"filemock/internal/diag"
	"filemock/internal/mockfs"
	"filemock/internal/reload"
	"filemock/internal/requestlog"
	"filemock/internal/ulid"
)

// Dependencies are the collaborators the dispatcher needs on every
// request.
type Dependencies struct {
	Coordinator *reload.Coordinator
	Logs        *requestlog.Pipeline
	IDs         *ulid.Generator
	Sink        diag.Sink

	// ShutdownCtx is cancelled once graceful shutdown begins. A
	// request sleeping through a mock delay races this context and
	// responds 503 if it fires first.
	ShutdownCtx context.Context

	// FaviconFS is optional; when nil the favicon middleware is
	// skipped entirely.
	FaviconFS fs.FS
}

// New builds the fiber app. It registers no routes beyond the
// catch-all dispatcher: route resolution is entirely table-driven.
func New(deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).SendString(http.StatusText(fiber.StatusInternalServerError))
		},
	})

	if deps.FaviconFS != nil {
		app.Use(favicon.New(favicon.Config{
			FileSystem: http.FS(deps.FaviconFS),
			File:       "favicon.ico",
			URL:        "/favicon.ico",
		}))
	}
	app.Use(recover.New())

	app.Use(dispatch(deps))

	return app
}

// dispatch implements §4.6 end to end: match, delay, respond, log.
func dispatch(deps Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := deps.IDs.New()

		table := deps.Coordinator.Current()
		result := table.Match(c.Method(), c.Path())

		var matchedRoute *string
		var status int
		var respHeaders map[string]string
		var respBody []byte
		delayMS := 0

		switch result.Outcome {
		case mockfs.Matched:
			route := result.Route
			pattern := route.Pattern
			matchedRoute = &pattern
			delayMS = route.Response.DelayMS

			if delayMS > 0 {
				if aborted := sleepOrShutdown(c.Context(), deps.ShutdownCtx, time.Duration(delayMS)*time.Millisecond); aborted {
					logRequest(deps, c, requestID, start, matchedRoute, fiber.StatusServiceUnavailable, nil, nil, delayMS)
					return serviceUnavailable(c)
				}
			}

			status = route.Response.Status
			respHeaders = make(map[string]string, len(route.Response.Headers))
			for _, h := range route.Response.Headers {
				respHeaders[h.Name] = h.Value
				c.Set(h.Name, h.Value)
			}
			respBody = route.Response.Body
			_ = c.Status(status).Send(respBody)

		case mockfs.MethodNotAllowed:
			status = fiber.StatusMethodNotAllowed
			allow := strings.Join(sortedCopy(result.Allowed), ", ")
			respHeaders = map[string]string{"Allow": allow}
			c.Set("Allow", allow)
			_ = c.Status(status).Send(nil)

		default: // NotFound
			status = fiber.StatusNotFound
			respBody = []byte("Not Found")
			respHeaders = map[string]string{"Content-Type": "text/plain"}
			c.Set("Content-Type", "text/plain")
			_ = c.Status(status).SendString("Not Found")
		}

		logRequest(deps, c, requestID, start, matchedRoute, status, respHeaders, respBody, delayMS)
		return nil
	}
}

// sleepOrShutdown waits for d or returns early (true) if reqCtx or
// shutdownCtx is cancelled first.
func sleepOrShutdown(reqCtx, shutdownCtx context.Context, d time.Duration) (aborted bool) {
	if shutdownCtx == nil {
		shutdownCtx = context.Background()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return false
	case <-shutdownCtx.Done():
		return true
	case <-reqCtx.Done():
		return true
	}
}

func serviceUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).SendString("Service Unavailable")
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

func logRequest(deps Dependencies, c *fiber.Ctx, requestID string, start time.Time, matchedRoute *string, status int, respHeaders map[string]string, respBody []byte, delayMS int) {
	if deps.Logs == nil {
		return
	}

	reqHeaders := map[string]string{}
	c.Request().Header.VisitAll(func(k, v []byte) {
		reqHeaders[string(k)] = string(v)
	})

	var query *string
	if q := string(c.Request().URI().QueryString()); q != "" {
		query = &q
	}

	rec := requestlog.NewRecord(
		requestlog.FormatTimestamp(start),
		requestID,
		c.Method(),
		c.OriginalURL(),
		c.Path(),
		query,
		reqHeaders,
		c.Body(),
		matchedRoute,
		status,
		respHeaders,
		respBody,
		delayMS,
	)
	deps.Logs.Enqueue(rec)
}
