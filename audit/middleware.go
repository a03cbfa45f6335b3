package audit

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// ActorFn extracts the authenticated actor from the request context. It
// returns empty strings for anonymous requests.
type ActorFn func(c echo.Context) (actorID, role string)

// Middleware records every successful mutating request. Reads and failed
// requests are skipped; the trail captures what changed, not what was looked
// at or attempted.
func Middleware(rec *Recorder, actor ActorFn) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			method := c.Request().Method
			if method == echo.GET || method == echo.HEAD || method == echo.OPTIONS {
				return err
			}
			status := c.Response().Status
			if err != nil || status >= 400 {
				return err
			}

			actorID, role := actor(c)
			resource, resourceID := splitResource(c.Path(), c.ParamValues())
			rec.Record(c.Request().Context(), Entry{
				ActorID:    actorID,
				ActorRole:  role,
				Action:     strings.ToLower(method),
				Resource:   resource,
				ResourceID: resourceID,
				Method:     method,
				Path:       c.Request().URL.Path,
				Status:     status,
				IP:         c.RealIP(),
				UserAgent:  c.Request().UserAgent(),
				DurationMS: time.Since(start).Milliseconds(),
			})
			return nil
		}
	}
}

// splitResource derives "documents" from "/api/documents/:id" and pairs it
// with the first route parameter when present.
func splitResource(routePath string, params []string) (string, string) {
	parts := strings.Split(strings.TrimPrefix(routePath, "/"), "/")
	resource := ""
	for _, p := range parts {
		if p == "api" || p == "" || strings.HasPrefix(p, ":") {
			continue
		}
		resource = p
		break
	}
	id := ""
	if len(params) > 0 {
		id = params[0]
	}
	return resource, id
}
