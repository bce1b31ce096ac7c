package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestRecorder receives one observation per finished request.
type RequestRecorder interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

const unmatchedRoute = "unmatched"

// Metrics records request counts and latency per route template. Requests
// that match no route share one label so scanners cannot inflate the series
// count. The scrape endpoint itself is skipped.
func Metrics(recorder RequestRecorder, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if recorder == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		recorder.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
