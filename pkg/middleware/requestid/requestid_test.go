package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, header string) (seen, fromCtx, echoed string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		fromCtx = FromContext(c.Request.Context())
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(Header, header)
	}
	r.ServeHTTP(w, req)
	return seen, fromCtx, w.Header().Get(Header)
}

func TestMiddlewareKeepsClientID(t *testing.T) {
	seen, fromCtx, echoed := serve(t, "dispatch-7.retry_2")
	assert.Equal(t, "dispatch-7.retry_2", seen)
	assert.Equal(t, seen, fromCtx)
	assert.Equal(t, seen, echoed)
}

func TestMiddlewareReplacesUnsafeIDs(t *testing.T) {
	for name, header := range map[string]string{
		"missing":  "",
		"too long": strings.Repeat("x", 65),
		"newline":  "abc\ninjected",
		"spaces":   "two words",
	} {
		t.Run(name, func(t *testing.T) {
			seen, fromCtx, echoed := serve(t, header)
			_, err := uuid.Parse(seen)
			require.NoError(t, err)
			assert.Equal(t, seen, fromCtx)
			assert.Equal(t, seen, echoed)
		})
	}
}

func TestFromContextWithoutValue(t *testing.T) {
	assert.Empty(t, FromContext(context.Background()))
	assert.Equal(t, "job-1", FromContext(WithValue(context.Background(), "job-1")))
}
