package handler

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-ops-api/internal/middleware"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/internal/service"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.AccessClaims {
	return middleware.Claims(c)
}

// actorFromContext describes the caller for the audit trail. Portal
// requests have no claims and are identified by address only.
func actorFromContext(c *gin.Context) service.Actor {
	actor := service.Actor{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	if claims := claimsFromContext(c); claims != nil {
		id := claims.UserID
		actor.UserID = &id
		actor.Name = claims.Name
	}
	return actor
}

func listOptions(c *gin.Context, defaultSize int) models.ListOptions {
	opts := models.ListOptions{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		opts.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultSize))); err == nil {
		opts.PageSize = size
	}
	return opts
}

func queryBool(c *gin.Context, key string) *bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(key))) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}

// queryTime reads a YYYY-MM-DD or RFC3339 query value.
func queryTime(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, key+" must be YYYY-MM-DD or RFC3339")
	}
	return &t, nil
}

func bindJSON(c *gin.Context, dest interface{}) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return appErrors.Validation(err, "invalid payload")
	}
	return nil
}

// uploadFiles reads the files[] parts of a multipart request. A single
// "file" part is accepted as well.
func uploadFiles(c *gin.Context) ([]service.UploadFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, appErrors.Validation(err, "expected multipart form data")
	}
	headers := form.File["files[]"]
	if len(headers) == 0 {
		headers = append(form.File["files"], form.File["file"]...)
	}
	if len(headers) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one file is required")
	}
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, uploadFileFrom(fh))
	}
	return files, nil
}

func uploadFileFrom(fh *multipart.FileHeader) service.UploadFile {
	return service.UploadFile{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
