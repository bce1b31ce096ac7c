package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/pkg/config"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
	"github.com/noah-isme/fleet-ops-api/pkg/storage"
)

// BatchPolicy decides what happens to the rest of a batch after a file fails.
type BatchPolicy string

const (
	BatchContinue BatchPolicy = "CONTINUE"
	BatchAbort    BatchPolicy = "ABORT"
)

// Storage buckets.
const (
	BucketDriverDocuments   = "DRIVER_DOCUMENTS"
	BucketRouteDocuments    = "ROUTE_DOCUMENTS"
	BucketVehicleDocuments  = "VEHICLE_DOCUMENTS"
	BucketEmployeeDocuments = "EMPLOYEE_DOCUMENTS"
)

// Upload target names used in /uploads/:target/:ownerId.
const (
	TargetDriver    = "driver"
	TargetAssistant = "assistant"
	TargetVehicle   = "vehicle"
	TargetRoute     = "route"
	TargetEmployee  = "employee"
)

const defaultMaxUploadBytes = 10 * 1024 * 1024

var defaultUploadMIMEs = []string{"image/jpeg", "image/png", "image/gif", "image/webp", "application/pdf"}

// UploadTarget describes where files for one kind of owner go.
type UploadTarget struct {
	Name            string
	Owner           models.DocumentOwner
	Bucket          string
	DefaultCategory string
	LinkTable       string
	AllowedMIMEs    []string
	MaxSizeBytes    int64
	Policy          BatchPolicy
}

func (t UploadTarget) allows(mimeType string) bool {
	for _, m := range t.AllowedMIMEs {
		if strings.EqualFold(m, mimeType) {
			return true
		}
	}
	return false
}

// DefaultUploadTargets builds the target registry from upload limits.
func DefaultUploadTargets(cfg config.UploadsConfig) map[string]UploadTarget {
	maxSize := cfg.MaxFileSizeBytes
	if maxSize <= 0 {
		maxSize = defaultMaxUploadBytes
	}
	mimes := cfg.AllowedMIMEs
	if len(mimes) == 0 {
		mimes = defaultUploadMIMEs
	}
	targets := []UploadTarget{
		{Name: TargetDriver, Owner: models.OwnerDriver, Bucket: BucketDriverDocuments, DefaultCategory: "documents", LinkTable: "driver_documents", Policy: BatchContinue},
		{Name: TargetAssistant, Owner: models.OwnerAssistant, Bucket: BucketEmployeeDocuments, DefaultCategory: "documents", LinkTable: "assistant_documents", Policy: BatchContinue},
		{Name: TargetVehicle, Owner: models.OwnerVehicle, Bucket: BucketVehicleDocuments, DefaultCategory: "documents", LinkTable: "vehicle_documents", Policy: BatchContinue},
		{Name: TargetRoute, Owner: models.OwnerRoute, Bucket: BucketRouteDocuments, DefaultCategory: "documents", LinkTable: "route_documents", Policy: BatchAbort},
		{Name: TargetEmployee, Owner: models.OwnerEmployee, Bucket: BucketEmployeeDocuments, DefaultCategory: "documents", LinkTable: "employee_documents", Policy: BatchContinue},
	}
	out := make(map[string]UploadTarget, len(targets))
	for _, t := range targets {
		t.AllowedMIMEs = mimes
		t.MaxSizeBytes = maxSize
		out[t.Name] = t
	}
	return out
}

// UploadFile is one file of a batch. Open is called at most once.
type UploadFile struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// UploadRequest is a batch of files for one owner.
type UploadRequest struct {
	Target         string
	OwnerID        string
	DocumentType   string
	Channel        models.UploadChannel
	NotificationID *string
	Files          []UploadFile
}

type documentWriter interface {
	CreateLinked(ctx context.Context, doc *models.Document, linkTable string) error
}

type uploadMetrics interface {
	RecordUpload(target string, ok bool, size int64)
}

// UploadService validates, stores and links uploaded files.
type UploadService struct {
	store        storage.ObjectStore
	docs         documentWriter
	audit        auditWriter
	metrics      uploadMetrics
	targets      map[string]UploadTarget
	maxDimension int
	logger       *zap.Logger
	now          func() time.Time
	newID        func() string
}

// NewUploadService constructs the upload service. maxImageDimension of zero
// disables downscaling.
func NewUploadService(store storage.ObjectStore, docs documentWriter, audit auditWriter, metrics uploadMetrics, targets map[string]UploadTarget, maxImageDimension int, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if targets == nil {
		targets = DefaultUploadTargets(config.UploadsConfig{})
	}
	return &UploadService{
		store:        store,
		docs:         docs,
		audit:        audit,
		metrics:      metrics,
		targets:      targets,
		maxDimension: maxImageDimension,
		logger:       logger,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// Target returns a registered upload target.
func (s *UploadService) Target(name string) (UploadTarget, bool) {
	t, ok := s.targets[strings.ToLower(name)]
	return t, ok
}

// Upload processes a batch. Files failing size or type checks are reported
// per file and never affect their siblings. A storage or metadata failure
// skips the rest of the batch when the target's policy is ABORT. A missing
// bucket fails the whole request.
func (s *UploadService) Upload(ctx context.Context, req UploadRequest, actor Actor) (*dto.UploadResult, error) {
	target, ok := s.Target(req.Target)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown upload target %q", req.Target))
	}
	ownerID := strings.TrimSpace(req.OwnerID)
	if ownerID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "owner id is required")
	}
	if len(req.Files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one file is required")
	}
	channel := req.Channel
	if channel == "" {
		channel = models.ChannelAdmin
	}

	result := &dto.UploadResult{Target: target.Name, OwnerID: ownerID, Files: make([]dto.UploadFileResult, 0, len(req.Files))}
	for i, file := range req.Files {
		if result.Aborted {
			result.Files = append(result.Files, dto.UploadFileResult{
				FileName: file.Name,
				Error:    fmt.Sprintf("%s: not processed after an earlier failure", file.Name),
			})
			result.Failed++
			continue
		}

		doc, err := s.uploadOne(ctx, target, ownerID, req, channel, file, actor)
		if err != nil {
			if appErrors.FromError(err).Code == appErrors.ErrBucketNotFound.Code {
				return nil, err
			}
			s.recordMetric(target.Name, false, file.Size)
			result.Files = append(result.Files, dto.UploadFileResult{FileName: file.Name, Error: err.Error()})
			result.Failed++
			var rejected rejection
			if errors.As(err, &rejected) {
				continue
			}
			if target.Policy == BatchAbort && i < len(req.Files)-1 {
				result.Aborted = true
			}
			continue
		}
		s.recordMetric(target.Name, true, doc.SizeBytes)
		result.Files = append(result.Files, dto.UploadFileResult{FileName: file.Name, Uploaded: true, Document: doc})
		result.Uploaded++
	}

	if result.Uploaded > 0 {
		recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionUpload, string(target.Owner), &ownerID, map[string]interface{}{
			"target":   target.Name,
			"uploaded": result.Uploaded,
			"failed":   result.Failed,
		})
	}
	return result, nil
}

func (s *UploadService) recordMetric(target string, ok bool, size int64) {
	if s.metrics != nil {
		s.metrics.RecordUpload(target, ok, size)
	}
}

// userError is a per file failure whose message is shown as is.
type userError string

func (e userError) Error() string { return string(e) }

// rejection is a file refused by validation before anything was stored.
type rejection string

func (e rejection) Error() string { return string(e) }

// formatSizeLimit renders a byte limit for rejection messages.
func formatSizeLimit(limit int64) string {
	const mb = 1024 * 1024
	switch {
	case limit%mb == 0:
		return strconv.FormatInt(limit/mb, 10) + " MB"
	case limit >= mb/10:
		return strconv.FormatFloat(float64(limit)/mb, 'f', 1, 64) + " MB"
	}
	return strconv.FormatInt(limit, 10) + " bytes"
}

func (s *UploadService) uploadOne(ctx context.Context, target UploadTarget, ownerID string, req UploadRequest, channel models.UploadChannel, file UploadFile, actor Actor) (*models.Document, error) {
	name := file.Name
	if file.Size > target.MaxSizeBytes {
		return nil, rejection(fmt.Sprintf("%s: file exceeds %s limit", name, formatSizeLimit(target.MaxSizeBytes)))
	}
	mimeType := normaliseMIME(file.ContentType)
	if mimeType != "" && !target.allows(mimeType) {
		return nil, rejection(fmt.Sprintf("%s: file type %s is not allowed", name, mimeType))
	}

	body, err := readUpload(file, target.MaxSizeBytes)
	if err != nil {
		return nil, userError(fmt.Sprintf("%s: %v", name, err))
	}
	if int64(len(body)) > target.MaxSizeBytes {
		return nil, rejection(fmt.Sprintf("%s: file exceeds %s limit", name, formatSizeLimit(target.MaxSizeBytes)))
	}
	if mimeType == "" {
		mimeType = normaliseMIME(http.DetectContentType(body))
		if !target.allows(mimeType) {
			return nil, rejection(fmt.Sprintf("%s: file type %s is not allowed", name, mimeType))
		}
	}
	body = s.downscale(body, mimeType, name)

	category := sanitiseSegment(req.DocumentType)
	if category == "" {
		category = target.DefaultCategory
	}
	objectPath := fmt.Sprintf("%s/%s/%d_%s_%s", ownerID, category, s.now().Unix(), s.newID(), sanitiseFileName(name))

	if err := s.store.Put(ctx, target.Bucket, objectPath, mimeType, bytes.NewReader(body), int64(len(body))); err != nil {
		if storage.IsBucketNotFound(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrBucketNotFound.Code, appErrors.ErrBucketNotFound.Status,
				fmt.Sprintf("storage bucket %q not found; create it or run the storage migration", target.Bucket))
		}
		s.logger.Warn("object upload failed", zap.String("bucket", target.Bucket), zap.String("path", objectPath), zap.Error(err))
		return nil, userError(fmt.Sprintf("%s: upload failed", name))
	}

	docType := strings.TrimSpace(req.DocumentType)
	if docType == "" {
		docType = target.DefaultCategory
	}
	doc := &models.Document{
		OwnerType:      target.Owner,
		OwnerID:        ownerID,
		DocumentType:   docType,
		FileName:       name,
		MimeType:       mimeType,
		Bucket:         target.Bucket,
		StoragePath:    objectPath,
		FileURL:        s.store.PublicURL(target.Bucket, objectPath),
		SizeBytes:      int64(len(body)),
		UploadedVia:    channel,
		UploadedBy:     actor.UserID,
		NotificationID: req.NotificationID,
	}
	if err := s.docs.CreateLinked(ctx, doc, target.LinkTable); err != nil {
		if delErr := s.store.Delete(ctx, target.Bucket, objectPath); delErr != nil {
			s.logger.Error("failed to remove orphaned object", zap.String("bucket", target.Bucket), zap.String("path", objectPath), zap.Error(delErr))
		}
		s.logger.Warn("document metadata write failed", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, userError(fmt.Sprintf("%s: failed to save document record", name))
	}
	return doc, nil
}

// downscale shrinks raster images larger than the configured dimension.
// Anything that cannot be decoded is stored untouched.
func (s *UploadService) downscale(body []byte, mimeType, name string) []byte {
	if s.maxDimension <= 0 {
		return body
	}
	var format imaging.Format
	switch mimeType {
	case "image/jpeg":
		format = imaging.JPEG
	case "image/png":
		format = imaging.PNG
	case "image/gif":
		format = imaging.GIF
	default:
		return body
	}
	img, err := imaging.Decode(bytes.NewReader(body), imaging.AutoOrientation(true))
	if err != nil {
		s.logger.Debug("image decode skipped", zap.String("file", name), zap.Error(err))
		return body
	}
	bounds := img.Bounds()
	if bounds.Dx() <= s.maxDimension && bounds.Dy() <= s.maxDimension {
		return body
	}
	resized := imaging.Fit(img, s.maxDimension, s.maxDimension, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format); err != nil {
		s.logger.Warn("image encode failed", zap.String("file", name), zap.Error(err))
		return body
	}
	return buf.Bytes()
}

func readUpload(file UploadFile, limit int64) ([]byte, error) {
	if file.Open == nil {
		return nil, fmt.Errorf("file content missing")
	}
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer rc.Close()
	// Read one byte past the limit so oversize bodies with a wrong declared size are caught.
	return io.ReadAll(io.LimitReader(rc, limit+1))
}

func normaliseMIME(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "application/octet-stream" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(raw); err == nil {
		return strings.ToLower(mt)
	}
	return strings.ToLower(raw)
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)

func sanitiseFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	safe := strings.Trim(unsafeNameChars.ReplaceAllString(name, "_"), "._")
	if safe == "" {
		return "file"
	}
	return safe
}

func sanitiseSegment(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	return strings.Trim(unsafeNameChars.ReplaceAllString(strings.ReplaceAll(raw, ".", "_"), "_"), "_-")
}
