package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

type assistantTokenFinder interface {
	FindAssistantByQRToken(ctx context.Context, token string) (*models.AssistantRecord, error)
}

type vehicleTokenFinder interface {
	FindByQRToken(ctx context.Context, token string) (*models.Vehicle, error)
}

type vehicleReporter interface {
	AddNote(ctx context.Context, vehicleID string, req dto.VehicleNoteRequest, actor Actor) (*models.VehicleUpdate, error)
	ReportBreakdown(ctx context.Context, vehicleID string, req dto.BreakdownRequest, actor Actor) (*models.VehicleUpdate, error)
	ListUpdates(ctx context.Context, vehicleID string) ([]models.VehicleUpdate, error)
}

type notificationTokenFinder interface {
	FindByUploadToken(ctx context.Context, token string) (*models.Notification, error)
}

type notificationResolver interface {
	Resolve(ctx context.Context, id string, actor Actor) (*models.Notification, error)
}

type portalDocumentSource interface {
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error)
	ListRequirements(ctx context.Context, kind models.SubjectKind, activeOnly bool) ([]models.DocumentRequirement, error)
}

type batchUploader interface {
	Upload(ctx context.Context, req UploadRequest, actor Actor) (*dto.UploadResult, error)
}

// PortalServiceParams groups constructor dependencies.
type PortalServiceParams struct {
	Assistants    assistantTokenFinder
	Vehicles      vehicleTokenFinder
	VehicleOps    vehicleReporter
	Notifications notificationTokenFinder
	Resolver      notificationResolver
	Documents     portalDocumentSource
	Uploads       batchUploader
	Logger        *zap.Logger
}

// PortalService backs the token gated pages used without a login: the
// assistant QR page, the vehicle supplier page and the renewal upload link
// sent with an expiry notification.
type PortalService struct {
	assistants    assistantTokenFinder
	vehicles      vehicleTokenFinder
	vehicleOps    vehicleReporter
	notifications notificationTokenFinder
	resolver      notificationResolver
	documents     portalDocumentSource
	uploads       batchUploader
	logger        *zap.Logger
	now           func() time.Time
}

// NewPortalService constructs the portal service.
func NewPortalService(params PortalServiceParams) *PortalService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortalService{
		assistants:    params.Assistants,
		vehicles:      params.Vehicles,
		vehicleOps:    params.VehicleOps,
		notifications: params.Notifications,
		resolver:      params.Resolver,
		documents:     params.Documents,
		uploads:       params.Uploads,
		logger:        logger,
		now:           time.Now,
	}
}

var errPortalLinkNotFound = appErrors.Clone(appErrors.ErrNotFound, "link not found")

func (s *PortalService) assistant(ctx context.Context, token string) (*models.AssistantRecord, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errPortalLinkNotFound
	}
	a, err := s.assistants.FindAssistantByQRToken(ctx, token)
	if err != nil {
		return nil, mapRepoError(err, errPortalLinkNotFound.Message, "failed to load assistant")
	}
	return a, nil
}

// AssistantView returns the assistant's expiries, required documents and
// uploads.
func (s *PortalService) AssistantView(ctx context.Context, token string) (*dto.AssistantPortalView, error) {
	a, err := s.assistant(ctx, token)
	if err != nil {
		return nil, err
	}
	requirements, err := s.documents.ListRequirements(ctx, models.SubjectAssistant, true)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load document requirements")
	}
	docs, _, err := s.documents.List(ctx, models.DocumentFilter{
		OwnerType:   models.OwnerAssistant,
		OwnerID:     a.EmployeeID,
		ListOptions: models.ListOptions{PageSize: 100},
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load documents")
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return &dto.AssistantPortalView{
		FullName:     a.FullName,
		CanWork:      a.CanWork,
		Expiries:     expiriesFor(a.CertificateSubject(), s.now()),
		Requirements: requirements,
		Documents:    docs,
	}, nil
}

// AssistantUpload stores files against the assistant behind token.
func (s *PortalService) AssistantUpload(ctx context.Context, token, documentType string, files []UploadFile, actor Actor) (*dto.UploadResult, error) {
	a, err := s.assistant(ctx, token)
	if err != nil {
		return nil, err
	}
	actor.Name = a.FullName
	return s.uploads.Upload(ctx, UploadRequest{
		Target:       TargetAssistant,
		OwnerID:      a.EmployeeID,
		DocumentType: documentType,
		Channel:      models.ChannelAssistant,
		Files:        files,
	}, actor)
}

func (s *PortalService) vehicle(ctx context.Context, token string) (*models.Vehicle, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errPortalLinkNotFound
	}
	v, err := s.vehicles.FindByQRToken(ctx, token)
	if err != nil {
		return nil, mapRepoError(err, errPortalLinkNotFound.Message, "failed to load vehicle")
	}
	return v, nil
}

// VehicleView returns vehicle status, expiries and recent notes.
func (s *PortalService) VehicleView(ctx context.Context, token string) (*dto.VehiclePortalView, error) {
	v, err := s.vehicle(ctx, token)
	if err != nil {
		return nil, err
	}
	updates, err := s.vehicleOps.ListUpdates(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	view := &dto.VehiclePortalView{
		Vehicle:  *v,
		Expiries: expiriesFor(v.CertificateSubject(), s.now()),
		Updates:  updates,
	}
	view.Vehicle.QRToken = nil
	return view, nil
}

// VehicleNote records a supplier note. Kind UPDATE marks a status update.
func (s *PortalService) VehicleNote(ctx context.Context, token string, req dto.VehicleNoteRequest, actor Actor) (*models.VehicleUpdate, error) {
	v, err := s.vehicle(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.vehicleOps.AddNote(ctx, v.ID, req, actor)
}

// VehicleStatusUpdate records a supplier status update.
func (s *PortalService) VehicleStatusUpdate(ctx context.Context, token string, req dto.VehicleNoteRequest, actor Actor) (*models.VehicleUpdate, error) {
	req.Kind = string(models.VehicleUpdateStatus)
	return s.VehicleNote(ctx, token, req, actor)
}

// VehicleBreakdown takes the vehicle off road.
func (s *PortalService) VehicleBreakdown(ctx context.Context, token string, req dto.BreakdownRequest, actor Actor) (*models.VehicleUpdate, error) {
	v, err := s.vehicle(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.vehicleOps.ReportBreakdown(ctx, v.ID, req, actor)
}

// notification resolves an upload token. Resolved notifications and
// lapsed tokens are reported as expired.
func (s *PortalService) notification(ctx context.Context, token string) (*models.Notification, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errPortalLinkNotFound
	}
	n, err := s.notifications.FindByUploadToken(ctx, token)
	if err != nil {
		return nil, mapRepoError(err, errPortalLinkNotFound.Message, "failed to load notification")
	}
	if n.Status == models.NotificationResolved || (n.TokenExpiresAt != nil && !s.now().Before(*n.TokenExpiresAt)) {
		return nil, appErrors.Clone(appErrors.ErrTokenExpired, "this upload link has expired")
	}
	return n, nil
}

// NotificationView summarises what the renewal link is for.
func (s *PortalService) NotificationView(ctx context.Context, token string) (*dto.NotificationPortalView, error) {
	n, err := s.notification(ctx, token)
	if err != nil {
		return nil, err
	}
	view := &dto.NotificationPortalView{
		SubjectKind:     n.SubjectKind,
		SubjectName:     n.SubjectName,
		CertificateType: n.CertificateType,
		Title:           n.Title,
		Message:         n.Message,
		Status:          string(n.Status),
	}
	if n.ExpiryDate != nil {
		view.ExpiryDate = n.ExpiryDate.Format(dateLayout)
	}
	return view, nil
}

var targetForSubject = map[models.SubjectKind]string{
	models.SubjectDriver:    TargetDriver,
	models.SubjectAssistant: TargetAssistant,
	models.SubjectVehicle:   TargetVehicle,
}

// NotificationUpload stores the renewed document against the notification's
// subject and resolves the notification once at least one file is stored.
func (s *PortalService) NotificationUpload(ctx context.Context, token string, files []UploadFile, actor Actor) (*dto.UploadResult, error) {
	n, err := s.notification(ctx, token)
	if err != nil {
		return nil, err
	}
	target, ok := targetForSubject[n.SubjectKind]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInternal, "notification has an unknown subject")
	}
	actor.Name = n.SubjectName
	notificationID := n.ID
	result, err := s.uploads.Upload(ctx, UploadRequest{
		Target:         target,
		OwnerID:        n.SubjectID,
		DocumentType:   n.CertificateType,
		Channel:        models.ChannelNotification,
		NotificationID: &notificationID,
		Files:          files,
	}, actor)
	if err != nil {
		return nil, err
	}
	if result.Uploaded > 0 {
		if _, err := s.resolver.Resolve(ctx, n.ID, actor); err != nil {
			s.logger.Error("uploaded renewal but could not resolve notification", zap.String("notification_id", n.ID), zap.Error(err))
			return nil, err
		}
	}
	return result, nil
}
