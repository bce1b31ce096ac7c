package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

type mockAuditRepo struct {
	mockAuditWriter
	lastFilter models.AuditLogFilter
}

func (m *mockAuditRepo) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, int, error) {
	m.lastFilter = filter
	out := make([]models.AuditLog, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, *l)
	}
	return out, len(out), nil
}

func TestAuditServiceListParsesBounds(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo, nil, nil)

	_, pagination, err := svc.List(context.Background(), AuditListRequest{Action: "create", From: "2024-01-01", To: "2024-01-31"})
	require.NoError(t, err)
	assert.Equal(t, "CREATE", repo.lastFilter.Action)
	require.NotNil(t, repo.lastFilter.From)
	require.NotNil(t, repo.lastFilter.To)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), *repo.lastFilter.To)
	assert.Equal(t, 50, pagination.PageSize)
}

func TestAuditServiceListRejectsInvertedRange(t *testing.T) {
	svc := NewAuditService(&mockAuditRepo{}, nil, nil)

	_, _, err := svc.List(context.Background(), AuditListRequest{From: "2024-02-01", To: "2024-01-01"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = svc.List(context.Background(), AuditListRequest{From: "yesterday"})
	require.Error(t, err)
}

func TestAuditServiceCreate(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo, nil, nil)
	userID := "u1"

	entry, err := svc.Create(context.Background(), dto.CreateAuditLogRequest{
		Action:    "export",
		Resource:  "certificates",
		NewValues: json.RawMessage(`{"window":"expired"}`),
	}, Actor{UserID: &userID, IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "EXPORT", entry.Action)
	assert.Equal(t, "10.0.0.1", entry.IPAddress)
	assert.Equal(t, []string{"EXPORT"}, repo.actions())

	_, err = svc.Create(context.Background(), dto.CreateAuditLogRequest{Action: "x", Resource: "y", OldValues: json.RawMessage(`{broken`)}, Actor{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
