package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/pkg/database"
)

const documentColumns = `id, owner_type, owner_id, document_type, file_name, mime_type, bucket, storage_path, file_url, size_bytes, uploaded_via, uploaded_by, notification_id, created_at`

const requirementColumns = `id, subject_kind, document_type, name, description, required, has_expiry, badge_color, active, created_at, updated_at`

// ErrUnknownLinkTable is returned when a document link table is not recognised.
var ErrUnknownLinkTable = errors.New("unknown document link table")

// documentLinkTables maps each link table to its owner column.
var documentLinkTables = map[string]string{
	"driver_documents":    "driver_id",
	"assistant_documents": "assistant_id",
	"vehicle_documents":   "vehicle_id",
	"route_documents":     "route_id",
	"employee_documents":  "employee_id",
}

// DocumentRepository persists document metadata, owner links and requirements.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs a DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// CreateLinked inserts the document row and its owner link in one transaction.
func (r *DocumentRepository) CreateLinked(ctx context.Context, doc *models.Document, linkTable string) error {
	column, ok := documentLinkTables[linkTable]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLinkTable, linkTable)
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc.CreatedAt = time.Now().UTC()
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO documents (id, owner_type, owner_id, document_type, file_name, mime_type, bucket, storage_path, file_url, size_bytes, uploaded_via, uploaded_by, notification_id, created_at)
            VALUES (:id, :owner_type, :owner_id, :document_type, :file_name, :mime_type, :bucket, :storage_path, :file_url, :size_bytes, :uploaded_via, :uploaded_by, :notification_id, :created_at)`
		if _, err := tx.NamedExecContext(ctx, query, doc); err != nil {
			return mapWriteError("create document", err)
		}
		link := fmt.Sprintf(`INSERT INTO %s (%s, document_id) VALUES ($1, $2)`, linkTable, column)
		if _, err := tx.ExecContext(ctx, link, doc.OwnerID, doc.ID); err != nil {
			return mapWriteError("link document", err)
		}
		return nil
	})
}

// List returns documents newest first with the total count.
func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error) {
	where := newWhere()
	if filter.OwnerType != "" {
		where.add("owner_type = $%[1]d", filter.OwnerType)
	}
	if filter.OwnerID != "" {
		where.add("owner_id = $%[1]d", filter.OwnerID)
	}
	if filter.DocumentType != "" {
		where.add("document_type = $%[1]d", filter.DocumentType)
	}
	where.search(filter.Search, "file_name", "document_type")

	opts := filter.ListOptions
	order := orderClause(opts, map[string]string{"created_at": "created_at", "file_name": "file_name"}, "created_at", "DESC")
	page := pageClause(&opts, 50)

	var docs []models.Document
	query := fmt.Sprintf(`SELECT %s FROM documents %s %s %s`, documentColumns, where, order, page)
	if err := r.db.SelectContext(ctx, &docs, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM documents "+where.String(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}
	return docs, total, nil
}

// FindByID fetches document metadata.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Delete removes a document row; link rows cascade.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return expectRow(res)
}

// ListRequirements returns requirements, optionally for one subject kind.
func (r *DocumentRepository) ListRequirements(ctx context.Context, kind models.SubjectKind, activeOnly bool) ([]models.DocumentRequirement, error) {
	where := newWhere()
	if kind != "" {
		where.add("subject_kind = $%[1]d", kind)
	}
	if activeOnly {
		where.add("active = $%[1]d", true)
	}
	requirements := []models.DocumentRequirement{}
	query := fmt.Sprintf(`SELECT %s FROM document_requirements %s ORDER BY subject_kind, name`, requirementColumns, where)
	if err := r.db.SelectContext(ctx, &requirements, query, where.args...); err != nil {
		return nil, fmt.Errorf("list document requirements: %w", err)
	}
	return requirements, nil
}

// FindRequirement fetches a requirement.
func (r *DocumentRepository) FindRequirement(ctx context.Context, id string) (*models.DocumentRequirement, error) {
	var req models.DocumentRequirement
	if err := r.db.GetContext(ctx, &req, `SELECT `+requirementColumns+` FROM document_requirements WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// CreateRequirement inserts a requirement.
func (r *DocumentRepository) CreateRequirement(ctx context.Context, req *models.DocumentRequirement) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	const query = `INSERT INTO document_requirements (id, subject_kind, document_type, name, description, required, has_expiry, badge_color, active, created_at, updated_at)
        VALUES (:id, :subject_kind, :document_type, :name, :description, :required, :has_expiry, :badge_color, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return mapWriteError("create document requirement", err)
	}
	return nil
}

// UpdateRequirement modifies a requirement.
func (r *DocumentRepository) UpdateRequirement(ctx context.Context, req *models.DocumentRequirement) error {
	req.UpdatedAt = time.Now().UTC()
	const query = `UPDATE document_requirements SET subject_kind = :subject_kind, document_type = :document_type, name = :name, description = :description,
        required = :required, has_expiry = :has_expiry, badge_color = :badge_color, active = :active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, req)
	if err != nil {
		return mapWriteError("update document requirement", err)
	}
	return expectRow(res)
}

// DeleteRequirement removes a requirement.
func (r *DocumentRepository) DeleteRequirement(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM document_requirements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document requirement: %w", err)
	}
	return expectRow(res)
}
