package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/pkg/database"
)

const passengerColumns = `p.id, p.full_name, p.date_of_birth, p.address, p.postcode, p.school_id, p.mobility_needs, p.notes, p.active, p.created_at, p.updated_at`

// PassengerRepository persists passengers and their parent contacts.
type PassengerRepository struct {
	db *sqlx.DB
}

// NewPassengerRepository constructs a PassengerRepository.
func NewPassengerRepository(db *sqlx.DB) *PassengerRepository {
	return &PassengerRepository{db: db}
}

// List returns passengers with the total count.
func (r *PassengerRepository) List(ctx context.Context, filter models.PassengerFilter) ([]models.PassengerDetail, int, error) {
	where := newWhere()
	if filter.SchoolID != "" {
		where.add("p.school_id = $%[1]d", filter.SchoolID)
	}
	if filter.Active != nil {
		where.add("p.active = $%[1]d", *filter.Active)
	}
	where.search(filter.Search, "p.full_name", "p.postcode")

	opts := filter.ListOptions
	order := orderClause(opts, map[string]string{"full_name": "p.full_name", "created_at": "p.created_at"}, "full_name", "ASC")
	page := pageClause(&opts, 20)

	var passengers []models.PassengerDetail
	query := fmt.Sprintf(`SELECT %s, s.name AS school_name FROM passengers p LEFT JOIN schools s ON s.id = p.school_id %s %s %s`, passengerColumns, where, order, page)
	if err := r.db.SelectContext(ctx, &passengers, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list passengers: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM passengers p "+where.String(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count passengers: %w", err)
	}
	return passengers, total, nil
}

// FindByID returns a passenger with contacts.
func (r *PassengerRepository) FindByID(ctx context.Context, id string) (*models.PassengerDetail, error) {
	var detail models.PassengerDetail
	query := `SELECT ` + passengerColumns + `, s.name AS school_name FROM passengers p LEFT JOIN schools s ON s.id = p.school_id WHERE p.id = $1`
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	contacts, err := r.ListContacts(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Contacts = contacts
	return &detail, nil
}

// ListContacts returns the contacts linked to a passenger, primary first.
func (r *PassengerRepository) ListContacts(ctx context.Context, passengerID string) ([]models.ParentContact, error) {
	contacts := []models.ParentContact{}
	const query = `SELECT c.id, c.full_name, c.relationship, c.phone, c.email, c.address, c.is_primary, c.created_at
        FROM parent_contacts c JOIN passenger_parent_contacts pc ON pc.contact_id = c.id
        WHERE pc.passenger_id = $1 ORDER BY c.is_primary DESC, c.full_name`
	if err := r.db.SelectContext(ctx, &contacts, query, passengerID); err != nil {
		return nil, fmt.Errorf("list parent contacts: %w", err)
	}
	return contacts, nil
}

// Create inserts a passenger and its contacts in one transaction.
func (r *PassengerRepository) Create(ctx context.Context, passenger *models.Passenger, contacts []models.ParentContact) error {
	if passenger.ID == "" {
		passenger.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	passenger.CreatedAt = now
	passenger.UpdatedAt = now
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO passengers (id, full_name, date_of_birth, address, postcode, school_id, mobility_needs, notes, active, created_at, updated_at)
            VALUES (:id, :full_name, :date_of_birth, :address, :postcode, :school_id, :mobility_needs, :notes, :active, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, passenger); err != nil {
			return mapWriteError("create passenger", err)
		}
		return insertContacts(ctx, tx, passenger.ID, contacts)
	})
}

// Update modifies a passenger. When contacts is non-nil the linked contacts
// are replaced in the same transaction.
func (r *PassengerRepository) Update(ctx context.Context, passenger *models.Passenger, contacts []models.ParentContact) error {
	passenger.UpdatedAt = time.Now().UTC()
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `UPDATE passengers SET full_name = :full_name, date_of_birth = :date_of_birth, address = :address, postcode = :postcode,
            school_id = :school_id, mobility_needs = :mobility_needs, notes = :notes, active = :active, updated_at = :updated_at WHERE id = :id`
		res, err := tx.NamedExecContext(ctx, query, passenger)
		if err != nil {
			return mapWriteError("update passenger", err)
		}
		if err := expectRow(res); err != nil {
			return err
		}
		if contacts == nil {
			return nil
		}
		if err := deleteContacts(ctx, tx, passenger.ID); err != nil {
			return err
		}
		return insertContacts(ctx, tx, passenger.ID, contacts)
	})
}

// Delete removes a passenger together with contacts no other passenger uses.
func (r *PassengerRepository) Delete(ctx context.Context, id string) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := deleteContacts(ctx, tx, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM passengers WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete passenger: %w", err)
		}
		return expectRow(res)
	})
}

// CountActive returns the number of active passengers.
func (r *PassengerRepository) CountActive(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM passengers WHERE active = TRUE`); err != nil {
		return 0, fmt.Errorf("count passengers: %w", err)
	}
	return total, nil
}

func insertContacts(ctx context.Context, tx *sqlx.Tx, passengerID string, contacts []models.ParentContact) error {
	now := time.Now().UTC()
	const query = `INSERT INTO parent_contacts (id, full_name, relationship, phone, email, address, is_primary, created_at)
        VALUES (:id, :full_name, :relationship, :phone, :email, :address, :is_primary, :created_at)`
	for i := range contacts {
		c := &contacts[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, c); err != nil {
			return mapWriteError("create parent contact", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO passenger_parent_contacts (passenger_id, contact_id) VALUES ($1, $2)`, passengerID, c.ID); err != nil {
			return mapWriteError("link parent contact", err)
		}
	}
	return nil
}

func deleteContacts(ctx context.Context, tx *sqlx.Tx, passengerID string) error {
	var ids []string
	if err := tx.SelectContext(ctx, &ids, `DELETE FROM passenger_parent_contacts WHERE passenger_id = $1 RETURNING contact_id`, passengerID); err != nil {
		return fmt.Errorf("unlink parent contacts: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM parent_contacts c WHERE c.id IN (?) AND NOT EXISTS (SELECT 1 FROM passenger_parent_contacts pc WHERE pc.contact_id = c.id)`, ids)
	if err != nil {
		return fmt.Errorf("build contact cleanup: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete orphan contacts: %w", err)
	}
	return nil
}
