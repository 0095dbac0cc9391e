// Administrative identity registry methods. The store is the only
// component that mutates identity records; secret material never
// appears here.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/clearsite/clearsite/pkg/authority"
	"github.com/clearsite/clearsite/pkg/identity"
)

// ErrDuplicateHandle is returned when inserting a record whose contact
// handle is already registered.
var ErrDuplicateHandle = identity.ErrDuplicateHandle

// ErrIdentityNotFound is returned when deleting a record that does not exist.
var ErrIdentityNotFound = fmt.Errorf("identity not found")

// Insert adds a new identity record. Tiers outside the two storable
// tiers are rejected by the schema check as well as here.
func (s *Store) Insert(rec *identity.Record) error {
	if !rec.Tier.Storable() {
		return fmt.Errorf("tier %s is not storable", rec.Tier)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT INTO identities (id, contact_handle, tier, display_name, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.ContactHandle, rec.Tier.String(), rec.DisplayName, createdAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: identities.contact_handle") {
			return ErrDuplicateHandle
		}
		return fmt.Errorf("failed to insert identity: %w", err)
	}
	return nil
}

// FindBySubjectID returns the record keyed by a verified subject id,
// or nil when none exists.
func (s *Store) FindBySubjectID(id string) (*identity.Record, error) {
	row := s.db.QueryRow(
		`SELECT id, contact_handle, tier, display_name, created_at FROM identities WHERE id = ?`,
		id,
	)
	return s.scanIdentity(row)
}

// FindByHandle returns the record with the given contact handle, or nil
// when none exists.
func (s *Store) FindByHandle(handle string) (*identity.Record, error) {
	row := s.db.QueryRow(
		`SELECT id, contact_handle, tier, display_name, created_at FROM identities WHERE contact_handle = ?`,
		handle,
	)
	return s.scanIdentity(row)
}

// Delete removes an identity record by id.
func (s *Store) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM identities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrIdentityNotFound
	}
	return nil
}

// ListAll returns every identity record ordered by contact handle.
func (s *Store) ListAll() ([]*identity.Record, error) {
	rows, err := s.db.Query(
		`SELECT id, contact_handle, tier, display_name, created_at FROM identities ORDER BY contact_handle`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()

	var recs []*identity.Record
	for rows.Next() {
		rec, err := s.scanIdentityRows(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// CountIdentities returns the number of identity records.
func (s *Store) CountIdentities() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM identities`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count identities: %w", err)
	}
	return count, nil
}

// FindSubject implements authority.RecordSource over the registry.
func (s *Store) FindSubject(subjectID string) (*authority.SubjectRecord, error) {
	rec, err := s.FindBySubjectID(subjectID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return &authority.SubjectRecord{
		ID:            rec.ID,
		Tier:          rec.Tier,
		ContactHandle: rec.ContactHandle,
	}, nil
}

func (s *Store) scanIdentity(row *sql.Row) (*identity.Record, error) {
	var rec identity.Record
	var tier string
	var createdAt int64

	err := row.Scan(&rec.ID, &rec.ContactHandle, &tier, &rec.DisplayName, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan identity: %w", err)
	}

	parsed, err := authority.ParseTier(tier)
	if err != nil {
		return nil, fmt.Errorf("failed to scan identity: %w", err)
	}
	rec.Tier = parsed
	rec.CreatedAt = time.Unix(createdAt, 0)
	return &rec, nil
}

func (s *Store) scanIdentityRows(rows *sql.Rows) (*identity.Record, error) {
	var rec identity.Record
	var tier string
	var createdAt int64

	if err := rows.Scan(&rec.ID, &rec.ContactHandle, &tier, &rec.DisplayName, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to scan identity: %w", err)
	}

	parsed, err := authority.ParseTier(tier)
	if err != nil {
		return nil, fmt.Errorf("failed to scan identity: %w", err)
	}
	rec.Tier = parsed
	rec.CreatedAt = time.Unix(createdAt, 0)
	return &rec, nil
}
