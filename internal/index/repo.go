package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/mannaz/internal/models"
)

// ContactRow represents a row in the contacts table.
type ContactRow struct {
	NotePath  string
	Record    models.ContactRecord
	ImagePath string
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	NotePath string
	Name     string
	Snippet  string
}

// UpsertContact inserts or replaces a contact and its FTS entry within a
// transaction.
func (db *DB) UpsertContact(row ContactRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	phonesJSON, _ := json.Marshal(row.Record.Phones)
	emailsJSON, _ := json.Marshal(row.Record.Emails)

	_, err = tx.Exec(`
		INSERT INTO contacts (note_path, name, company, position, phones, emails, website, address, raw_text, image_path, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(note_path) DO UPDATE SET
			name       = excluded.name,
			company    = excluded.company,
			position   = excluded.position,
			phones     = excluded.phones,
			emails     = excluded.emails,
			website    = excluded.website,
			address    = excluded.address,
			raw_text   = excluded.raw_text,
			image_path = excluded.image_path,
			updated_at = excluded.updated_at
	`, row.NotePath, row.Record.Name, row.Record.Company, row.Record.Position,
		string(phonesJSON), string(emailsJSON), row.Record.Website,
		row.Record.Address, row.Record.RawText, row.ImagePath, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert contact: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, row.NotePath, row.Record.Name, row.Record.Company, row.Record.RawText); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteContact removes a contact and its FTS entry.
func (db *DB) DeleteContact(notePath string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, notePath)
	_, _ = tx.Exec(`DELETE FROM contacts WHERE note_path = ?`, notePath)

	return tx.Commit()
}

// GetContact returns a single contact row or apperr-style nil when absent.
func (db *DB) GetContact(notePath string) (*ContactRow, error) {
	row := db.conn.QueryRow(`
		SELECT note_path, name, company, position, phones, emails, website, address, raw_text, image_path, updated_at
		FROM contacts WHERE note_path = ?
	`, notePath)
	c, err := scanContact(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("index: get contact: %w", err)
	}
	return c, nil
}

// ListContacts returns paginated contacts ordered by name, plus the total
// count.
func (db *DB) ListContacts(limit, offset int) ([]ContactRow, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM contacts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count contacts: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT note_path, name, company, position, phones, emails, website, address, raw_text, image_path, updated_at
		FROM contacts
		ORDER BY name COLLATE NOCASE, note_path
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list contacts: %w", err)
	}
	defer rows.Close()

	var out []ContactRow
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

// AllPaths returns every indexed note path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT note_path FROM contacts`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(r rowScanner) (*ContactRow, error) {
	var (
		c          ContactRow
		phonesJSON string
		emailsJSON string
	)
	err := r.Scan(&c.NotePath, &c.Record.Name, &c.Record.Company, &c.Record.Position,
		&phonesJSON, &emailsJSON, &c.Record.Website, &c.Record.Address,
		&c.Record.RawText, &c.ImagePath, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(phonesJSON), &c.Record.Phones)
	_ = json.Unmarshal([]byte(emailsJSON), &c.Record.Emails)
	return &c, nil
}
