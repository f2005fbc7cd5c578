//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS contacts_fts USING fts5(
			note_path UNINDEXED,
			name,
			company,
			raw_text,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, notePath, name, company, rawText string) error {
	_, _ = tx.Exec(`DELETE FROM contacts_fts WHERE note_path = ?`, notePath)
	_, err := tx.Exec(`INSERT INTO contacts_fts (note_path, name, company, raw_text) VALUES (?, ?, ?, ?)`,
		notePath, name, company, rawText)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, notePath string) {
	_, _ = tx.Exec(`DELETE FROM contacts_fts WHERE note_path = ?`, notePath)
}

// Search performs an FTS5 full-text search and returns matching contacts
// with snippets from the recognized card text.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT note_path,
		       name,
		       snippet(contacts_fts, 3, '<b>', '</b>', '...', 64)
		FROM contacts_fts
		WHERE contacts_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.NotePath, &r.Name, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
