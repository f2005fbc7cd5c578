// Package models defines the domain types for Mannaz.
package models

import "time"

// ContactRecord is the structured result of extracting a business card image.
// Every field is optional: absent scalars render as "-" and absent lists as
// a single "-" line at note-composition time, not here.
type ContactRecord struct {
	Name     string   `json:"name"`
	Company  string   `json:"company"`
	Position string   `json:"position"`
	Phones   []string `json:"phones"`
	Emails   []string `json:"emails"`
	Website  string   `json:"website"`
	Address  string   `json:"address"`
	RawText  string   `json:"rawText"`
}

// ImageAsset is a card image sitting in the vault inbox, identified by its
// path relative to the vault root.
type ImageAsset struct {
	Path     string    `json:"path"`
	MIMEType string    `json:"mime_type"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mod_time"`
}

// RotationCandidate pairs one of the four probe angles with its rendered
// buffer and the readability score the model assigned to it. Candidates are
// ephemeral: they exist only while the selector runs.
type RotationCandidate struct {
	Angle    int
	Data     []byte
	MIMEType string
	Score    int
}

// FileMetadata is a lightweight representation of a vault file returned by
// storage list and stat operations.
type FileMetadata struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContactMetadata is a lightweight representation returned by list operations.
type ContactMetadata struct {
	NotePath  string    `json:"note_path"`
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	UpdatedAt time.Time `json:"updated_at"`
}
