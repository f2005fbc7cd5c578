// Package notegen renders contact records into deterministic Markdown notes
// and back. The body layout is a fixed contract: field order, bullet shape,
// and the trailing embed are stable so external tooling can rely on them.
package notegen

import (
	"fmt"
	"path"
	"strings"

	"github.com/starford/mannaz/internal/models"
)

// forbiddenNameChars are stripped from contact names before they become
// file names.
const forbiddenNameChars = `\/:"*?<>|`

// fallbackFileName substitutes a name that sanitizes to nothing.
const fallbackFileName = "contact"

// SanitizeFileName strips filesystem-hostile characters and trims the
// result; an empty result becomes "contact".
func SanitizeFileName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if strings.ContainsRune(forbiddenNameChars, r) {
			continue
		}
		sb.WriteRune(r)
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return fallbackFileName
	}
	return out
}

// placeholder renders "-" for absent scalar fields.
func placeholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// Compose renders the fixed-order note body for a contact record with the
// given image embedded at the end. Field order is the external contract:
// company, position, phones, emails, website, address, a rule, the raw
// recognized text, then the embed.
func Compose(rec *models.ContactRecord, embedName string) string {
	var sb strings.Builder

	sb.WriteString("Company: " + placeholder(rec.Company) + "\n")
	sb.WriteString("Position: " + placeholder(rec.Position) + "\n")
	writeList(&sb, "Phones", rec.Phones)
	writeList(&sb, "Emails", rec.Emails)
	sb.WriteString("Website: " + placeholder(rec.Website) + "\n")
	sb.WriteString("Address: " + placeholder(rec.Address) + "\n")
	sb.WriteString("\n---\n\n")
	sb.WriteString(placeholder(rec.RawText) + "\n")
	sb.WriteString("\n![[" + embedName + "]]\n")

	return sb.String()
}

func writeList(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		sb.WriteString(label + ": -\n")
		return
	}
	sb.WriteString(label + ":\n")
	for _, it := range items {
		sb.WriteString("- " + it + "\n")
	}
}

// ResolvePath returns dir/<base>.<ext>, linearly probing " (1)", " (2)", …
// suffixes until exists reports a free path. The probe is deterministic for
// a given existing-file set.
func ResolvePath(dir, base, ext string, exists func(string) bool) string {
	candidate := path.Join(dir, base+ext)
	for n := 1; exists(candidate); n++ {
		candidate = path.Join(dir, fmt.Sprintf("%s (%d)%s", base, n, ext))
	}
	return candidate
}
