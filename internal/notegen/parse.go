package notegen

import (
	"regexp"
	"strings"

	"github.com/starford/mannaz/internal/models"
)

var embedRe = regexp.MustCompile(`!\[\[(.+?)\]\]`)

// ParseNote is the inverse of Compose: it reads a contact note body back
// into a record plus the embedded image name. The name comes from the note's
// file name, not the body, so callers supply it separately. Returns ok=false
// for notes that do not follow the contact layout (the sync pass skips
// those rather than guessing).
func ParseNote(body string) (rec *models.ContactRecord, embed string, ok bool) {
	sepIdx := strings.Index(body, "\n---\n")
	if sepIdx < 0 {
		return nil, "", false
	}

	head := body[:sepIdx]
	tail := body[sepIdx+len("\n---\n"):]

	rec = &models.ContactRecord{}
	seenCompany := false

	lines := strings.Split(head, "\n")
	var list *[]string
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "Company: "):
			rec.Company = fromPlaceholder(strings.TrimPrefix(line, "Company: "))
			seenCompany = true
			list = nil
		case strings.HasPrefix(line, "Position: "):
			rec.Position = fromPlaceholder(strings.TrimPrefix(line, "Position: "))
			list = nil
		case line == "Phones:":
			list = &rec.Phones
		case line == "Emails:":
			list = &rec.Emails
		case strings.HasPrefix(line, "Phones: "), strings.HasPrefix(line, "Emails: "):
			// "Phones: -" means empty list.
			list = nil
		case strings.HasPrefix(line, "Website: "):
			rec.Website = fromPlaceholder(strings.TrimPrefix(line, "Website: "))
			list = nil
		case strings.HasPrefix(line, "Address: "):
			rec.Address = fromPlaceholder(strings.TrimPrefix(line, "Address: "))
			list = nil
		case strings.HasPrefix(line, "- ") && list != nil:
			*list = append(*list, strings.TrimPrefix(line, "- "))
		}
	}
	if !seenCompany {
		return nil, "", false
	}

	if m := embedRe.FindStringSubmatch(tail); m != nil {
		embed = m[1]
		tail = strings.Replace(tail, m[0], "", 1)
	}
	rec.RawText = fromPlaceholder(strings.TrimSpace(tail))

	return rec, embed, true
}

func fromPlaceholder(s string) string {
	if s == "-" {
		return ""
	}
	return s
}
