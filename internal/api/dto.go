package api

import "github.com/starford/mannaz/internal/contactservice"

// ContactDetail is the full contact response type (aliased from the domain layer).
type ContactDetail = contactservice.ContactDetail

// ContactListItem is a lightweight item in a list response (aliased from the domain layer).
type ContactListItem = contactservice.ContactListItem

// ContactListResponse wraps paginated contact listings.
type ContactListResponse struct {
	Contacts []ContactListItem `json:"contacts" validate:"required"`
	Total    int               `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"contacts/Jane Doe.md" validate:"required"`
	Name    string `json:"name" example:"Jane Doe" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// InboxUploadResponse is returned after a card image lands in the inbox.
type InboxUploadResponse struct {
	Path string `json:"path" example:"inbox/card.jpg" validate:"required"`
	Size int64  `json:"size" example:"12345" validate:"required"`
}
