package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mannaz/internal/contactservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// vaultRoot and attachmentsDir locate the archived card images.
func NewRouter(svc *contactservice.Service, authEnabled bool, token string, sseHandler http.Handler, vaultRoot, attachmentsDir string) chi.Router {
	h := NewHandler(svc)
	ah := NewAttachmentHandler(vaultRoot, attachmentsDir)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Contacts.
	r.Get("/contacts", h.ListContacts)
	r.Get("/contacts/*", h.GetContact)
	r.Delete("/contacts/*", h.DeleteContact)

	// Search.
	r.Get("/search", h.Search)

	// Card image intake (auth-protected).
	r.Post("/inbox", h.UploadCard)

	// Archived card images.
	r.Get("/attachments/{filename}", ah.ServeFile)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
