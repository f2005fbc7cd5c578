package index

// ContactIndex defines the interface for contact indexing operations.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type ContactIndex interface {
	UpsertContact(row ContactRow) error
	DeleteContact(notePath string) error
	GetContact(notePath string) (*ContactRow, error)
	ListContacts(limit, offset int) ([]ContactRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllPaths() (map[string]struct{}, error)
	Close() error
}

// Verify *DB satisfies ContactIndex at compile time.
var _ ContactIndex = (*DB)(nil)
