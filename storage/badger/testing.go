package badger

// NewMemoryStore creates an in-memory store for testing.
// Closing the store also closes its backend.
func NewMemoryStore() (*Store, error) {
	backend, err := OpenBackend("", nil)
	if err != nil {
		return nil, err
	}

	store, err := NewStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	store.owned = true
	return store, nil
}
