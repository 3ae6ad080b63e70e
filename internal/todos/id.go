package todos

import "github.com/google/uuid"

// newID returns a UUIDv7: a millisecond timestamp followed by random bits,
// so ids minted in the same millisecond still differ.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// uniqueID draws from the generator until the id is unused in this store.
func (s *Store) uniqueID() string {
	for {
		id := s.newID()
		if id != "" && s.index(id) < 0 {
			return id
		}
	}
}
