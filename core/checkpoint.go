package core

import "time"

// Checkpoint records how far a copy between two stores got.
type Checkpoint struct {
	// Key names the source and target pair.
	Key string

	// Done lists the categories whose items were all copied.
	Done []ID

	UpdatedAt time.Time
}
