package model

import "github.com/google/uuid"

// ensureID assigns a fresh UUID to an unset primary key.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
