package models

import "github.com/google/uuid"

// ensureID assigns a random UUID when the caller left the primary key empty.
// Postgres also defaults the column, but generating it here keeps sqlite test
// databases and returned structs in sync.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
