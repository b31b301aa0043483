// Copyright (c) 2026 SafHub. All rights reserved.

/*
Package uuid generates the time-ordered identifiers used for accounts and
refresh sessions.

Version 7 values sort by creation time, which keeps the users.session index
append-mostly.
*/
package uuid

import "github.com/google/uuid"

// New generates a new UUIDv7 string. It panics only if the system entropy
// source fails.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}
	return id.String()
}

// Valid reports whether raw parses as a UUID of any version.
func Valid(raw string) bool {
	return uuid.Validate(raw) == nil
}
