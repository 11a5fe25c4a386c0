// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the data shapes exchanged with the remote
// attendance service. Field tags follow the service's wire format,
// which uses French field names and Mongo-style `_id` identifiers.
package model

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles known to the service.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// User is the authenticated identity as returned by the service.
// Track, Level and Committee are only populated for members.
type User struct {
	ID        string `json:"_id"`
	LastName  string `json:"nom"`
	FirstName string `json:"prenom"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Track     string `json:"filiere,omitempty"`
	Level     string `json:"niveau,omitempty"`
	Committee string `json:"comite,omitempty"`
}

// FullName returns the "LASTNAME Firstname" display form.
func (u User) FullName() string {
	return fmt.Sprintf("%s %s", u.LastName, u.FirstName)
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Meeting is a read-only copy of a meeting owned by the service.
// Code is the opaque unique string embedded verbatim in the meeting's
// QR image; the service assigns it at creation time.
type Meeting struct {
	ID    string    `json:"_id"`
	Title string    `json:"titre"`
	Date  time.Time `json:"date"`
	Code  string    `json:"code"`
}

// AttendanceRecord is one registered presence. The service creates
// these; the client only displays them and uses them for local
// duplicate detection. The meeting and user references arrive
// populated (the service expands them on read).
type AttendanceRecord struct {
	ID           string    `json:"_id"`
	Meeting      Meeting   `json:"meetingId"`
	User         User      `json:"userId"`
	RegisteredAt time.Time `json:"presenceAt"`
}

// Tracks, Levels and Committees are the closed option sets offered by
// the registration form. The service validates them too; keeping them
// here lets forms reject a missing choice before any request is made.
var (
	Tracks = []string{
		"SRIT", "SIGL", "TWIN", "CSIA", "ENTD", "MBDS",
		"BIHAR", "RTEL", "SITW", "MP2I", "MPI", "ERIS",
	}
	Levels     = []string{"L1", "L2", "L3", "M1", "M2"}
	Committees = []string{
		"Comité Digital", "Comité Communication",
		"Comité Protocole", "Comité Sécrétariat", "Autre",
	}
)
