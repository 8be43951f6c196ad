// Package auth is the session collaborator: it verifies cashier
// credentials and stamps requests with the acting user. Permission
// policy beyond role names lives outside this core.
package auth

import (
	"time"

	"farmapos/internal/core/id"
)

// Roles recognized by the POS.
const (
	RoleAdmin      = "admin"
	RolePharmacist = "pharmacist"
	RoleCashier    = "cashier"
)

// User is a staff account that can operate the POS.
type User struct {
	ID           id.ID     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	FullName     string    `db:"full_name" json:"fullName"`
	Role         string    `db:"role" json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
