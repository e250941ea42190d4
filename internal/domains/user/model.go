package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account that owns catalog materials.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"criado_em" db:"created_at"`
	UpdatedAt    time.Time `json:"atualizado_em" db:"updated_at"`
}

// NormalizeEmail trims and lowercases an address before validation and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ToDTO strips credentials.
func (u *User) ToDTO() UserDTO {
	return UserDTO{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}
