package user

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"digital-library-backend/internal/shared/apperror"
)

const MinPasswordLength = 6

// ========================================
// AUTH DTOs
// ========================================

// RegisterRequest - POST /autenticacao/registrar
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validateCredentials(NormalizeEmail(r.Email), r.Password, true)
}

// LoginRequest - POST /autenticacao/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MissingFields lists required login fields left blank.
func (r LoginRequest) MissingFields() []string {
	return missing(map[string]string{"email": r.Email, "password": r.Password})
}

// MissingFields lists required registration fields left blank.
func (r RegisterRequest) MissingFields() []string {
	return missing(map[string]string{"email": r.Email, "password": r.Password})
}

// UpdateProfileRequest - PUT /autenticacao/perfil. A blank password is ignored.
type UpdateProfileRequest struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// ========================================
// RESPONSE DTOs
// ========================================

type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"criado_em"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expira_em"`
	User      UserDTO   `json:"usuario"`
}

type ProfileDTO struct {
	UserDTO
	TotalMaterials int `json:"total_materiais"`
}

type TokenCheckDTO struct {
	Valid bool `json:"valido"`
	User  struct {
		ID    uuid.UUID `json:"id"`
		Email string    `json:"email"`
	} `json:"usuario"`
}

// validateCredentials applies the account field rules. The password is only
// checked when required or when one was supplied.
func validateCredentials(email, password string, passwordRequired bool) error {
	errs := validation.Errors{
		"email": validation.Validate(email,
			validation.Required.Error("não pode estar em branco"),
			is.EmailFormat.Error("deve ter um formato válido"),
		),
	}
	if passwordRequired || password != "" {
		errs["password"] = validation.Validate(password,
			validation.Required.Error("não pode estar em branco"),
			validation.RuneLength(MinPasswordLength, 0).Error("deve ter pelo menos 6 caracteres"),
		)
	}
	return apperror.FromValidation(errs.Filter())
}

func missing(fields map[string]string) []string {
	var out []string
	for _, name := range []string{"email", "password"} {
		if v, ok := fields[name]; ok && strings.TrimSpace(v) == "" {
			out = append(out, name)
		}
	}
	return out
}

// ValidateProfile checks a profile update. A blank password means unchanged.
func ValidateProfile(email, password string) error {
	return validateCredentials(email, password, false)
}
