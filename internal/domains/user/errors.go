package user

import "digital-library-backend/internal/shared/apperror"

const (
	msgInvalidCredentials = "Email ou senha inválidos"
	msgTokenMissing       = "Token de autenticação não fornecido"
	msgTokenInvalid       = "Token de autenticação inválido ou expirado"
	msgEmailTaken         = "já está em uso"
)

var (
	ErrInvalidCredentials = &apperror.AuthenticationError{Message: msgInvalidCredentials}
	ErrTokenMissing       = &apperror.AuthenticationError{Message: msgTokenMissing}
	ErrTokenInvalid       = &apperror.AuthenticationError{Message: msgTokenInvalid}
	ErrUserNotFound       = apperror.NewNotFound("Usuário")
)

// ErrEmailTaken is the validation failure for a duplicate address.
func ErrEmailTaken() *apperror.ValidationError {
	return apperror.NewValidation("email", msgEmailTaken)
}
