package author

import "digital-library-backend/internal/shared/apperror"

var (
	ErrAuthorNotFound = apperror.NewNotFound("Autor")

	ErrAuthorHasMaterials = &apperror.ReferenceError{
		Message: "Não é possível excluir autor que possui materiais associados",
		Code:    apperror.CodeAuthorInUse,
	}
)

// ErrKindImmutable rejects changing an author between person and institution.
func ErrKindImmutable() *apperror.ValidationError {
	return apperror.NewValidation("tipo", "não pode ser alterado")
}

// ErrInvalidDate is returned for a birth date not in YYYY-MM-DD form.
func ErrInvalidDate() *apperror.ValidationError {
	return apperror.NewValidation("data_nascimento", "deve estar no formato AAAA-MM-DD")
}
