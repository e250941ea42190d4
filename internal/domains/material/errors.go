package material

import "digital-library-backend/internal/shared/apperror"

var (
	ErrMaterialNotFound = apperror.NewNotFound("Material")
	ErrBookNotFound     = apperror.NewNotFound("Livro")
	ErrArticleNotFound  = apperror.NewNotFound("Artigo")
	ErrVideoNotFound    = apperror.NewNotFound("Vídeo")

	ErrEditForbidden   = apperror.NewAuthorization("Você não tem permissão para editar este material")
	ErrDeleteForbidden = apperror.NewAuthorization("Você não tem permissão para excluir este material")

	ErrAuthorMissing = &apperror.ReferenceError{
		Message: "Autor informado não existe",
		Code:    apperror.CodeReference,
	}
	ErrCreatorMissing = &apperror.ReferenceError{
		Message: "Usuário informado não existe",
		Code:    apperror.CodeReference,
	}
)

// NotFoundFor returns the not-found error named after kind.
func NotFoundFor(kind Kind) *apperror.NotFoundError {
	switch kind {
	case KindBook:
		return ErrBookNotFound
	case KindArticle:
		return ErrArticleNotFound
	case KindVideo:
		return ErrVideoNotFound
	}
	return ErrMaterialNotFound
}

// ErrKindImmutable rejects changing a material's kind.
func ErrKindImmutable() *apperror.ValidationError {
	return apperror.NewValidation("tipo", "não pode ser alterado")
}

// ErrDuplicate reports a natural key already taken.
func ErrDuplicate(field string) *apperror.ValidationError {
	return apperror.NewValidation(field, "já está em uso")
}
