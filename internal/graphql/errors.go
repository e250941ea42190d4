package graphql

import (
	"errors"

	"github.com/rs/zerolog/log"

	"digital-library-backend/internal/shared/apperror"
)

// codedError carries the API error code into the GraphQL errors array as
// extensions.codigo.
type codedError struct {
	err error
}

func coded(err error) error {
	if err == nil {
		return nil
	}
	var ce *codedError
	if errors.As(err, &ce) {
		return err
	}
	if apperror.IsInternal(err) {
		log.Error().Err(err).Msg("graphql resolver failed")
	}
	return &codedError{err: err}
}

func (e *codedError) Error() string {
	if apperror.IsInternal(e.err) {
		return "Erro interno do servidor"
	}
	return e.err.Error()
}

func (e *codedError) Unwrap() error { return e.err }

func (e *codedError) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"codigo": apperror.Code(e.err)}

	var ve *apperror.ValidationError
	if errors.As(e.err, &ve) {
		ext["detalhes"] = ve.Messages()
	}
	var br *apperror.BadRequestError
	if errors.As(e.err, &br) && len(br.MissingFields) > 0 {
		ext["campos_faltando"] = br.MissingFields
	}
	return ext
}

// notFound reports whether err means the lookup found nothing. Single-object
// queries answer null in that case.
func notFound(err error) bool {
	var nf *apperror.NotFoundError
	return errors.As(err, &nf)
}
