package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Error codes returned to API clients in the "codigo" field.
const (
	CodeValidation      = "ERRO_VALIDACAO"
	CodeNotFound        = "ERRO_NAO_ENCONTRADO"
	CodeAuthentication  = "ERRO_AUTENTICACAO"
	CodeAuthorization   = "ERRO_AUTORIZACAO"
	CodeMissingParams   = "ERRO_PARAMETROS"
	CodeReference       = "ERRO_REFERENCIA"
	CodeAuthorInUse     = "ERRO_AUTOR_COM_MATERIAIS"
	CodeExternalService = "ERRO_API_OPENLIBRARY"
	CodeInternal        = "ERRO_INTERNO"
)

// ValidationError carries field-level messages (field name -> messages).
type ValidationError struct {
	Fields map[string][]string
}

func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

func (e *ValidationError) Error() string {
	return "Dados inválidos: " + strings.Join(e.Messages(), "; ")
}

// Add appends a message for field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Merge copies every message from other, prefixing field names.
func (e *ValidationError) Merge(prefix string, other *ValidationError) {
	if other == nil {
		return
	}
	for field, msgs := range other.Fields {
		name := field
		if prefix != "" {
			name = prefix + "." + field
		}
		for _, m := range msgs {
			e.Add(name, m)
		}
	}
}

func (e *ValidationError) HasErrors() bool { return len(e.Fields) > 0 }

// Messages renders "<field> <message>" strings sorted by field.
func (e *ValidationError) Messages() []string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		for _, m := range e.Fields[f] {
			if f == "base" {
				out = append(out, m)
				continue
			}
			out = append(out, f+" "+m)
		}
	}
	return out
}

// FromValidation converts ozzo-validation errors into a ValidationError.
// Internal (non-validation) errors are returned unchanged.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		var internal validation.InternalError
		if errors.As(err, &internal) {
			return internal
		}
		return &ValidationError{Fields: map[string][]string{"base": {err.Error()}}}
	}

	out := &ValidationError{}
	collect(out, "", errs)
	if !out.HasErrors() {
		return nil
	}
	return out
}

func collect(out *ValidationError, prefix string, errs validation.Errors) {
	for field, fe := range errs {
		if fe == nil {
			continue
		}
		name := field
		if prefix != "" {
			name = prefix + "." + field
		}
		var nested validation.Errors
		if errors.As(fe, &nested) {
			collect(out, name, nested)
			continue
		}
		out.Add(name, fe.Error())
	}
}

type NotFoundError struct {
	Resource string
}

func NewNotFound(resource string) *NotFoundError { return &NotFoundError{Resource: resource} }

func (e *NotFoundError) Error() string {
	if e.Resource == "" {
		return "Recurso não encontrado"
	}
	return e.Resource + " não encontrado"
}

type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

type AuthorizationError struct {
	Message string
}

func NewAuthorization(msg string) *AuthorizationError {
	if msg == "" {
		msg = "Você não tem permissão para realizar esta ação"
	}
	return &AuthorizationError{Message: msg}
}

func (e *AuthorizationError) Error() string { return e.Message }

// MissingSubtypeError reports a material whose detail record for kind is absent.
type MissingSubtypeError struct {
	Kind string
}

func (e *MissingSubtypeError) Error() string {
	return fmt.Sprintf("%s deve ser criado", e.Kind)
}

type ExternalServiceError struct {
	Service string
	Message string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Service, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// ReferenceError reports a dangling or still-referenced foreign key.
type ReferenceError struct {
	Message string
	Code    string
}

func (e *ReferenceError) Error() string { return e.Message }

// BadRequestError reports malformed or incomplete input rejected before any domain validation.
type BadRequestError struct {
	Message       string
	Code          string
	MissingFields []string
}

func NewMissingParams(fields ...string) *BadRequestError {
	return &BadRequestError{
		Message:       "Parâmetros obrigatórios não fornecidos",
		Code:          CodeMissingParams,
		MissingFields: fields,
	}
}

func (e *BadRequestError) Error() string { return e.Message }

// Code returns the API error code for err.
func Code(err error) string {
	var (
		ve  *ValidationError
		nf  *NotFoundError
		ae  *AuthenticationError
		ze  *AuthorizationError
		ms  *MissingSubtypeError
		ext *ExternalServiceError
		ref *ReferenceError
		br  *BadRequestError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &ms):
		return CodeValidation
	case errors.As(err, &nf):
		return CodeNotFound
	case errors.As(err, &ae):
		return CodeAuthentication
	case errors.As(err, &ze):
		return CodeAuthorization
	case errors.As(err, &ext):
		return CodeExternalService
	case errors.As(err, &ref):
		if ref.Code != "" {
			return ref.Code
		}
		return CodeReference
	case errors.As(err, &br):
		if br.Code != "" {
			return br.Code
		}
		return CodeMissingParams
	default:
		return CodeInternal
	}
}

// HTTPStatus returns the HTTP status class for err.
func HTTPStatus(err error) int {
	var (
		ve  *ValidationError
		nf  *NotFoundError
		ae  *AuthenticationError
		ze  *AuthorizationError
		ms  *MissingSubtypeError
		ext *ExternalServiceError
		ref *ReferenceError
		br  *BadRequestError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &ms), errors.As(err, &ext), errors.As(err, &ref):
		return http.StatusUnprocessableEntity
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ae):
		return http.StatusUnauthorized
	case errors.As(err, &ze):
		return http.StatusForbidden
	case errors.As(err, &br):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// IsInternal reports whether err is outside the known taxonomy.
func IsInternal(err error) bool {
	return HTTPStatus(err) == http.StatusInternalServerError
}
