package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"digital-library-backend/internal/shared/apperror"
	"digital-library-backend/internal/shared/pagination"
)

// Response is the success envelope.
type Response struct {
	Success    bool             `json:"sucesso"`
	Message    string           `json:"mensagem,omitempty"`
	Data       interface{}      `json:"dados,omitempty"`
	Pagination *pagination.Meta `json:"paginacao,omitempty"`
}

// ErrorBody is the error envelope.
type ErrorBody struct {
	Error         string   `json:"erro"`
	Code          string   `json:"codigo"`
	Details       []string `json:"detalhes,omitempty"`
	MissingFields []string `json:"campos_faltando,omitempty"`
}

const internalErrorMessage = "Erro interno do servidor"

// Success responses

func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func OK(c *gin.Context, data interface{}) {
	Success(c, http.StatusOK, "Operação realizada com sucesso", data)
}

func Created(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusCreated, message, data)
}

func Paginated(c *gin.Context, data interface{}, meta pagination.Meta) {
	c.JSON(http.StatusOK, Response{
		Success:    true,
		Data:       data,
		Pagination: &meta,
	})
}

// Error responses

// Error maps err through the apperror taxonomy. Unclassified errors are logged
// and reported generically.
func Error(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	body := ErrorBody{Code: apperror.Code(err), Error: err.Error()}

	var (
		ve  *apperror.ValidationError
		ms  *apperror.MissingSubtypeError
		br  *apperror.BadRequestError
		ext *apperror.ExternalServiceError
	)
	switch {
	case errors.As(err, &ve):
		body.Error = "Dados inválidos"
		body.Details = ve.Messages()
	case errors.As(err, &ms):
		body.Error = "Dados inválidos"
		body.Details = []string{ms.Error()}
	case errors.As(err, &br):
		body.Error = br.Message
		body.MissingFields = br.MissingFields
	case errors.As(err, &ext):
		body.Error = ext.Message
		if ext.Err != nil {
			log.Warn().Err(ext.Err).Str("service", ext.Service).Msg("External service failure")
		}
	case status == http.StatusInternalServerError:
		log.Error().
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Unhandled error")
		body.Error = internalErrorMessage
	}

	c.AbortWithStatusJSON(status, body)
}

func ErrorWithCode(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorBody{Error: message, Code: code})
}

// Common error responses
func BadRequest(c *gin.Context, code, message string) {
	ErrorWithCode(c, http.StatusBadRequest, code, message)
}

func Unauthorized(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusUnauthorized, apperror.CodeAuthentication, message)
}

func NotFound(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusNotFound, apperror.CodeNotFound, message)
}

func InternalServerError(c *gin.Context) {
	ErrorWithCode(c, http.StatusInternalServerError, apperror.CodeInternal, internalErrorMessage)
}
