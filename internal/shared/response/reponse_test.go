package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital-library-backend/internal/shared/apperror"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSuccessEnvelope(t *testing.T) {
	c, w := newContext()
	Created(c, "Material criado com sucesso", gin.H{"id": "1"})

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["sucesso"])
	assert.Equal(t, "Material criado com sucesso", body["mensagem"])
	assert.NotNil(t, body["dados"])
}

func TestErrorValidation(t *testing.T) {
	c, w := newContext()
	Error(c, apperror.NewValidation("titulo", "não pode estar em branco"))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ERRO_VALIDACAO", body["codigo"])
	assert.Equal(t, "Dados inválidos", body["erro"])
	assert.Equal(t, []interface{}{"titulo não pode estar em branco"}, body["detalhes"])
}

func TestErrorMissingParams(t *testing.T) {
	c, w := newContext()
	Error(c, apperror.NewMissingParams("tipo", "titulo"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ERRO_PARAMETROS", body["codigo"])
	assert.Equal(t, []interface{}{"tipo", "titulo"}, body["campos_faltando"])
}

func TestErrorInternalHidesDetails(t *testing.T) {
	c, w := newContext()
	Error(c, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ERRO_INTERNO", body["codigo"])
	assert.Equal(t, "Erro interno do servidor", body["erro"])
}
