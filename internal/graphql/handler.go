package graphql

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"

	"digital-library-backend/internal/shared/apperror"
	"digital-library-backend/internal/shared/middleware"
	"digital-library-backend/internal/shared/response"
)

type request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// Handler executes GraphQL requests against the schema. Authentication is
// optional; mutations check for a user themselves.
type Handler struct {
	schema graphql.Schema
}

func NewHandler(schema graphql.Schema) *Handler {
	return &Handler{schema: schema}
}

// Serve handles POST /graphql
func (h *Handler) Serve(c *gin.Context) {
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "ERRO_JSON_INVALIDO", "Corpo da requisição inválido")
		return
	}
	if req.Query == "" {
		response.Error(c, apperror.NewMissingParams("query"))
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        WithUser(c.Request.Context(), middleware.CurrentUser(c)),
	})

	c.JSON(http.StatusOK, result)
}
