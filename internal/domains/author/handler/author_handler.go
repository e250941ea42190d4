package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"digital-library-backend/internal/domains/author"
	"digital-library-backend/internal/shared/pagination"
	"digital-library-backend/internal/shared/response"
)

type AuthorHandler struct {
	service author.Service
}

func NewAuthorHandler(svc author.Service) *AuthorHandler {
	return &AuthorHandler{
		service: svc,
	}
}

// ════════════════════════════════════════════════════════════════
// LIST: GET /autores?tipo=&q=&page=&per_page=
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) List(c *gin.Context) {
	filter := author.AuthorFilter{
		Kind:  c.Query("tipo"),
		Query: c.Query("q"),
		Page:  pagination.Parse(c.Query("page"), c.Query("per_page")),
	}

	authors, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	today := h.service.Today()
	data := make([]author.AuthorResponse, len(authors))
	for i := range authors {
		data[i] = authors[i].ToResponse(today)
	}

	response.Paginated(c, data, pagination.NewMeta(filter.Page, total))
}

// ════════════════════════════════════════════════════════════════
// READ: GET /autores/:id
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	a, materials, err := h.service.GetDetail(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, author.AuthorDetailResponse{
		AuthorResponse: a.ToResponse(h.service.Today()),
		Materials:      materials,
	})
}

// ════════════════════════════════════════════════════════════════
// CREATE: POST /autores
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) Create(c *gin.Context) {
	var req author.CreateAuthorRequest
	if err := bindJSON(c, &req); err != nil {
		return
	}

	a, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Autor criado com sucesso", a.ToResponse(h.service.Today()))
}

// ════════════════════════════════════════════════════════════════
// UPDATE: PUT /autores/:id
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req author.UpdateAuthorRequest
	if err := bindJSON(c, &req); err != nil {
		return
	}

	a, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Autor atualizado com sucesso", a.ToResponse(h.service.Today()))
}

// ════════════════════════════════════════════════════════════════
// DELETE: DELETE /autores/:id
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Autor excluído com sucesso", nil)
}

// parseID reports a malformed id as a missing author.
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, author.ErrAuthorNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "ERRO_JSON_INVALIDO", "Corpo da requisição inválido")
		return err
	}
	return nil
}
