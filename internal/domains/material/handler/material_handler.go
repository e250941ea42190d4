package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"digital-library-backend/internal/domains/author"
	"digital-library-backend/internal/domains/material"
	"digital-library-backend/internal/shared/apperror"
	"digital-library-backend/internal/shared/middleware"
	"digital-library-backend/internal/shared/pagination"
	"digital-library-backend/internal/shared/response"
)

// MaterialHandler serves /materials, /buscar, /estatisticas and
// /autores/:id/materials.
type MaterialHandler struct {
	service material.Service
	authors author.Service
}

func NewMaterialHandler(svc material.Service, authors author.Service) *MaterialHandler {
	return &MaterialHandler{service: svc, authors: authors}
}

type searchResponse struct {
	Success    bool            `json:"sucesso"`
	Term       string          `json:"termo_busca"`
	Data       interface{}     `json:"dados"`
	Pagination pagination.Meta `json:"paginacao"`
}

// ════════════════════════════════════════════════════════════════
// LIST: GET /materials?q=&tipo=&status=&autor_id=&page=&per_page=
// ════════════════════════════════════════════════════════════════

func (h *MaterialHandler) List(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	filter.Kind = material.Kind(c.Query("tipo"))

	items, total, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, toResponses(items), pagination.NewMeta(filter.Page, total))
}

// ════════════════════════════════════════════════════════════════
// SEARCH: GET /buscar?q=
// ════════════════════════════════════════════════════════════════

func (h *MaterialHandler) Search(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	if filter.Query == "" {
		response.BadRequest(c, "ERRO_TERMO_BUSCA", "Termo de busca é obrigatório")
		return
	}
	filter.Kind = material.Kind(c.Query("tipo"))

	items, total, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, searchResponse{
		Success:    true,
		Term:       filter.Query,
		Data:       toResponses(items),
		Pagination: pagination.NewMeta(filter.Page, total),
	})
}

// ════════════════════════════════════════════════════════════════
// LIST BY AUTHOR: GET /autores/:id/materials
// ════════════════════════════════════════════════════════════════

func (h *MaterialHandler) ListByAuthor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, author.ErrAuthorNotFound)
		return
	}
	if _, err := h.authors.GetByID(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	filter.AuthorID = &id
	filter.Kind = material.Kind(c.Query("tipo"))

	items, total, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, toResponses(items), pagination.NewMeta(filter.Page, total))
}

// ════════════════════════════════════════════════════════════════
// READ: GET /materials/:id
// ════════════════════════════════════════════════════════════════

func (h *MaterialHandler) Get(c *gin.Context) {
	m, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, m.ToDetailResponse(middleware.CurrentUser(c)))
}

// Details handles GET /materials/:id/detalhes
func (h *MaterialHandler) Details(c *gin.Context) {
	m, ok := h.load(c)
	if !ok {
		return
	}

	info := m.CompleteInfo()
	if info == nil {
		response.Error(c, material.NotFoundFor(m.Kind))
		return
	}
	response.OK(c, info)
}

// ════════════════════════════════════════════════════════════════
// CREATE: POST /materials
// ════════════════════════════════════════════════════════════════

func (h *MaterialHandler) Create(c *gin.Context) {
	var params material.MaterialParams
	if err := bindJSON(c, &params); err != nil {
		return
	}

	m, err := h.service.Create(c.Request.Context(), middleware.CurrentUser(c), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Material criado com sucesso", m.ToResponse())
}

// ════════════════════════════════════════════════════════════════
// UPDATE: PUT /materials/:id
// ════════════════════════════════════════════════════════════════

func (h *MaterialHandler) Update(c *gin.Context) {
	m, ok := h.load(c)
	if !ok {
		return
	}

	var params material.MaterialParams
	if err := bindJSON(c, &params); err != nil {
		return
	}

	updated, err := h.service.Update(c.Request.Context(), m, middleware.CurrentUser(c), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Material atualizado com sucesso", updated.ToResponse())
}

// ════════════════════════════════════════════════════════════════
// DELETE: DELETE /materials/:id
// ════════════════════════════════════════════════════════════════

func (h *MaterialHandler) Delete(c *gin.Context) {
	m, ok := h.load(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), m, middleware.CurrentUser(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Material excluído com sucesso", nil)
}

// Statistics handles GET /estatisticas
func (h *MaterialHandler) Statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

func (h *MaterialHandler) load(c *gin.Context) (*material.Material, bool) {
	return loadMaterial(c, h.service, "")
}

// ========================================
// HELPERS
// ========================================

// loadMaterial resolves :id. With kind set, materials of other kinds are
// reported as missing.
func loadMaterial(c *gin.Context, svc material.Service, kind material.Kind) (*material.Material, bool) {
	notFound := material.NotFoundFor(kind)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, notFound)
		return nil, false
	}

	m, err := svc.Get(c.Request.Context(), id)
	if err != nil {
		var nf *apperror.NotFoundError
		if errors.As(err, &nf) {
			err = notFound
		}
		response.Error(c, err)
		return nil, false
	}
	if kind != "" && m.Kind != kind {
		response.Error(c, notFound)
		return nil, false
	}
	return m, true
}

// parseFilter reads the criteria shared by every listing.
func parseFilter(c *gin.Context) (material.Filter, bool) {
	filter := material.Filter{
		Query:  c.Query("q"),
		Status: material.Status(c.Query("status")),
		Page:   pagination.Parse(c.Query("page"), c.Query("per_page")),
	}

	if raw := c.Query("autor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, apperror.CodeMissingParams, "autor_id inválido")
			return filter, false
		}
		filter.AuthorID = &id
	}
	return filter, true
}

func queryInt(c *gin.Context, key string) *int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return nil
	}
	return &n
}

func toResponses(items []material.Material) []material.MaterialResponse {
	out := make([]material.MaterialResponse, len(items))
	for i := range items {
		out[i] = items[i].ToResponse()
	}
	return out
}

func bindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "ERRO_JSON_INVALIDO", "Corpo da requisição inválido")
		return err
	}
	return nil
}
