package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"digital-library-backend/internal/domains/material"
	"digital-library-backend/internal/shared/apperror"
	"digital-library-backend/internal/shared/middleware"
	"digital-library-backend/internal/shared/pagination"
	"digital-library-backend/internal/shared/response"
)

// SubtypeHandler serves the per-kind resources /livros, /artigos and /videos.
// Every route is keyed by the material id.
type SubtypeHandler struct {
	service material.Service
	kind    material.Kind
}

func NewBookHandler(svc material.Service) *SubtypeHandler {
	return &SubtypeHandler{service: svc, kind: material.KindBook}
}

func NewArticleHandler(svc material.Service) *SubtypeHandler {
	return &SubtypeHandler{service: svc, kind: material.KindArticle}
}

func NewVideoHandler(svc material.Service) *SubtypeHandler {
	return &SubtypeHandler{service: svc, kind: material.KindVideo}
}

func (h *SubtypeHandler) List(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	filter.Kind = h.kind
	if h.kind == material.KindVideo {
		filter.MinDuration = queryInt(c, "min_duracao")
		filter.MaxDuration = queryInt(c, "max_duracao")
		filter.DurationCategory = c.Query("categoria")
	}

	items, total, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]interface{}, len(items))
	for i := range items {
		out[i] = items[i].ToSubtypeResponse(nil, false)
	}
	response.Paginated(c, out, pagination.NewMeta(filter.Page, total))
}

func (h *SubtypeHandler) Get(c *gin.Context) {
	m, ok := loadMaterial(c, h.service, h.kind)
	if !ok {
		return
	}
	response.OK(c, m.ToSubtypeResponse(middleware.CurrentUser(c), true))
}

// Create requires the kind's natural key. Books go through ISBN enrichment.
func (h *SubtypeHandler) Create(c *gin.Context) {
	var params material.MaterialParams
	if err := bindJSON(c, &params); err != nil {
		return
	}
	params = params.WithKind(h.kind)

	var (
		m   *material.Material
		err error
	)
	switch h.kind {
	case material.KindBook:
		if missing := params.MissingFields("isbn"); len(missing) > 0 {
			response.Error(c, apperror.NewMissingParams(missing...))
			return
		}
		m, err = h.service.CreateBookFromISBN(c.Request.Context(), middleware.CurrentUser(c), params)
	case material.KindArticle:
		if missing := params.MissingFields("titulo", "autor_id", "doi"); len(missing) > 0 {
			response.Error(c, apperror.NewMissingParams(missing...))
			return
		}
		m, err = h.service.Create(c.Request.Context(), middleware.CurrentUser(c), params)
	case material.KindVideo:
		if missing := params.MissingFields("titulo", "autor_id", "duracao_minutos"); len(missing) > 0 {
			response.Error(c, apperror.NewMissingParams(missing...))
			return
		}
		m, err = h.service.Create(c.Request.Context(), middleware.CurrentUser(c), params)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, h.kind.Label()+" criado com sucesso", m.ToSubtypeResponse(nil, false))
}

func (h *SubtypeHandler) Update(c *gin.Context) {
	m, ok := loadMaterial(c, h.service, h.kind)
	if !ok {
		return
	}

	var params material.MaterialParams
	if err := bindJSON(c, &params); err != nil {
		return
	}
	params.Kind = nil

	updated, err := h.service.Update(c.Request.Context(), m, middleware.CurrentUser(c), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, h.kind.Label()+" atualizado com sucesso", updated.ToSubtypeResponse(nil, false))
}

func (h *SubtypeHandler) Delete(c *gin.Context) {
	m, ok := loadMaterial(c, h.service, h.kind)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), m, middleware.CurrentUser(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, h.kind.Label()+" excluído com sucesso", nil)
}

// ════════════════════════════════════════════════════════════════
// KIND-SPECIFIC LOOKUPS
// ════════════════════════════════════════════════════════════════

// LookupISBN handles GET /livros/buscar_isbn/:isbn against the external
// metadata source.
func (h *SubtypeHandler) LookupISBN(c *gin.Context) {
	isbn := strings.TrimSpace(c.Param("isbn"))
	if isbn == "" {
		response.BadRequest(c, "ERRO_ISBN_OBRIGATORIO", "ISBN é obrigatório")
		return
	}
	if !material.ValidISBN(isbn) {
		response.BadRequest(c, "ERRO_ISBN_INVALIDO", "ISBN deve ter exatamente 13 dígitos numéricos")
		return
	}

	meta, err := h.service.LookupISBN(c.Request.Context(), material.NormalizeISBN(isbn))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, meta)
}

// FindByISBN handles GET /livros/isbn/:isbn
func (h *SubtypeHandler) FindByISBN(c *gin.Context) {
	m, err := h.service.FindBookByISBN(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, m.ToSubtypeResponse(middleware.CurrentUser(c), true))
}

// FindByDOI handles GET /artigos/doi/*doi. DOIs contain slashes, so the
// parameter is a catch-all.
func (h *SubtypeHandler) FindByDOI(c *gin.Context) {
	doi := strings.TrimPrefix(c.Param("doi"), "/")
	m, err := h.service.FindArticleByDOI(c.Request.Context(), doi)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, m.ToSubtypeResponse(middleware.CurrentUser(c), true))
}

// VideoStats handles GET /videos/estatisticas
func (h *SubtypeHandler) VideoStats(c *gin.Context) {
	stats, err := h.service.VideoStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}
