package material

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"digital-library-backend/internal/domains/user"
	"digital-library-backend/internal/shared/pagination"
)

// ========================================
// REQUESTS
// ========================================

// MaterialParams is the write payload shared by every material route. Nil
// fields are absent.
type MaterialParams struct {
	Kind        *string `json:"tipo,omitempty"`
	Title       *string `json:"titulo,omitempty"`
	Description *string `json:"descricao,omitempty"`
	Status      *string `json:"status,omitempty"`
	AuthorID    *string `json:"autor_id,omitempty"`

	// Book
	ISBN      *string `json:"isbn,omitempty"`
	PageCount *int    `json:"numero_paginas,omitempty"`

	// Article
	DOI *string `json:"doi,omitempty"`

	// Video
	DurationMinutes *int `json:"duracao_minutos,omitempty"`
}

// MissingFields lists the named fields that are absent or blank.
func (p MaterialParams) MissingFields(fields ...string) []string {
	var out []string
	for _, f := range fields {
		if !p.present(f) {
			out = append(out, f)
		}
	}
	return out
}

func (p MaterialParams) present(field string) bool {
	switch field {
	case "tipo":
		return !blank(p.Kind)
	case "titulo":
		return !blank(p.Title)
	case "descricao":
		return !blank(p.Description)
	case "status":
		return !blank(p.Status)
	case "autor_id":
		return !blank(p.AuthorID)
	case "isbn":
		return !blank(p.ISBN)
	case "numero_paginas":
		return p.PageCount != nil
	case "doi":
		return !blank(p.DOI)
	case "duracao_minutos":
		return p.DurationMinutes != nil
	}
	return false
}

// WithKind returns a copy of p forced to kind.
func (p MaterialParams) WithKind(kind Kind) MaterialParams {
	k := string(kind)
	p.Kind = &k
	return p
}

// ChangesKind reports whether p asks for a kind other than current.
func (p MaterialParams) ChangesKind(current Kind) bool {
	return !blank(p.Kind) && Kind(value(p.Kind)) != current
}

// NeedsAuthor reports whether no autor_id was supplied.
func (p MaterialParams) NeedsAuthor() bool {
	return blank(p.AuthorID)
}

// Enrich fills title, page count and description when they are absent.
func (p *MaterialParams) Enrich(title string, pageCount *int, description string) {
	if blank(p.Title) && title != "" {
		p.Title = &title
	}
	if p.PageCount == nil && pageCount != nil {
		pages := *pageCount
		p.PageCount = &pages
	}
	if blank(p.Description) && description != "" {
		p.Description = &description
	}
}

// NewMaterial builds an unsaved material owned by creator. Status defaults to
// draft.
func (p MaterialParams) NewMaterial(creator uuid.UUID) *Material {
	m := &Material{
		Kind:          Kind(value(p.Kind)),
		Title:         value(p.Title),
		Description:   optional(p.Description),
		Status:        StatusDraft,
		AuthorID:      parseID(p.AuthorID),
		CreatorUserID: creator,
	}
	if !blank(p.Status) {
		m.Status = Status(value(p.Status))
	}
	return m
}

// ApplyTo copies the present common fields onto m. The kind and owner are
// never changed here.
func (p MaterialParams) ApplyTo(m *Material) {
	if p.Title != nil {
		m.Title = value(p.Title)
	}
	if p.Description != nil {
		m.Description = optional(p.Description)
	}
	if !blank(p.Status) {
		m.Status = Status(value(p.Status))
	}
	if !blank(p.AuthorID) {
		m.AuthorID = parseID(p.AuthorID)
	}
}

// NewDetail builds the detail record matching kind from the subtype fields.
func (p MaterialParams) NewDetail(kind Kind, materialID uuid.UUID) Detail {
	switch kind {
	case KindBook:
		b := &Book{MaterialID: materialID, ISBN: value(p.ISBN)}
		if p.PageCount != nil {
			b.PageCount = *p.PageCount
		}
		return b
	case KindArticle:
		return &Article{MaterialID: materialID, DOI: value(p.DOI)}
	case KindVideo:
		v := &Video{MaterialID: materialID}
		if p.DurationMinutes != nil {
			v.DurationMinutes = *p.DurationMinutes
		}
		return v
	}
	return nil
}

// PatchDetail applies the present subtype fields to d and reports whether
// anything changed.
func (p MaterialParams) PatchDetail(d Detail) bool {
	changed := false
	switch t := d.(type) {
	case *Book:
		if !blank(p.ISBN) {
			t.ISBN = value(p.ISBN)
			changed = true
		}
		if p.PageCount != nil {
			t.PageCount = *p.PageCount
			changed = true
		}
	case *Article:
		if !blank(p.DOI) {
			t.DOI = value(p.DOI)
			changed = true
		}
	case *Video:
		if p.DurationMinutes != nil {
			t.DurationMinutes = *p.DurationMinutes
			changed = true
		}
	}
	return changed
}

// TouchesDetail reports whether p carries any subtype field of kind k.
func (p MaterialParams) TouchesDetail(k Kind) bool {
	switch k {
	case KindBook:
		return p.PatchDetail(&Book{})
	case KindArticle:
		return p.PatchDetail(&Article{})
	case KindVideo:
		return p.PatchDetail(&Video{})
	}
	return false
}

// ========================================
// FILTERS
// ========================================

// Filter composes the optional, AND-combined criteria of a material listing.
type Filter struct {
	Query    string
	Kind     Kind
	Status   Status
	AuthorID *uuid.UUID

	// Only applied to videos
	MinDuration      *int
	MaxDuration      *int
	DurationCategory string

	Page pagination.Params
}

// ========================================
// RESPONSES
// ========================================

type AuthorRef struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"nome"`
	Kind     string    `json:"tipo"`
	FullName string    `json:"nome_completo,omitempty"`
}

type CreatorRef struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// MaterialResponse is a material in listings and write results.
type MaterialResponse struct {
	ID           uuid.UUID    `json:"id"`
	Title        string       `json:"titulo"`
	Description  *string      `json:"descricao"`
	Kind         Kind         `json:"tipo"`
	Status       Status       `json:"status"`
	Author       AuthorRef    `json:"autor"`
	CreatedBy    string       `json:"criado_por"`
	CreatedAt    time.Time    `json:"criado_em"`
	UpdatedAt    time.Time    `json:"atualizado_em"`
	SpecificInfo SpecificInfo `json:"informacoes_especificas"`
}

// MaterialDetailResponse is a single material with the caller's permissions.
type MaterialDetailResponse struct {
	ID           uuid.UUID    `json:"id"`
	Title        string       `json:"titulo"`
	Description  *string      `json:"descricao"`
	Kind         Kind         `json:"tipo"`
	Status       Status       `json:"status"`
	Author       AuthorRef    `json:"autor"`
	CreatedBy    CreatorRef   `json:"criado_por"`
	CreatedAt    time.Time    `json:"criado_em"`
	UpdatedAt    time.Time    `json:"atualizado_em"`
	SpecificInfo SpecificInfo `json:"informacoes_especificas"`
	CanEdit      bool         `json:"pode_editar"`
	CanDelete    bool         `json:"pode_excluir"`
}

// MaterialSummary is the parent material embedded in subtype responses.
type MaterialSummary struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"titulo"`
	Description *string     `json:"descricao"`
	Status      Status      `json:"status"`
	Author      AuthorRef   `json:"autor"`
	CreatedBy   interface{} `json:"criado_por"`
	CreatedAt   time.Time   `json:"criado_em"`
	UpdatedAt   time.Time   `json:"atualizado_em"`
	CanEdit     *bool       `json:"pode_editar,omitempty"`
	CanDelete   *bool       `json:"pode_excluir,omitempty"`
}

type BookResponse struct {
	ID            uuid.UUID       `json:"id"`
	ISBN          string          `json:"isbn"`
	FormattedISBN *string         `json:"isbn_formatado"`
	PageCount     int             `json:"numero_paginas"`
	Material      MaterialSummary `json:"material"`
}

type ArticleResponse struct {
	ID       uuid.UUID       `json:"id"`
	DOI      string          `json:"doi"`
	DOIURL   *string         `json:"doi_url"`
	Material MaterialSummary `json:"material"`
}

type VideoResponse struct {
	ID                uuid.UUID       `json:"id"`
	DurationMinutes   int             `json:"duracao_minutos"`
	FormattedDuration string          `json:"duracao_formatada"`
	DurationSeconds   int             `json:"duracao_segundos"`
	Category          string          `json:"categoria_duracao"`
	Material          MaterialSummary `json:"material"`
}

// CompleteInfo is the /materials/:id/detalhes payload.
type CompleteInfo struct {
	ISBN              *string         `json:"isbn,omitempty"`
	FormattedISBN     *string         `json:"isbn_formatado,omitempty"`
	PageCount         *int            `json:"numero_paginas,omitempty"`
	DOI               *string         `json:"doi,omitempty"`
	DOIURL            *string         `json:"doi_url,omitempty"`
	DurationMinutes   *int            `json:"duracao_minutos,omitempty"`
	FormattedDuration *string         `json:"duracao_formatada,omitempty"`
	DurationSeconds   *int            `json:"duracao_segundos,omitempty"`
	Category          *string         `json:"categoria_duracao,omitempty"`
	Material          CompleteSummary `json:"material"`
}

type CompleteSummary struct {
	Title       string  `json:"titulo"`
	Description *string `json:"descricao"`
	Status      Status  `json:"status"`
	Author      string  `json:"autor"`
}

// VideoStats aggregates durations across every video.
type VideoStats struct {
	Total   int64            `json:"total_videos"`
	Average *decimal.Decimal `json:"duracao_media"`
	Minimum *int             `json:"duracao_minima"`
	Maximum *int             `json:"duracao_maxima"`
	Sum     int64            `json:"duracao_total"`
}

// Statistics is the catalog-wide summary served by /estatisticas.
type Statistics struct {
	TotalMaterials int64            `json:"total_materiais"`
	ByKind         KindCounts       `json:"por_tipo"`
	ByStatus       StatusCounts     `json:"por_status"`
	TotalAuthors   int64            `json:"total_autores"`
	TotalUsers     int64            `json:"total_usuarios"`
	Recent         []RecentMaterial `json:"materiais_recentes"`
}

type KindCounts struct {
	Books    int64 `json:"livros"`
	Articles int64 `json:"artigos"`
	Videos   int64 `json:"videos"`
}

type StatusCounts struct {
	Draft     int64 `json:"rascunho"`
	Published int64 `json:"publicado"`
	Archived  int64 `json:"arquivado"`
}

type RecentMaterial struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"titulo"`
	Kind      Kind      `json:"tipo"`
	Author    string    `json:"autor"`
	CreatedAt time.Time `json:"criado_em"`
}

// ========================================
// SERIALIZATION
// ========================================

func (m *Material) authorRef(full bool) AuthorRef {
	ref := AuthorRef{ID: m.AuthorID}
	if m.Author != nil {
		ref.Name = m.Author.Name
		ref.Kind = string(m.Author.Kind)
		if full {
			ref.FullName = m.Author.FullName()
		}
	}
	return ref
}

func (m *Material) ToResponse() MaterialResponse {
	return MaterialResponse{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		Kind:         m.Kind,
		Status:       m.Status,
		Author:       m.authorRef(false),
		CreatedBy:    m.CreatorEmail,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		SpecificInfo: m.TypeSpecificInfo(),
	}
}

// ToDetailResponse includes edit and delete permissions for viewer, which may be nil.
func (m *Material) ToDetailResponse(viewer *user.User) MaterialDetailResponse {
	return MaterialDetailResponse{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		Kind:         m.Kind,
		Status:       m.Status,
		Author:       m.authorRef(true),
		CreatedBy:    CreatorRef{ID: m.CreatorUserID, Email: m.CreatorEmail},
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		SpecificInfo: m.TypeSpecificInfo(),
		CanEdit:      m.CanBeEditedBy(viewer),
		CanDelete:    m.CanBeDeletedBy(viewer),
	}
}

// ToSubtypeResponse serializes the material from its detail record's point of
// view. With detailed set, the summary carries the creator and permissions.
func (m *Material) ToSubtypeResponse(viewer *user.User, detailed bool) interface{} {
	summary := MaterialSummary{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Status:      m.Status,
		Author:      m.authorRef(detailed),
		CreatedBy:   m.CreatorEmail,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if detailed {
		canEdit, canDelete := m.CanBeEditedBy(viewer), m.CanBeDeletedBy(viewer)
		summary.CreatedBy = CreatorRef{ID: m.CreatorUserID, Email: m.CreatorEmail}
		summary.CanEdit = &canEdit
		summary.CanDelete = &canDelete
	}

	switch m.Kind {
	case KindBook:
		res := BookResponse{ID: m.ID, Material: summary}
		if b := m.Book(); b != nil {
			res.ISBN = b.ISBN
			res.FormattedISBN = nonEmpty(b.FormattedISBN())
			res.PageCount = b.PageCount
		}
		return res
	case KindArticle:
		res := ArticleResponse{ID: m.ID, Material: summary}
		if a := m.Article(); a != nil {
			res.DOI = a.DOI
			res.DOIURL = nonEmpty(a.DOIURL())
		}
		return res
	case KindVideo:
		res := VideoResponse{ID: m.ID, Material: summary}
		if v := m.Video(); v != nil {
			res.DurationMinutes = v.DurationMinutes
			res.FormattedDuration = v.FormattedDuration()
			res.DurationSeconds = v.DurationSeconds()
			res.Category = v.Category()
		}
		return res
	}
	return nil
}

// CompleteInfo returns the detail record's full read model, or nil when the
// record is missing.
func (m *Material) CompleteInfo() *CompleteInfo {
	info := &CompleteInfo{Material: CompleteSummary{
		Title:       m.Title,
		Description: m.Description,
		Status:      m.Status,
	}}
	if m.Author != nil {
		info.Material.Author = m.Author.FullName()
	}

	switch m.Kind {
	case KindBook:
		b := m.Book()
		if b == nil {
			return nil
		}
		pages := b.PageCount
		info.ISBN = &b.ISBN
		info.FormattedISBN = nonEmpty(b.FormattedISBN())
		info.PageCount = &pages
	case KindArticle:
		a := m.Article()
		if a == nil {
			return nil
		}
		info.DOI = &a.DOI
		info.DOIURL = nonEmpty(a.DOIURL())
	case KindVideo:
		v := m.Video()
		if v == nil {
			return nil
		}
		minutes, seconds := v.DurationMinutes, v.DurationSeconds()
		formatted, category := v.FormattedDuration(), v.Category()
		info.DurationMinutes = &minutes
		info.FormattedDuration = &formatted
		info.DurationSeconds = &seconds
		info.Category = &category
	default:
		return nil
	}
	return info
}

// ========================================
// HELPERS
// ========================================

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func optional(s *string) *string {
	if blank(s) {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseID(s *string) uuid.UUID {
	if s == nil {
		return uuid.Nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*s))
	if err != nil {
		return uuid.Nil
	}
	return id
}
