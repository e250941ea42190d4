package material

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"digital-library-backend/internal/domains/author"
	"digital-library-backend/internal/domains/user"
	"digital-library-backend/internal/shared/apperror"
)

// Kind discriminates the detail record attached to a material.
type Kind string

const (
	KindBook    Kind = "Livro"
	KindArticle Kind = "Artigo"
	KindVideo   Kind = "Video"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindBook, KindArticle, KindVideo:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// Label is the human name used in messages.
func (k Kind) Label() string {
	switch k {
	case KindBook:
		return "Livro"
	case KindArticle:
		return "Artigo"
	case KindVideo:
		return "Vídeo"
	}
	return "Material"
}

// Status is the publication lifecycle of a material.
type Status string

const (
	StatusDraft     Status = "rascunho"
	StatusPublished Status = "publicado"
	StatusArchived  Status = "arquivado"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Material is the common record for every catalog entry.
type Material struct {
	// Identity
	ID          uuid.UUID `json:"id" db:"id"`
	Kind        Kind      `json:"tipo" db:"kind"`
	Title       string    `json:"titulo" db:"title"`
	Description *string   `json:"descricao" db:"description"`
	Status      Status    `json:"status" db:"status"`

	// Relationships
	AuthorID      uuid.UUID `json:"autor_id" db:"author_id"`
	CreatorUserID uuid.UUID `json:"usuario_id" db:"creator_user_id"`

	// Timestamps
	CreatedAt time.Time `json:"criado_em" db:"created_at"`
	UpdatedAt time.Time `json:"atualizado_em" db:"updated_at"`

	// Loaded by read queries
	Detail       Detail         `json:"-" db:"-"`
	Author       *author.Author `json:"-" db:"-"`
	CreatorEmail string         `json:"-" db:"-"`
}

func (m *Material) IsPublished() bool { return m.Status == StatusPublished }
func (m *Material) IsDraft() bool     { return m.Status == StatusDraft }
func (m *Material) IsArchived() bool  { return m.Status == StatusArchived }

// CanBeEditedBy reports whether u created the material.
func (m *Material) CanBeEditedBy(u *user.User) bool {
	return u != nil && u.ID == m.CreatorUserID
}

// CanBeDeletedBy follows the same ownership rule as editing.
func (m *Material) CanBeDeletedBy(u *user.User) bool {
	return u != nil && u.ID == m.CreatorUserID
}

// Book returns the book detail, or nil.
func (m *Material) Book() *Book {
	b, _ := m.Detail.(*Book)
	return b
}

// Article returns the article detail, or nil.
func (m *Material) Article() *Article {
	a, _ := m.Detail.(*Article)
	return a
}

// Video returns the video detail, or nil.
func (m *Material) Video() *Video {
	v, _ := m.Detail.(*Video)
	return v
}

// TypeSpecificInfo projects the detail record by kind. A missing detail
// yields a projection with every field null.
func (m *Material) TypeSpecificInfo() SpecificInfo {
	switch m.Kind {
	case KindBook:
		info := BookInfo{}
		if b := m.Book(); b != nil {
			info.ISBN = &b.ISBN
			info.PageCount = &b.PageCount
		}
		return info
	case KindArticle:
		info := ArticleInfo{}
		if a := m.Article(); a != nil {
			info.DOI = &a.DOI
		}
		return info
	case KindVideo:
		info := VideoInfo{}
		if v := m.Video(); v != nil {
			info.DurationMinutes = &v.DurationMinutes
		}
		return info
	}
	return nil
}

// Validate checks the common fields.
func (m *Material) Validate() error {
	errs := validation.Errors{
		"tipo": validation.Validate(string(m.Kind),
			validation.Required.Error("não pode estar em branco"),
			validation.In(string(KindBook), string(KindArticle), string(KindVideo)).Error("deve ser Livro, Artigo ou Video"),
		),
		"titulo": validation.Validate(m.Title,
			validation.Required.Error("não pode estar em branco"),
			validation.RuneLength(3, 100).Error("deve ter entre 3 e 100 caracteres"),
		),
		"descricao": validation.Validate(m.Description,
			validation.RuneLength(0, 1000).Error("deve ter no máximo 1000 caracteres"),
		),
		"status": validation.Validate(string(m.Status),
			validation.Required.Error("não pode estar em branco"),
			validation.In(string(StatusDraft), string(StatusPublished), string(StatusArchived)).Error("deve ser rascunho, publicado ou arquivado"),
		),
		"autor":   validation.Validate(m.AuthorID, validation.By(requiredID)),
		"usuario": validation.Validate(m.CreatorUserID, validation.By(requiredID)),
	}
	return apperror.FromValidation(errs.Filter())
}

func requiredID(value interface{}) error {
	if id, _ := value.(uuid.UUID); id == uuid.Nil {
		return validation.NewError("material_required_id", "é obrigatório")
	}
	return nil
}

// SpecificInfo is the kind-tagged projection returned by TypeSpecificInfo.
type SpecificInfo interface {
	Kind() Kind
}

type BookInfo struct {
	ISBN      *string `json:"isbn"`
	PageCount *int    `json:"numero_paginas"`
}

func (BookInfo) Kind() Kind { return KindBook }

type ArticleInfo struct {
	DOI *string `json:"doi"`
}

func (ArticleInfo) Kind() Kind { return KindArticle }

type VideoInfo struct {
	DurationMinutes *int `json:"duracao_minutos"`
}

func (VideoInfo) Kind() Kind { return KindVideo }
