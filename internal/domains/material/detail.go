package material

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"digital-library-backend/internal/shared/apperror"
)

const (
	MaxVideoMinutes = 24 * 60
	MaxPageCount    = math.MaxInt32
	MaxDOILength    = 255
)

// Video duration buckets
const (
	DurationShort  = "curto"
	DurationMedium = "medio"
	DurationLong   = "longo"
)

var (
	nonDigits  = regexp.MustCompile(`\D`)
	isbnFormat = regexp.MustCompile(`^\d{13}$`)
	doiFormat  = regexp.MustCompile(`^10\.\d{4,}/\S+$`)
)

// Detail is the kind-specific record of a material. The set of
// implementations is closed: *Book, *Article and *Video.
type Detail interface {
	Kind() Kind
	MaterialRef() uuid.UUID
	Validate() error
	isDetail()
}

// CloneDetail returns a copy of d that can be modified independently.
func CloneDetail(d Detail) Detail {
	switch t := d.(type) {
	case *Book:
		cp := *t
		return &cp
	case *Article:
		cp := *t
		return &cp
	case *Video:
		cp := *t
		return &cp
	}
	return nil
}

// ========================================
// BOOK
// ========================================

type Book struct {
	ID         uuid.UUID `json:"id" db:"id"`
	MaterialID uuid.UUID `json:"material_id" db:"material_id"`
	ISBN       string    `json:"isbn" db:"isbn"`
	PageCount  int       `json:"numero_paginas" db:"page_count"`
}

func (*Book) Kind() Kind               { return KindBook }
func (b *Book) MaterialRef() uuid.UUID { return b.MaterialID }
func (*Book) isDetail()                {}

// Normalize strips every non-digit from the ISBN.
func (b *Book) Normalize() {
	b.ISBN = NormalizeISBN(b.ISBN)
}

func (b *Book) Validate() error {
	b.Normalize()
	errs := validation.Errors{
		"isbn": validation.Validate(b.ISBN,
			validation.Required.Error("não pode estar em branco"),
			validation.Length(13, 13).Error("deve ter exatamente 13 caracteres"),
			validation.Match(isbnFormat).Error("deve conter apenas números"),
		),
		"numero_paginas": validation.Validate(b.PageCount,
			validation.By(positive("deve ser maior que zero")),
			validation.Max(MaxPageCount).Error(fmt.Sprintf("deve ser menor ou igual a %d", MaxPageCount)),
		),
	}
	return apperror.FromValidation(errs.Filter())
}

// FormattedISBN groups the 13 digits as 3-2-5-2-1. Empty when the ISBN is
// not 13 characters long.
func (b *Book) FormattedISBN() string {
	if len(b.ISBN) != 13 {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s-%s-%s", b.ISBN[0:3], b.ISBN[3:5], b.ISBN[5:10], b.ISBN[10:12], b.ISBN[12:])
}

// NormalizeISBN strips every non-digit.
func NormalizeISBN(isbn string) string {
	return nonDigits.ReplaceAllString(isbn, "")
}

// ValidISBN reports whether isbn holds exactly 13 digits once normalized.
func ValidISBN(isbn string) bool {
	return isbnFormat.MatchString(NormalizeISBN(isbn))
}

// ========================================
// ARTICLE
// ========================================

type Article struct {
	ID         uuid.UUID `json:"id" db:"id"`
	MaterialID uuid.UUID `json:"material_id" db:"material_id"`
	DOI        string    `json:"doi" db:"doi"`
}

func (*Article) Kind() Kind               { return KindArticle }
func (a *Article) MaterialRef() uuid.UUID { return a.MaterialID }
func (*Article) isDetail()                {}

func (a *Article) Normalize() {
	a.DOI = NormalizeDOI(a.DOI)
}

func (a *Article) Validate() error {
	a.Normalize()
	errs := validation.Errors{
		"doi": validation.Validate(a.DOI,
			validation.Required.Error("não pode estar em branco"),
			validation.RuneLength(0, MaxDOILength).Error(fmt.Sprintf("é muito longo (máximo %d caracteres)", MaxDOILength)),
			validation.Match(doiFormat).Error("deve seguir o formato padrão DOI (ex: 10.1000/xyz123)"),
		),
	}
	return apperror.FromValidation(errs.Filter())
}

// DOIURL resolves the DOI through doi.org.
func (a *Article) DOIURL() string {
	if a.DOI == "" {
		return ""
	}
	return "https://doi.org/" + a.DOI
}

// NormalizeDOI trims and lowercases.
func NormalizeDOI(doi string) string {
	return strings.ToLower(strings.TrimSpace(doi))
}

func ValidDOI(doi string) bool {
	return doiFormat.MatchString(NormalizeDOI(doi))
}

// ========================================
// VIDEO
// ========================================

type Video struct {
	ID              uuid.UUID `json:"id" db:"id"`
	MaterialID      uuid.UUID `json:"material_id" db:"material_id"`
	DurationMinutes int       `json:"duracao_minutos" db:"duration_minutes"`
}

func (*Video) Kind() Kind               { return KindVideo }
func (v *Video) MaterialRef() uuid.UUID { return v.MaterialID }
func (*Video) isDetail()                {}

func (v *Video) Validate() error {
	errs := validation.Errors{
		"duracao_minutos": validation.Validate(v.DurationMinutes,
			validation.By(positive("deve ser um número inteiro maior que zero")),
			validation.By(func(interface{}) error {
				if v.DurationMinutes > MaxVideoMinutes {
					return validation.NewError("video_too_long", "não pode ser maior que 24 horas")
				}
				return nil
			}),
		),
	}
	return apperror.FromValidation(errs.Filter())
}

// FormattedDuration renders "{h}h {m}min", or "{m}min" under an hour.
func (v *Video) FormattedDuration() string {
	hours, minutes := v.DurationMinutes/60, v.DurationMinutes%60
	if hours > 0 {
		return fmt.Sprintf("%dh %dmin", hours, minutes)
	}
	return fmt.Sprintf("%dmin", minutes)
}

func (v *Video) DurationSeconds() int {
	return v.DurationMinutes * 60
}

// Category buckets the duration: up to 10 minutes is short, up to an hour
// medium, anything longer long.
func (v *Video) Category() string {
	switch {
	case v.DurationMinutes <= 10:
		return DurationShort
	case v.DurationMinutes <= 60:
		return DurationMedium
	default:
		return DurationLong
	}
}

func ValidDurationCategory(c string) bool {
	switch c {
	case DurationShort, DurationMedium, DurationLong:
		return true
	}
	return false
}

func positive(msg string) validation.RuleFunc {
	return func(value interface{}) error {
		if n, _ := value.(int); n <= 0 {
			return validation.NewError("material_not_positive", msg)
		}
		return nil
	}
}
