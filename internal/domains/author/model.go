package author

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"digital-library-backend/internal/shared/apperror"
)

// Kind discriminates people from institutions.
type Kind string

const (
	KindPerson      Kind = "Pessoa"
	KindInstitution Kind = "Instituicao"
)

const DateLayout = "2006-01-02"

// Author is a person or institution credited on materials.
type Author struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"nome" db:"name"`
	Kind      Kind       `json:"tipo" db:"kind"`
	BirthDate *time.Time `json:"data_nascimento" db:"birth_date"` // Person only
	City      *string    `json:"cidade" db:"city"`                // Institution only
	CreatedAt time.Time  `json:"criado_em" db:"created_at"`
	UpdatedAt time.Time  `json:"atualizado_em" db:"updated_at"`

	// MaterialCount is filled by read queries.
	MaterialCount int `json:"-" db:"-"`
}

func (a *Author) IsPerson() bool      { return a.Kind == KindPerson }
func (a *Author) IsInstitution() bool { return a.Kind == KindInstitution }

// FullName labels the name with its kind.
func (a *Author) FullName() string {
	if a.IsPerson() {
		return a.Name + " (Pessoa)"
	}
	return a.Name + " (Instituição)"
}

// Age is the whole number of years since the birth date as of today.
// Only people have an age.
func (a *Author) Age(today time.Time) *int {
	if !a.IsPerson() || a.BirthDate == nil {
		return nil
	}
	b := *a.BirthDate
	age := today.Year() - b.Year()
	if today.Month() < b.Month() || (today.Month() == b.Month() && today.Day() < b.Day()) {
		age--
	}
	return &age
}

// Validate applies the kind-conditioned rules. today is compared by calendar
// date only.
func (a *Author) Validate(today time.Time) error {
	today = truncateDate(today)

	errs := validation.Errors{
		"nome": validation.Validate(a.Name,
			validation.Required.Error("não pode estar em branco"),
			validation.When(a.IsPerson(), validation.RuneLength(3, 80).Error("deve ter entre 3 e 80 caracteres")),
			validation.When(a.IsInstitution(), validation.RuneLength(3, 120).Error("deve ter entre 3 e 120 caracteres")),
		),
		"tipo": validation.Validate(string(a.Kind),
			validation.Required.Error("não pode estar em branco"),
			validation.In(string(KindPerson), string(KindInstitution)).Error("deve ser Pessoa ou Instituicao"),
		),
		"data_nascimento": validation.Validate(a.BirthDate,
			validation.When(a.IsPerson(), validation.Required.Error("é obrigatória para pessoas")),
			validation.By(func(interface{}) error {
				if a.BirthDate != nil && truncateDate(*a.BirthDate).After(today) {
					return validation.NewError("author_birth_future", "não pode ser uma data futura")
				}
				return nil
			}),
		),
		"cidade": validation.Validate(a.City,
			validation.When(a.IsInstitution(),
				validation.Required.Error("é obrigatória para instituições"),
				validation.RuneLength(2, 80).Error("deve ter entre 2 e 80 caracteres"),
			),
		),
	}
	return apperror.FromValidation(errs.Filter())
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MaterialSummary is a material row listed on an author's detail page.
type MaterialSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"titulo"`
	Kind      string    `json:"tipo"`
	Status    string    `json:"status"`
	CreatedBy string    `json:"criado_por"`
	CreatedAt time.Time `json:"criado_em"`
}
