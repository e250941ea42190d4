package author

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"digital-library-backend/internal/shared/pagination"
)

// CreateAuthorRequest - POST /autores
type CreateAuthorRequest struct {
	Name      string  `json:"nome"`
	Kind      string  `json:"tipo"`
	BirthDate *string `json:"data_nascimento,omitempty"`
	City      *string `json:"cidade,omitempty"`
}

// MissingFields lists required fields left blank.
func (r CreateAuthorRequest) MissingFields() []string {
	var out []string
	if strings.TrimSpace(r.Name) == "" {
		out = append(out, "nome")
	}
	if strings.TrimSpace(r.Kind) == "" {
		out = append(out, "tipo")
	}
	return out
}

// ToEntity builds an unsaved Author.
func (r CreateAuthorRequest) ToEntity() (*Author, error) {
	a := &Author{
		Name: strings.TrimSpace(r.Name),
		Kind: Kind(strings.TrimSpace(r.Kind)),
		City: trimmed(r.City),
	}
	birth, err := parseDate(r.BirthDate)
	if err != nil {
		return nil, err
	}
	a.BirthDate = birth
	return a, nil
}

// UpdateAuthorRequest - PUT /autores/:id. Nil fields are left untouched.
type UpdateAuthorRequest struct {
	Name      *string `json:"nome,omitempty"`
	Kind      *string `json:"tipo,omitempty"`
	BirthDate *string `json:"data_nascimento,omitempty"`
	City      *string `json:"cidade,omitempty"`
}

// ApplyTo copies the present fields onto a.
func (r UpdateAuthorRequest) ApplyTo(a *Author) error {
	if r.Kind != nil && Kind(strings.TrimSpace(*r.Kind)) != a.Kind {
		return ErrKindImmutable()
	}
	if r.Name != nil {
		a.Name = strings.TrimSpace(*r.Name)
	}
	if r.City != nil {
		a.City = trimmed(r.City)
	}
	if r.BirthDate != nil {
		birth, err := parseDate(r.BirthDate)
		if err != nil {
			return err
		}
		a.BirthDate = birth
	}
	return nil
}

// AuthorFilter - GET /autores?tipo=&q=&page=&per_page=
type AuthorFilter struct {
	Kind  string
	Query string
	Page  pagination.Params
}

// AuthorResponse is the serialized author.
type AuthorResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"nome"`
	Kind           Kind      `json:"tipo"`
	FullName       string    `json:"nome_completo"`
	BirthDate      *string   `json:"data_nascimento"`
	City           *string   `json:"cidade"`
	Age            *int      `json:"idade"`
	TotalMaterials int       `json:"total_materiais"`
	CreatedAt      time.Time `json:"criado_em"`
	UpdatedAt      time.Time `json:"atualizado_em"`
}

// AuthorDetailResponse adds the author's materials.
type AuthorDetailResponse struct {
	AuthorResponse
	Materials []MaterialSummary `json:"materiais"`
}

func (a *Author) ToResponse(today time.Time) AuthorResponse {
	var birth *string
	if a.BirthDate != nil {
		s := a.BirthDate.Format(DateLayout)
		birth = &s
	}
	return AuthorResponse{
		ID:             a.ID,
		Name:           a.Name,
		Kind:           a.Kind,
		FullName:       a.FullName(),
		BirthDate:      birth,
		City:           a.City,
		Age:            a.Age(today),
		TotalMaterials: a.MaterialCount,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(*s))
	if err != nil {
		return nil, ErrInvalidDate()
	}
	return &t, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
