package graphql

import (
	"encoding/json"

	"github.com/graphql-go/graphql"

	"digital-library-backend/internal/domains/author"
	"digital-library-backend/internal/domains/material"
	"digital-library-backend/internal/domains/user"
	"digital-library-backend/internal/shared/pagination"
)

// jsonScalar passes structured values through using their JSON encoding.
var jsonScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "JSON",
	Description: "Valor JSON arbitrário",
	Serialize: func(value interface{}) interface{} {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil
		}
		var out interface{}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil
		}
		return out
	},
})

// types holds the object graph. Material and Autor reference each other, so
// fields are declared through thunks.
type types struct {
	materials material.Service
	authors   author.Service

	material *graphql.Object
	author   *graphql.Object
	user     *graphql.Object
	book     *graphql.Object
	article  *graphql.Object
	video    *graphql.Object
}

func newTypes(materials material.Service, authors author.Service) *types {
	t := &types{materials: materials, authors: authors}

	t.user = graphql.NewObject(graphql.ObjectConfig{
		Name: "Usuario",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID), Resolve: userField(func(u *user.User) interface{} { return u.ID.String() })},
			"email": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: userField(func(u *user.User) interface{} { return u.Email })},
		},
	})

	t.author = graphql.NewObject(graphql.ObjectConfig{
		Name:   "Autor",
		Fields: graphql.FieldsThunk(t.authorFields),
	})
	t.material = graphql.NewObject(graphql.ObjectConfig{
		Name:   "Material",
		Fields: graphql.FieldsThunk(t.materialFields),
	})
	t.book = graphql.NewObject(graphql.ObjectConfig{
		Name: "Livro",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id": t.idField(),
				"isbn": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: bookField(func(b *material.Book) interface{} {
					return b.ISBN
				})},
				"isbnFormatado": &graphql.Field{Type: graphql.String, Resolve: bookField(func(b *material.Book) interface{} {
					return nonBlank(b.FormattedISBN())
				})},
				"numeroPaginas": &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: bookField(func(b *material.Book) interface{} {
					return b.PageCount
				})},
				"material": t.selfField(),
			}
		}),
	})
	t.article = graphql.NewObject(graphql.ObjectConfig{
		Name: "Artigo",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id": t.idField(),
				"doi": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: articleField(func(a *material.Article) interface{} {
					return a.DOI
				})},
				"doiUrl": &graphql.Field{Type: graphql.String, Resolve: articleField(func(a *material.Article) interface{} {
					return nonBlank(a.DOIURL())
				})},
				"material": t.selfField(),
			}
		}),
	})
	t.video = graphql.NewObject(graphql.ObjectConfig{
		Name: "Video",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id": t.idField(),
				"duracaoMinutos": &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: videoField(func(v *material.Video) interface{} {
					return v.DurationMinutes
				})},
				"duracaoFormatada": &graphql.Field{Type: graphql.String, Resolve: videoField(func(v *material.Video) interface{} {
					return v.FormattedDuration()
				})},
				"duracaoSegundos": &graphql.Field{Type: graphql.Int, Resolve: videoField(func(v *material.Video) interface{} {
					return v.DurationSeconds()
				})},
				"categoriaDuracao": &graphql.Field{Type: graphql.String, Resolve: videoField(func(v *material.Video) interface{} {
					return v.Category()
				})},
				"material": t.selfField(),
			}
		}),
	})
	return t
}

func (t *types) materialFields() graphql.Fields {
	return graphql.Fields{
		"id":     t.idField(),
		"titulo": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: materialField(func(m *material.Material) interface{} { return m.Title })},
		"descricao": &graphql.Field{Type: graphql.String, Resolve: materialField(func(m *material.Material) interface{} {
			return deref(m.Description)
		})},
		"tipo":      &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: materialField(func(m *material.Material) interface{} { return string(m.Kind) })},
		"status":    &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: materialField(func(m *material.Material) interface{} { return string(m.Status) })},
		"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime), Resolve: materialField(func(m *material.Material) interface{} { return m.CreatedAt })},
		"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime), Resolve: materialField(func(m *material.Material) interface{} { return m.UpdatedAt })},
		"autor": &graphql.Field{
			Type: t.author,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				m, ok := p.Source.(*material.Material)
				if !ok {
					return nil, nil
				}
				// Loaded materials carry only the author's name and kind.
				a, err := t.authors.GetByID(p.Context, m.AuthorID)
				if err != nil {
					return nil, coded(err)
				}
				return a, nil
			},
		},
		"usuario": &graphql.Field{
			Type: t.user,
			Resolve: materialField(func(m *material.Material) interface{} {
				return &user.User{ID: m.CreatorUserID, Email: m.CreatorEmail}
			}),
		},
		"livro":                  t.subtypeField(t.book, material.KindBook),
		"artigo":                 t.subtypeField(t.article, material.KindArticle),
		"video":                  t.subtypeField(t.video, material.KindVideo),
		"informacoesEspecificas": &graphql.Field{Type: jsonScalar, Resolve: materialField(func(m *material.Material) interface{} { return m.TypeSpecificInfo() })},
		"podeEditar": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Boolean),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				m, _ := p.Source.(*material.Material)
				return m != nil && m.CanBeEditedBy(UserFrom(p.Context)), nil
			},
		},
		"podeExcluir": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Boolean),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				m, _ := p.Source.(*material.Material)
				return m != nil && m.CanBeDeletedBy(UserFrom(p.Context)), nil
			},
		},
	}
}

func (t *types) authorFields() graphql.Fields {
	return graphql.Fields{
		"id":     &graphql.Field{Type: graphql.NewNonNull(graphql.ID), Resolve: authorField(func(a *author.Author) interface{} { return a.ID.String() })},
		"nome":   &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: authorField(func(a *author.Author) interface{} { return a.Name })},
		"tipo":   &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: authorField(func(a *author.Author) interface{} { return string(a.Kind) })},
		"cidade": &graphql.Field{Type: graphql.String, Resolve: authorField(func(a *author.Author) interface{} { return deref(a.City) })},
		"dataNascimento": &graphql.Field{Type: graphql.String, Resolve: authorField(func(a *author.Author) interface{} {
			if a.BirthDate == nil {
				return nil
			}
			return a.BirthDate.Format(author.DateLayout)
		})},
		"createdAt":    &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime), Resolve: authorField(func(a *author.Author) interface{} { return a.CreatedAt })},
		"updatedAt":    &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime), Resolve: authorField(func(a *author.Author) interface{} { return a.UpdatedAt })},
		"nomeCompleto": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: authorField(func(a *author.Author) interface{} { return a.FullName() })},
		"idade": &graphql.Field{Type: graphql.Int, Resolve: authorField(func(a *author.Author) interface{} {
			if age := a.Age(t.authors.Today()); age != nil {
				return *age
			}
			return nil
		})},
		"totalMateriais": &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: authorField(func(a *author.Author) interface{} {
			return a.MaterialCount
		})},
		"materials": &graphql.Field{
			Type: graphql.NewList(t.material),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				a, ok := p.Source.(*author.Author)
				if !ok {
					return nil, nil
				}
				items, _, err := t.materials.Search(p.Context, material.Filter{
					AuthorID: &a.ID,
					Page:     pagination.New(1, pagination.MaxPerPage),
				})
				if err != nil {
					return nil, coded(err)
				}
				return pointers(items), nil
			},
		},
	}
}

// idField resolves the material id, which also identifies its detail record.
func (t *types) idField() *graphql.Field {
	return &graphql.Field{
		Type:    graphql.NewNonNull(graphql.ID),
		Resolve: materialField(func(m *material.Material) interface{} { return m.ID.String() }),
	}
}

func (t *types) selfField() *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewNonNull(t.material),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return p.Source, nil
		},
	}
}

// subtypeField exposes the material as its detail type when the kinds match
// and the record exists.
func (t *types) subtypeField(obj *graphql.Object, kind material.Kind) *graphql.Field {
	return &graphql.Field{
		Type: obj,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			m, ok := p.Source.(*material.Material)
			if !ok || m.Kind != kind || m.Detail == nil {
				return nil, nil
			}
			return m, nil
		},
	}
}

// ========================================
// RESOLVER HELPERS
// ========================================

func materialField(fn func(*material.Material) interface{}) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		if m, ok := p.Source.(*material.Material); ok {
			return fn(m), nil
		}
		return nil, nil
	}
}

func authorField(fn func(*author.Author) interface{}) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		if a, ok := p.Source.(*author.Author); ok {
			return fn(a), nil
		}
		return nil, nil
	}
}

func userField(fn func(*user.User) interface{}) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		if u, ok := p.Source.(*user.User); ok {
			return fn(u), nil
		}
		return nil, nil
	}
}

func bookField(fn func(*material.Book) interface{}) graphql.FieldResolveFn {
	return materialField(func(m *material.Material) interface{} {
		if b := m.Book(); b != nil {
			return fn(b)
		}
		return nil
	})
}

func articleField(fn func(*material.Article) interface{}) graphql.FieldResolveFn {
	return materialField(func(m *material.Material) interface{} {
		if a := m.Article(); a != nil {
			return fn(a)
		}
		return nil
	})
}

func videoField(fn func(*material.Video) interface{}) graphql.FieldResolveFn {
	return materialField(func(m *material.Material) interface{} {
		if v := m.Video(); v != nil {
			return fn(v)
		}
		return nil
	})
}

func pointers(items []material.Material) []*material.Material {
	out := make([]*material.Material, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out
}

func nonBlank(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func deref(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
