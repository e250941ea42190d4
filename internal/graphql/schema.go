package graphql

import (
	"context"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"

	"digital-library-backend/internal/domains/author"
	"digital-library-backend/internal/domains/material"
	"digital-library-backend/internal/shared/pagination"
)

// NewSchema builds the query and mutation roots over the catalog services.
func NewSchema(materials material.Service, authors author.Service) (graphql.Schema, error) {
	t := newTypes(materials, authors)
	r := &resolver{materials: materials, authors: authors}

	pageArgs := graphql.FieldConfigArgument{
		"page":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: pagination.DefaultPage},
		"perPage": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: pagination.DefaultPerPage},
	}
	materialArgs := func(extra graphql.FieldConfigArgument) graphql.FieldConfigArgument {
		args := graphql.FieldConfigArgument{
			"status":     &graphql.ArgumentConfig{Type: graphql.String},
			"autorId":    &graphql.ArgumentConfig{Type: graphql.ID},
			"termoBusca": &graphql.ArgumentConfig{Type: graphql.String},
		}
		for k, v := range pageArgs {
			args[k] = v
		}
		for k, v := range extra {
			args[k] = v
		}
		return args
	}
	idArg := graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
	}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"materials": &graphql.Field{
				Type: graphql.NewList(t.material),
				Args: materialArgs(graphql.FieldConfigArgument{
					"tipo": &graphql.ArgumentConfig{Type: graphql.String},
				}),
				Resolve: r.listMaterials(""),
			},
			"material": &graphql.Field{Type: t.material, Args: idArg, Resolve: r.getMaterial("")},

			"autores": &graphql.Field{
				Type: graphql.NewList(t.author),
				Args: graphql.FieldConfigArgument{
					"tipo":       &graphql.ArgumentConfig{Type: graphql.String},
					"termoBusca": &graphql.ArgumentConfig{Type: graphql.String},
					"page":       pageArgs["page"],
					"perPage":    pageArgs["perPage"],
				},
				Resolve: r.listAuthors,
			},
			"autor": &graphql.Field{Type: t.author, Args: idArg, Resolve: r.getAuthor},

			"livros": &graphql.Field{Type: graphql.NewList(t.book), Args: materialArgs(nil), Resolve: r.listMaterials(material.KindBook)},
			"livro":  &graphql.Field{Type: t.book, Args: idArg, Resolve: r.getMaterial(material.KindBook)},
			"livroPorIsbn": &graphql.Field{
				Type: t.book,
				Args: graphql.FieldConfigArgument{
					"isbn": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.bookByISBN,
			},

			"artigos": &graphql.Field{Type: graphql.NewList(t.article), Args: materialArgs(nil), Resolve: r.listMaterials(material.KindArticle)},
			"artigo":  &graphql.Field{Type: t.article, Args: idArg, Resolve: r.getMaterial(material.KindArticle)},
			"artigoPorDoi": &graphql.Field{
				Type: t.article,
				Args: graphql.FieldConfigArgument{
					"doi": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.articleByDOI,
			},

			"videos": &graphql.Field{
				Type: graphql.NewList(t.video),
				Args: materialArgs(graphql.FieldConfigArgument{
					"minDuracao": &graphql.ArgumentConfig{Type: graphql.Int},
					"maxDuracao": &graphql.ArgumentConfig{Type: graphql.Int},
					"categoria":  &graphql.ArgumentConfig{Type: graphql.String},
				}),
				Resolve: r.listMaterials(material.KindVideo),
			},
			"video": &graphql.Field{Type: t.video, Args: idArg, Resolve: r.getMaterial(material.KindVideo)},

			"estatisticas": &graphql.Field{
				Type: graphql.NewNonNull(jsonScalar),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					stats, err := materials.Statistics(p.Context)
					if err != nil {
						return nil, coded(err)
					}
					return stats, nil
				},
			},
		},
	})

	input := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "MaterialInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"tipo":           &graphql.InputObjectFieldConfig{Type: graphql.String},
			"titulo":         &graphql.InputObjectFieldConfig{Type: graphql.String},
			"descricao":      &graphql.InputObjectFieldConfig{Type: graphql.String},
			"status":         &graphql.InputObjectFieldConfig{Type: graphql.String},
			"autorId":        &graphql.InputObjectFieldConfig{Type: graphql.ID},
			"isbn":           &graphql.InputObjectFieldConfig{Type: graphql.String},
			"numeroPaginas":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"doi":            &graphql.InputObjectFieldConfig{Type: graphql.String},
			"duracaoMinutos": &graphql.InputObjectFieldConfig{Type: graphql.Int},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"criarMaterial": &graphql.Field{
				Type: t.material,
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(input)},
				},
				Resolve: r.createMaterial,
			},
			"atualizarMaterial": &graphql.Field{
				Type: t.material,
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(input)},
				},
				Resolve: r.updateMaterial,
			},
			"excluirMaterial": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Args:    idArg,
				Resolve: r.deleteMaterial,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}

type resolver struct {
	materials material.Service
	authors   author.Service
}

// ════════════════════════════════════════════════════════════════
// QUERIES
// ════════════════════════════════════════════════════════════════

// listMaterials resolves a paginated listing. An empty kind reads the tipo
// argument instead.
func (r *resolver) listMaterials(kind material.Kind) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		filter := material.Filter{
			Query:  stringArg(p.Args, "termoBusca"),
			Kind:   kind,
			Status: material.Status(stringArg(p.Args, "status")),
			Page:   pagination.New(intArg(p.Args, "page"), intArg(p.Args, "perPage")),
		}
		if kind == "" {
			filter.Kind = material.Kind(stringArg(p.Args, "tipo"))
		}
		if raw := stringArg(p.Args, "autorId"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return []*material.Material{}, nil
			}
			filter.AuthorID = &id
		}
		if kind == material.KindVideo {
			filter.MinDuration = optionalInt(p.Args, "minDuracao")
			filter.MaxDuration = optionalInt(p.Args, "maxDuracao")
			filter.DurationCategory = stringArg(p.Args, "categoria")
		}

		items, _, err := r.materials.Search(p.Context, filter)
		if err != nil {
			return nil, coded(err)
		}
		return pointers(items), nil
	}
}

// getMaterial answers null for unknown ids and for materials of another kind.
func (r *resolver) getMaterial(kind material.Kind) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		m, err := r.loadMaterial(p.Context, stringArg(p.Args, "id"))
		if err != nil || m == nil {
			return nil, err
		}
		if kind != "" && (m.Kind != kind || m.Detail == nil) {
			return nil, nil
		}
		return m, nil
	}
}

func (r *resolver) loadMaterial(ctx context.Context, raw string) (*material.Material, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, nil
	}
	m, err := r.materials.Get(ctx, id)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, coded(err)
	}
	return m, nil
}

func (r *resolver) bookByISBN(p graphql.ResolveParams) (interface{}, error) {
	m, err := r.materials.FindBookByISBN(p.Context, stringArg(p.Args, "isbn"))
	return nullable(m, err)
}

func (r *resolver) articleByDOI(p graphql.ResolveParams) (interface{}, error) {
	m, err := r.materials.FindArticleByDOI(p.Context, stringArg(p.Args, "doi"))
	return nullable(m, err)
}

func (r *resolver) listAuthors(p graphql.ResolveParams) (interface{}, error) {
	items, _, err := r.authors.List(p.Context, author.AuthorFilter{
		Kind:  stringArg(p.Args, "tipo"),
		Query: stringArg(p.Args, "termoBusca"),
		Page:  pagination.New(intArg(p.Args, "page"), intArg(p.Args, "perPage")),
	})
	if err != nil {
		return nil, coded(err)
	}
	out := make([]*author.Author, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}

func (r *resolver) getAuthor(p graphql.ResolveParams) (interface{}, error) {
	id, err := uuid.Parse(stringArg(p.Args, "id"))
	if err != nil {
		return nil, nil
	}
	a, err := r.authors.GetByID(p.Context, id)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, coded(err)
	}
	return a, nil
}

// ════════════════════════════════════════════════════════════════
// MUTATIONS
// ════════════════════════════════════════════════════════════════

func (r *resolver) createMaterial(p graphql.ResolveParams) (interface{}, error) {
	u, err := requireUser(p.Context)
	if err != nil {
		return nil, err
	}

	m, err := r.materials.Create(p.Context, u, paramsFrom(p.Args))
	if err != nil {
		return nil, coded(err)
	}
	return m, nil
}

func (r *resolver) updateMaterial(p graphql.ResolveParams) (interface{}, error) {
	u, err := requireUser(p.Context)
	if err != nil {
		return nil, err
	}

	m, err := r.existing(p)
	if err != nil {
		return nil, err
	}

	updated, err := r.materials.Update(p.Context, m, u, paramsFrom(p.Args))
	if err != nil {
		return nil, coded(err)
	}
	return updated, nil
}

func (r *resolver) deleteMaterial(p graphql.ResolveParams) (interface{}, error) {
	u, err := requireUser(p.Context)
	if err != nil {
		return nil, err
	}

	m, err := r.existing(p)
	if err != nil {
		return nil, err
	}

	if err := r.materials.Delete(p.Context, m, u); err != nil {
		return nil, coded(err)
	}
	return true, nil
}

// existing loads the mutation target, reporting unknown ids as errors.
func (r *resolver) existing(p graphql.ResolveParams) (*material.Material, error) {
	m, err := r.loadMaterial(p.Context, stringArg(p.Args, "id"))
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, coded(material.ErrMaterialNotFound)
	}
	return m, nil
}

// ========================================
// ARGUMENTS
// ========================================

func paramsFrom(args map[string]interface{}) material.MaterialParams {
	in, _ := args["input"].(map[string]interface{})
	return material.MaterialParams{
		Kind:            optionalString(in, "tipo"),
		Title:           optionalString(in, "titulo"),
		Description:     optionalString(in, "descricao"),
		Status:          optionalString(in, "status"),
		AuthorID:        optionalString(in, "autorId"),
		ISBN:            optionalString(in, "isbn"),
		PageCount:       optionalInt(in, "numeroPaginas"),
		DOI:             optionalString(in, "doi"),
		DurationMinutes: optionalInt(in, "duracaoMinutos"),
	}
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]interface{}, key string) int {
	n, _ := args[key].(int)
	return n
}

func optionalString(args map[string]interface{}, key string) *string {
	s, ok := args[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func optionalInt(args map[string]interface{}, key string) *int {
	n, ok := args[key].(int)
	if !ok {
		return nil
	}
	return &n
}

func nullable(m *material.Material, err error) (interface{}, error) {
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, coded(err)
	}
	return m, nil
}
