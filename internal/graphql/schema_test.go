package graphql

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital-library-backend/internal/domains/author"
	"digital-library-backend/internal/domains/material"
	"digital-library-backend/internal/domains/user"
	"digital-library-backend/internal/shared/apperror"
	"digital-library-backend/internal/shared/middleware"
)

type stubMaterials struct {
	material.Service
	byID    map[uuid.UUID]*material.Material
	items   []material.Material
	filter  material.Filter
	created material.MaterialParams
}

func (s *stubMaterials) Get(_ context.Context, id uuid.UUID) (*material.Material, error) {
	if m, ok := s.byID[id]; ok {
		return m, nil
	}
	return nil, material.ErrMaterialNotFound
}

func (s *stubMaterials) Search(_ context.Context, f material.Filter) ([]material.Material, int64, error) {
	s.filter = f
	return s.items, int64(len(s.items)), nil
}

func (s *stubMaterials) Create(_ context.Context, u *user.User, p material.MaterialParams) (*material.Material, error) {
	s.created = p
	if p.DurationMinutes != nil && *p.DurationMinutes > material.MaxVideoMinutes {
		return nil, apperror.NewValidation("duracao_minutos", "não pode ser maior que 24 horas")
	}
	return &material.Material{ID: uuid.New(), Kind: material.Kind(*p.Kind), Title: *p.Title, CreatorUserID: u.ID, CreatorEmail: u.Email}, nil
}

func (s *stubMaterials) Delete(_ context.Context, m *material.Material, u *user.User) error {
	if !m.CanBeDeletedBy(u) {
		return material.ErrDeleteForbidden
	}
	return nil
}

func (s *stubMaterials) Statistics(context.Context) (*material.Statistics, error) {
	return &material.Statistics{TotalMaterials: 3}, nil
}

type stubAuthors struct {
	author.Service
	byID map[uuid.UUID]*author.Author
}

func (s stubAuthors) GetByID(_ context.Context, id uuid.UUID) (*author.Author, error) {
	if a, ok := s.byID[id]; ok {
		return a, nil
	}
	return nil, author.ErrAuthorNotFound
}

func (s stubAuthors) Today() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }

type fixture struct {
	schema    graphql.Schema
	materials *stubMaterials
	owner     *user.User
	video     *material.Material
	machado   *author.Author
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	birth := time.Date(1839, 6, 21, 0, 0, 0, 0, time.UTC)
	machado := &author.Author{ID: uuid.New(), Name: "Machado de Assis", Kind: author.KindPerson, BirthDate: &birth, MaterialCount: 1}
	owner := &user.User{ID: uuid.New(), Email: "dono@example.com"}
	video := &material.Material{
		ID:            uuid.New(),
		Kind:          material.KindVideo,
		Title:         "Aula de redes",
		Status:        material.StatusPublished,
		AuthorID:      machado.ID,
		CreatorUserID: owner.ID,
		CreatorEmail:  owner.Email,
		Detail:        &material.Video{DurationMinutes: 90},
	}

	materials := &stubMaterials{
		byID:  map[uuid.UUID]*material.Material{video.ID: video},
		items: []material.Material{*video},
	}
	schema, err := NewSchema(materials, stubAuthors{byID: map[uuid.UUID]*author.Author{machado.ID: machado}})
	require.NoError(t, err)

	return &fixture{schema: schema, materials: materials, owner: owner, video: video, machado: machado}
}

func (f *fixture) run(u *user.User, query string, vars map[string]interface{}) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         f.schema,
		RequestString:  query,
		VariableValues: vars,
		Context:        WithUser(context.Background(), u),
	})
}

func TestMaterialQueryResolvesRelations(t *testing.T) {
	f := newFixture(t)

	res := f.run(f.owner, `query($id: ID!) {
		material(id: $id) {
			titulo tipo podeEditar podeExcluir
			autor { nome nomeCompleto idade }
			usuario { email }
			video { duracaoFormatada duracaoSegundos categoriaDuracao }
			livro { isbn }
			informacoesEspecificas
		}
	}`, map[string]interface{}{"id": f.video.ID.String()})

	require.Empty(t, res.Errors)
	m := res.Data.(map[string]interface{})["material"].(map[string]interface{})
	assert.Equal(t, "Aula de redes", m["titulo"])
	assert.Equal(t, true, m["podeEditar"])
	assert.Nil(t, m["livro"])

	a := m["autor"].(map[string]interface{})
	assert.Equal(t, "Machado de Assis (Pessoa)", a["nomeCompleto"])
	assert.Equal(t, 184, a["idade"])

	v := m["video"].(map[string]interface{})
	assert.Equal(t, "1h 30min", v["duracaoFormatada"])
	assert.Equal(t, 5400, v["duracaoSegundos"])
	assert.Equal(t, "longo", v["categoriaDuracao"])

	info := m["informacoesEspecificas"].(map[string]interface{})
	assert.EqualValues(t, 90, info["duracao_minutos"])
}

func TestAnonymousViewerCannotEdit(t *testing.T) {
	f := newFixture(t)

	res := f.run(nil, `query($id: ID!) { material(id: $id) { podeEditar podeExcluir } }`,
		map[string]interface{}{"id": f.video.ID.String()})

	require.Empty(t, res.Errors)
	m := res.Data.(map[string]interface{})["material"].(map[string]interface{})
	assert.Equal(t, false, m["podeEditar"])
	assert.Equal(t, false, m["podeExcluir"])
}

func TestSubtypeQueryIgnoresOtherKinds(t *testing.T) {
	f := newFixture(t)

	res := f.run(nil, `query($id: ID!) { livro(id: $id) { isbn } video(id: $id) { duracaoMinutos } }`,
		map[string]interface{}{"id": f.video.ID.String()})

	require.Empty(t, res.Errors)
	data := res.Data.(map[string]interface{})
	assert.Nil(t, data["livro"])
	assert.NotNil(t, data["video"])
}

func TestUnknownMaterialIsNull(t *testing.T) {
	f := newFixture(t)

	res := f.run(nil, `{ material(id: "`+uuid.NewString()+`") { titulo } }`, nil)

	require.Empty(t, res.Errors)
	assert.Nil(t, res.Data.(map[string]interface{})["material"])
}

func TestVideosPassDurationFilters(t *testing.T) {
	f := newFixture(t)

	res := f.run(nil, `{ videos(minDuracao: 30, categoria: "longo", page: 2, perPage: 500) { id } }`, nil)

	require.Empty(t, res.Errors)
	assert.Equal(t, material.KindVideo, f.materials.filter.Kind)
	require.NotNil(t, f.materials.filter.MinDuration)
	assert.Equal(t, 30, *f.materials.filter.MinDuration)
	assert.Equal(t, "longo", f.materials.filter.DurationCategory)
	assert.Equal(t, 2, f.materials.filter.Page.Page)
	assert.Equal(t, 100, f.materials.filter.Page.PerPage)
}

func TestStatisticsQuery(t *testing.T) {
	f := newFixture(t)

	res := f.run(nil, `{ estatisticas }`, nil)

	require.Empty(t, res.Errors)
	stats := res.Data.(map[string]interface{})["estatisticas"].(map[string]interface{})
	assert.EqualValues(t, 3, stats["total_materiais"])
}

func TestMutationsRequireUser(t *testing.T) {
	f := newFixture(t)

	res := f.run(nil, `mutation { excluirMaterial(id: "`+f.video.ID.String()+`") }`, nil)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "ERRO_AUTENTICACAO", res.Errors[0].Extensions["codigo"])
}

func TestDeleteByStrangerCarriesCode(t *testing.T) {
	f := newFixture(t)
	stranger := &user.User{ID: uuid.New()}

	res := f.run(stranger, `mutation { excluirMaterial(id: "`+f.video.ID.String()+`") }`, nil)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "ERRO_AUTORIZACAO", res.Errors[0].Extensions["codigo"])
	assert.Equal(t, "Você não tem permissão para excluir este material", res.Errors[0].Message)
}

func TestCreateMaterialMapsInput(t *testing.T) {
	f := newFixture(t)

	res := f.run(f.owner, `mutation($input: MaterialInput!) {
		criarMaterial(input: $input) { titulo tipo usuario { email } }
	}`, map[string]interface{}{"input": map[string]interface{}{
		"tipo": "Video", "titulo": "Aula", "autorId": f.machado.ID.String(), "duracaoMinutos": 45,
	}})

	require.Empty(t, res.Errors)
	created := res.Data.(map[string]interface{})["criarMaterial"].(map[string]interface{})
	assert.Equal(t, "Aula", created["titulo"])
	require.NotNil(t, f.materials.created.DurationMinutes)
	assert.Equal(t, 45, *f.materials.created.DurationMinutes)
	assert.Nil(t, f.materials.created.ISBN)
}

func TestCreateMaterialValidationErrorDetails(t *testing.T) {
	f := newFixture(t)

	res := f.run(f.owner, `mutation {
		criarMaterial(input: {tipo: "Video", titulo: "Aula", duracaoMinutos: 2000}) { id }
	}`, nil)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "ERRO_VALIDACAO", res.Errors[0].Extensions["codigo"])
	assert.NotEmpty(t, res.Errors[0].Extensions["detalhes"])
}

func TestHandlerPassesCurrentUser(t *testing.T) {
	f := newFixture(t)
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(func(c *gin.Context) { middleware.SetCurrentUser(c, f.owner) })
	r.POST("/graphql", NewHandler(f.schema).Serve)

	body := `{"query":"query($id: ID!) { material(id: $id) { podeEditar } }","variables":{"id":"` + f.video.ID.String() + `"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"material":{"podeEditar":true}}}`, w.Body.String())
}

func TestHandlerRequiresQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/graphql", NewHandler(newFixture(t).schema).Serve)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":""}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"campos_faltando":["query"]`)
}
