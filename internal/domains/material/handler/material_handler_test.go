package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital-library-backend/internal/domains/author"
	"digital-library-backend/internal/domains/material"
	"digital-library-backend/internal/domains/user"
	"digital-library-backend/internal/infrastructure/openlibrary"
	"digital-library-backend/internal/shared/apperror"
	"digital-library-backend/internal/shared/middleware"
)

type stubService struct {
	material.Service
	items     []material.Material
	total     int64
	filter    material.Filter
	byID      map[uuid.UUID]*material.Material
	params    material.MaterialParams
	viaISBN   bool
	lookedUp  string
	lookupErr error
	deleteErr error
}

func (s *stubService) Search(_ context.Context, f material.Filter) ([]material.Material, int64, error) {
	s.filter = f
	return s.items, s.total, nil
}

func (s *stubService) Get(_ context.Context, id uuid.UUID) (*material.Material, error) {
	if m, ok := s.byID[id]; ok {
		return m, nil
	}
	return nil, material.ErrMaterialNotFound
}

func (s *stubService) Create(_ context.Context, u *user.User, p material.MaterialParams) (*material.Material, error) {
	s.params = p
	return &material.Material{ID: uuid.New(), Kind: material.Kind(*p.Kind), Title: *p.Title, CreatorUserID: u.ID}, nil
}

func (s *stubService) CreateBookFromISBN(_ context.Context, u *user.User, p material.MaterialParams) (*material.Material, error) {
	s.viaISBN = true
	s.params = p
	return &material.Material{ID: uuid.New(), Kind: material.KindBook, Title: "Dom Casmurro", CreatorUserID: u.ID,
		Detail: &material.Book{ISBN: *p.ISBN, PageCount: 256}}, nil
}

func (s *stubService) Delete(_ context.Context, m *material.Material, u *user.User) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if !m.CanBeDeletedBy(u) {
		return material.ErrDeleteForbidden
	}
	return nil
}

func (s *stubService) LookupISBN(_ context.Context, isbn string) (*openlibrary.BookMetadata, error) {
	s.lookedUp = isbn
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	return &openlibrary.BookMetadata{ISBN: isbn, Title: "Dom Casmurro", Authors: []string{"Machado de Assis"}}, nil
}

type stubAuthors struct {
	author.Service
	known uuid.UUID
}

func (s stubAuthors) GetByID(_ context.Context, id uuid.UUID) (*author.Author, error) {
	if id != s.known {
		return nil, author.ErrAuthorNotFound
	}
	return &author.Author{ID: id, Name: "Machado de Assis", Kind: author.KindPerson}, nil
}

func newRouter(svc material.Service, authors author.Service, current *user.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if current != nil {
			middleware.SetCurrentUser(c, current)
		}
	})

	h := NewMaterialHandler(svc, authors)
	r.GET("/materials", h.List)
	r.POST("/materials", h.Create)
	r.GET("/materials/:id", h.Get)
	r.DELETE("/materials/:id", h.Delete)
	r.GET("/buscar", h.Search)
	r.GET("/autores/:id/materials", h.ListByAuthor)

	books := NewBookHandler(svc)
	r.POST("/livros", books.Create)
	r.GET("/livros/:id", books.Get)
	r.GET("/livros/buscar_isbn/:isbn", books.LookupISBN)

	videos := NewVideoHandler(svc)
	r.GET("/videos", videos.List)
	r.POST("/videos", videos.Create)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestListParsesFilters(t *testing.T) {
	authorID := uuid.New()
	svc := &stubService{
		items: []material.Material{{ID: uuid.New(), Kind: material.KindArticle, Title: "Redes", CreatedAt: time.Now()}},
		total: 21,
	}

	w := do(newRouter(svc, stubAuthors{}, nil), http.MethodGet,
		"/materials?q=redes&tipo=Artigo&status=publicado&autor_id="+authorID.String()+"&page=2&per_page=10", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "redes", svc.filter.Query)
	assert.Equal(t, material.KindArticle, svc.filter.Kind)
	assert.Equal(t, material.StatusPublished, svc.filter.Status)
	require.NotNil(t, svc.filter.AuthorID)
	assert.Equal(t, authorID, *svc.filter.AuthorID)

	var body struct {
		Data       []map[string]interface{} `json:"dados"`
		Pagination struct {
			TotalPages int  `json:"total_paginas"`
			HasNext    bool `json:"tem_proxima_pagina"`
		} `json:"paginacao"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, 3, body.Pagination.TotalPages)
	assert.True(t, body.Pagination.HasNext)
}

func TestListRejectsMalformedAuthorID(t *testing.T) {
	w := do(newRouter(&stubService{}, stubAuthors{}, nil), http.MethodGet, "/materials?autor_id=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchRequiresTerm(t *testing.T) {
	w := do(newRouter(&stubService{}, stubAuthors{}, nil), http.MethodGet, "/buscar", "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"erro":"Termo de busca é obrigatório","codigo":"ERRO_TERMO_BUSCA"}`, w.Body.String())
}

func TestSearchEchoesTerm(t *testing.T) {
	w := do(newRouter(&stubService{}, stubAuthors{}, nil), http.MethodGet, "/buscar?q=machado", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Term string `json:"termo_busca"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "machado", body.Term)
}

func TestListByAuthorRequiresExistingAuthor(t *testing.T) {
	known := uuid.New()
	svc := &stubService{}
	r := newRouter(svc, stubAuthors{known: known}, nil)

	w := do(r, http.MethodGet, "/autores/"+uuid.NewString()+"/materials", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/autores/"+known.String()+"/materials", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.filter.AuthorID)
	assert.Equal(t, known, *svc.filter.AuthorID)
}

func TestCreatePassesCurrentUser(t *testing.T) {
	owner := &user.User{ID: uuid.New(), Email: "dono@example.com"}
	svc := &stubService{}

	w := do(newRouter(svc, stubAuthors{}, owner), http.MethodPost, "/materials",
		`{"tipo":"Artigo","titulo":"Redes","autor_id":"`+uuid.NewString()+`","doi":"10.1000/xyz"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"mensagem":"Material criado com sucesso"`)
	require.NotNil(t, svc.params.DOI)
	assert.Equal(t, "10.1000/xyz", *svc.params.DOI)
}

func TestCreateBookRequiresISBN(t *testing.T) {
	owner := &user.User{ID: uuid.New()}
	svc := &stubService{}

	w := do(newRouter(svc, stubAuthors{}, owner), http.MethodPost, "/livros", `{"titulo":"Dom Casmurro"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"erro":"Parâmetros obrigatórios não fornecidos","codigo":"ERRO_PARAMETROS","campos_faltando":["isbn"]}`, w.Body.String())
	assert.False(t, svc.viaISBN)
}

func TestCreateBookGoesThroughEnrichment(t *testing.T) {
	owner := &user.User{ID: uuid.New()}
	svc := &stubService{}

	w := do(newRouter(svc, stubAuthors{}, owner), http.MethodPost, "/livros", `{"isbn":"9788535910663"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, svc.viaISBN)
	assert.Equal(t, "Livro", *svc.params.Kind)

	var body struct {
		Message string `json:"mensagem"`
		Data    struct {
			ISBN          string `json:"isbn"`
			FormattedISBN string `json:"isbn_formatado"`
		} `json:"dados"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Livro criado com sucesso", body.Message)
	assert.Equal(t, "978-85-35910-66-3", body.Data.FormattedISBN)
}

func TestCreateVideoRequiresDuration(t *testing.T) {
	w := do(newRouter(&stubService{}, stubAuthors{}, &user.User{ID: uuid.New()}), http.MethodPost, "/videos",
		`{"titulo":"Aula","autor_id":"`+uuid.NewString()+`"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"campos_faltando":["duracao_minutos"]`)
}

func TestVideoListReadsDurationFilters(t *testing.T) {
	svc := &stubService{}
	w := do(newRouter(svc, stubAuthors{}, nil), http.MethodGet, "/videos?min_duracao=10&max_duracao=abc&categoria=medio", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, material.KindVideo, svc.filter.Kind)
	require.NotNil(t, svc.filter.MinDuration)
	assert.Equal(t, 10, *svc.filter.MinDuration)
	assert.Nil(t, svc.filter.MaxDuration)
	assert.Equal(t, "medio", svc.filter.DurationCategory)
}

func TestSubtypeGetRejectsOtherKinds(t *testing.T) {
	video := &material.Material{ID: uuid.New(), Kind: material.KindVideo, Detail: &material.Video{DurationMinutes: 10}}
	svc := &stubService{byID: map[uuid.UUID]*material.Material{video.ID: video}}

	w := do(newRouter(svc, stubAuthors{}, nil), http.MethodGet, "/livros/"+video.ID.String(), "")

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"erro":"Livro não encontrado","codigo":"ERRO_NAO_ENCONTRADO"}`, w.Body.String())
}

func TestGetIncludesPermissions(t *testing.T) {
	owner := &user.User{ID: uuid.New(), Email: "dono@example.com"}
	m := &material.Material{ID: uuid.New(), Kind: material.KindBook, CreatorUserID: owner.ID, CreatorEmail: owner.Email}
	svc := &stubService{byID: map[uuid.UUID]*material.Material{m.ID: m}}

	w := do(newRouter(svc, stubAuthors{}, owner), http.MethodGet, "/materials/"+m.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pode_editar":true`)

	w = do(newRouter(svc, stubAuthors{}, nil), http.MethodGet, "/materials/"+m.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pode_editar":false`)
}

func TestDeleteByStrangerIsForbidden(t *testing.T) {
	m := &material.Material{ID: uuid.New(), Kind: material.KindArticle, CreatorUserID: uuid.New()}
	svc := &stubService{byID: map[uuid.UUID]*material.Material{m.ID: m}}

	w := do(newRouter(svc, stubAuthors{}, &user.User{ID: uuid.New()}), http.MethodDelete, "/materials/"+m.ID.String(), "")

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeAuthorization)
}

func TestLookupISBN(t *testing.T) {
	tests := []struct {
		name     string
		isbn     string
		svc      *stubService
		wantCode int
		wantBody string
	}{
		{
			name:     "invalid isbn",
			isbn:     "12345",
			svc:      &stubService{},
			wantCode: http.StatusBadRequest,
			wantBody: `"codigo":"ERRO_ISBN_INVALIDO"`,
		},
		{
			name:     "external failure",
			isbn:     "9788535910663",
			svc:      &stubService{lookupErr: &apperror.ExternalServiceError{Service: "openlibrary", Message: "Livro não encontrado na OpenLibrary"}},
			wantCode: http.StatusUnprocessableEntity,
			wantBody: `"codigo":"ERRO_API_OPENLIBRARY"`,
		},
		{
			name:     "hyphenated isbn is normalized",
			isbn:     "978-85-35910-66-3",
			svc:      &stubService{},
			wantCode: http.StatusOK,
			wantBody: `"titulo":"Dom Casmurro"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newRouter(tt.svc, stubAuthors{}, nil), http.MethodGet, "/livros/buscar_isbn/"+tt.isbn, "")
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}
