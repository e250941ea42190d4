package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"digital-library-backend/internal/shared/apperror"
	"digital-library-backend/pkg/cache"
	"digital-library-backend/pkg/metrics"
)

const serviceName = "OpenLibrary"

const (
	msgInvalidISBN = "ISBN deve ter exatamente 13 dígitos"
	msgNotFound    = "Livro não encontrado na base de dados OpenLibrary"
	msgDisabled    = "Consulta à OpenLibrary desabilitada"
)

var nonDigits = regexp.MustCompile(`\D`)

// BookMetadata is what the lookup extracts from an OpenLibrary record.
type BookMetadata struct {
	ISBN        string   `json:"isbn"`
	Title       string   `json:"titulo,omitempty"`
	PageCount   *int     `json:"numero_paginas,omitempty"`
	Authors     []string `json:"autores"`
	PublishDate string   `json:"data_publicacao,omitempty"`
	Publisher   string   `json:"editora,omitempty"`
	Language    string   `json:"idioma,omitempty"`
	Description string   `json:"descricao,omitempty"`
}

// Lookup resolves a 13-digit ISBN into book metadata.
type Lookup interface {
	FindByISBN(ctx context.Context, isbn string) (*BookMetadata, error)
}

type Config struct {
	Enabled  bool
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client talks to the OpenLibrary Books API. Results are cached under
// openlibrary:isbn:<isbn>.
type Client struct {
	cfg        Config
	httpClient *http.Client
	cache      cache.Cache
}

func NewClient(cfg Config, c cache.Cache) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openlibrary.org"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      c,
	}
}

// NormalizeISBN strips every non-digit.
func NormalizeISBN(isbn string) string {
	return nonDigits.ReplaceAllString(isbn, "")
}

func cacheKey(isbn string) string {
	return "openlibrary:isbn:" + isbn
}

func (c *Client) FindByISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	isbn = NormalizeISBN(isbn)
	if len(isbn) != 13 {
		return nil, &apperror.ExternalServiceError{Service: serviceName, Message: msgInvalidISBN}
	}
	if !c.cfg.Enabled {
		return nil, &apperror.ExternalServiceError{Service: serviceName, Message: msgDisabled}
	}

	if c.cache != nil {
		var cached BookMetadata
		found, err := c.cache.Get(ctx, cacheKey(isbn), &cached)
		if err != nil {
			log.Warn().Err(err).Str("isbn", isbn).Msg("openlibrary cache read failed")
		}
		if found {
			metrics.MetadataLookups.WithLabelValues("cached").Inc()
			return &cached, nil
		}
	}

	meta, err := c.fetch(ctx, isbn)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey(isbn), meta, c.cfg.CacheTTL); err != nil {
			log.Warn().Err(err).Str("isbn", isbn).Msg("openlibrary cache write failed")
		}
	}
	return meta, nil
}

func (c *Client) fetch(ctx context.Context, isbn string) (*BookMetadata, error) {
	q := url.Values{}
	q.Set("bibkeys", "ISBN:"+isbn)
	q.Set("format", "json")
	q.Set("jscmd", "data")
	endpoint := c.cfg.BaseURL + "/api/books?" + q.Encode()

	logger := log.With().Str("isbn", isbn).Str("url", endpoint).Logger()
	logger.Debug().Msg("calling OpenLibrary")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &apperror.ExternalServiceError{Service: serviceName, Message: "Erro ao montar requisição", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.MetadataLookups.WithLabelValues("error").Inc()
		logger.Warn().Err(err).Msg("OpenLibrary request failed")
		return nil, &apperror.ExternalServiceError{Service: serviceName, Message: "Erro de conexão com OpenLibrary", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.MetadataLookups.WithLabelValues("error").Inc()
		return nil, &apperror.ExternalServiceError{
			Service: serviceName,
			Message: fmt.Sprintf("Erro na API OpenLibrary: %d", resp.StatusCode),
		}
	}

	var payload map[string]record
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.MetadataLookups.WithLabelValues("error").Inc()
		return nil, &apperror.ExternalServiceError{Service: serviceName, Message: "Resposta inválida da OpenLibrary", Err: err}
	}

	rec, ok := payload["ISBN:"+isbn]
	if !ok {
		metrics.MetadataLookups.WithLabelValues("miss").Inc()
		return nil, &apperror.ExternalServiceError{Service: serviceName, Message: msgNotFound}
	}

	metrics.MetadataLookups.WithLabelValues("hit").Inc()
	logger.Info().Msg("OpenLibrary record found")
	return rec.toMetadata(isbn), nil
}

// record is one entry of the jscmd=data response. Several fields come in more
// than one shape, so they stay raw until extraction.
type record struct {
	Title         string          `json:"title"`
	NumberOfPages json.RawMessage `json:"number_of_pages"`
	Pagination    json.RawMessage `json:"pagination"`
	Pages         json.RawMessage `json:"pages"`
	Authors       []named         `json:"authors"`
	PublishDate   string          `json:"publish_date"`
	Publishers    []named         `json:"publishers"`
	Languages     []struct {
		Key string `json:"key"`
	} `json:"languages"`
	Description json.RawMessage `json:"description"`
	Summary     json.RawMessage `json:"summary"`
	Excerpt     json.RawMessage `json:"excerpt"`
}

type named struct {
	Name string `json:"name"`
}

func (r record) toMetadata(isbn string) *BookMetadata {
	meta := &BookMetadata{
		ISBN:        isbn,
		Title:       strings.TrimSpace(r.Title),
		PublishDate: strings.TrimSpace(r.PublishDate),
		Authors:     []string{},
	}

	for _, raw := range []json.RawMessage{r.NumberOfPages, r.Pagination, r.Pages} {
		if n, ok := parsePageCount(raw); ok {
			meta.PageCount = &n
			break
		}
	}

	for _, a := range r.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			meta.Authors = append(meta.Authors, name)
		}
	}

	if len(r.Publishers) > 0 {
		meta.Publisher = strings.TrimSpace(r.Publishers[0].Name)
	}
	if len(r.Languages) > 0 {
		meta.Language = strings.TrimSpace(strings.ReplaceAll(r.Languages[0].Key, "/languages/", ""))
	}

	for _, raw := range []json.RawMessage{r.Description, r.Summary, r.Excerpt} {
		if text, ok := parseText(raw); ok {
			meta.Description = text
			break
		}
	}

	return meta
}

// parsePageCount accepts a positive JSON integer or an all-digit string.
func parsePageCount(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, n > 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" || nonDigits.MatchString(s) {
			return 0, false
		}
		n, err := strconv.Atoi(s)
		return n, err == nil && n > 0
	}
	return 0, false
}

// parseText accepts a plain string or an object carrying value or text.
func parseText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var obj struct {
		Value string `json:"value"`
		Text  string `json:"text"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if v := strings.TrimSpace(obj.Value); v != "" {
			return v, true
		}
		if t := strings.TrimSpace(obj.Text); t != "" {
			return t, true
		}
	}
	return "", false
}
