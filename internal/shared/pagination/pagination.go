package pagination

import (
	"math"
	"strconv"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Params is a normalized 1-indexed page request.
type Params struct {
	Page    int
	PerPage int
}

// New clamps page to >= 1 and perPage to [1, MaxPerPage].
// A perPage below 1 falls back to DefaultPerPage. Page is capped so that
// Offset never overflows.
func New(page, perPage int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	if maxPage := math.MaxInt / perPage; page > maxPage {
		page = maxPage
	}
	return Params{Page: page, PerPage: perPage}
}

// Parse builds Params from raw query values. Unparsable input is treated as absent.
func Parse(page, perPage string) Params {
	p, err := strconv.Atoi(page)
	if err != nil {
		p = DefaultPage
	}
	pp, err := strconv.Atoi(perPage)
	if err != nil {
		pp = DefaultPerPage
	}
	return New(p, pp)
}

func (p Params) Limit() int  { return p.PerPage }
func (p Params) Offset() int { return (p.Page - 1) * p.PerPage }

// Meta describes a page of a filtered result set.
type Meta struct {
	CurrentPage int   `json:"pagina_atual"`
	PerPage     int   `json:"itens_por_pagina"`
	TotalItems  int64 `json:"total_itens"`
	TotalPages  int   `json:"total_paginas"`
	HasNext     bool  `json:"tem_proxima_pagina"`
	HasPrevious bool  `json:"tem_pagina_anterior"`
}

// NewMeta computes metadata from the filtered total.
func NewMeta(p Params, total int64) Meta {
	if total < 0 {
		total = 0
	}
	pages := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	return Meta{
		CurrentPage: p.Page,
		PerPage:     p.PerPage,
		TotalItems:  total,
		TotalPages:  pages,
		HasNext:     int64(p.Page)*int64(p.PerPage) < total,
		HasPrevious: p.Page > 1,
	}
}
