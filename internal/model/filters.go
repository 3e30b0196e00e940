package model

import (
	"net/url"
	"strconv"
)

// Filter serializes list parameters into query values. The encoded
// form (url.Values.Encode sorts keys) doubles as the cache key suffix,
// so serialization must be deterministic.
type Filter interface {
	Query() url.Values
}

// Pagination is shared by every list filter.
type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) apply(v url.Values) {
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
}

// CompanyFilters narrows company listings.
type CompanyFilters struct {
	Pagination
	Search string
}

func (f CompanyFilters) Query() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	f.apply(v)
	return v
}

// StudentFilters narrows student listings.
type StudentFilters struct {
	Pagination
	Search        string
	CompanyID     int
	BirthDateFrom string // ISO date
	BirthDateTo   string // ISO date
}

func (f StudentFilters) Query() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.CompanyID > 0 {
		v.Set("empresa_id", strconv.Itoa(f.CompanyID))
	}
	if f.BirthDateFrom != "" {
		v.Set("data_nascimento_inicio", f.BirthDateFrom)
	}
	if f.BirthDateTo != "" {
		v.Set("data_nascimento_fim", f.BirthDateTo)
	}
	f.apply(v)
	return v
}

// CourseFilters narrows course listings.
type CourseFilters struct {
	Pagination
	Search      string
	CompanyID   int
	PriceMin    float64
	PriceMax    float64
	DurationMin int
	DurationMax int
}

func (f CourseFilters) Query() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.CompanyID > 0 {
		v.Set("empresa_id", strconv.Itoa(f.CompanyID))
	}
	if f.PriceMin > 0 {
		v.Set("preco_min", strconv.FormatFloat(f.PriceMin, 'f', -1, 64))
	}
	if f.PriceMax > 0 {
		v.Set("preco_max", strconv.FormatFloat(f.PriceMax, 'f', -1, 64))
	}
	if f.DurationMin > 0 {
		v.Set("carga_horaria_min", strconv.Itoa(f.DurationMin))
	}
	if f.DurationMax > 0 {
		v.Set("carga_horaria_max", strconv.Itoa(f.DurationMax))
	}
	f.apply(v)
	return v
}
