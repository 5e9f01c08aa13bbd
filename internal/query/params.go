package query

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Control parameters; everything else in the query string is a filter.
const (
	ParamSelect = "select"
	ParamSort   = "sort"
	ParamPage   = "page"
	ParamLimit  = "limit"
)

var reserved = map[string]bool{
	ParamSelect: true,
	ParamSort:   true,
	ParamPage:   true,
	ParamLimit:  true,
}

// IDField is the identity field every document carries.
const IDField = "_id"

// Projection selects the fields returned for each document. The zero value
// returns all fields.
type Projection struct {
	Fields  []string
	Exclude bool
}

// IsZero reports whether the projection returns whole documents.
func (p Projection) IsZero() bool { return len(p.Fields) == 0 }

// Keys returns the projected fields with _id first for inclusion projections.
func (p Projection) Keys() []string {
	if p.Exclude || p.IsZero() {
		return slices.Clone(p.Fields)
	}
	return append([]string{IDField}, p.Fields...)
}

// Includes reports whether field survives the projection.
func (p Projection) Includes(field string) bool {
	if p.IsZero() || field == IDField {
		return true
	}
	listed := slices.Contains(p.Fields, field)
	if p.Exclude {
		return !listed
	}
	return listed
}

// SortField is one sort key.
type SortField struct {
	Field string
	Desc  bool
}

func (s SortField) String() string {
	if s.Desc {
		return "-" + s.Field
	}
	return s.Field
}

// Window is the requested page. Page is 1-based.
type Window struct {
	Page  int
	Limit int
}

// Skip returns the number of documents before the window.
func (w Window) Skip() int64 {
	return int64(w.Page-1) * int64(w.Limit)
}

// Plan is a parsed list query, ready to run against a Collection.
type Plan struct {
	Filter     Filter
	Projection Projection
	Sort       []SortField
	Window     Window
}

func parseProjection(params url.Values) (Projection, error) {
	var p Projection
	included, excluded := false, false
	for _, tok := range tokens(params[ParamSelect]) {
		field := tok
		if strings.HasPrefix(tok, "-") {
			field = tok[1:]
			excluded = true
		} else {
			included = true
		}
		if !validField(field) {
			return Projection{}, inputErrorf("invalid select field %q", tok)
		}
		if field == IDField {
			if strings.HasPrefix(tok, "-") {
				return Projection{}, InputError("select cannot exclude _id")
			}
			continue
		}
		if !slices.Contains(p.Fields, field) {
			p.Fields = append(p.Fields, field)
		}
	}
	if included && excluded {
		return Projection{}, InputError("select cannot mix included and excluded fields")
	}
	p.Exclude = excluded
	return p, nil
}

func parseSort(params url.Values, fallback []SortField) ([]SortField, error) {
	var out []SortField
	seen := map[string]bool{}
	for _, tok := range tokens(params[ParamSort]) {
		sf := SortField{Field: tok}
		if strings.HasPrefix(tok, "-") {
			sf = SortField{Field: tok[1:], Desc: true}
		}
		if !validField(sf.Field) {
			return nil, inputErrorf("invalid sort field %q", tok)
		}
		if seen[sf.Field] {
			continue
		}
		seen[sf.Field] = true
		out = append(out, sf)
	}
	if len(out) == 0 {
		out = slices.Clone(fallback)
		for _, sf := range out {
			seen[sf.Field] = true
		}
	}
	// Ties on the requested keys page in _id order.
	if !seen[IDField] {
		out = append(out, SortField{Field: IDField})
	}
	return out, nil
}

// parseWindow reads page and limit. Missing, non-numeric or non-positive
// values fall back to the defaults.
func parseWindow(params url.Values, defaultLimit, maxLimit int) Window {
	w := Window{Page: 1, Limit: defaultLimit}
	if n, err := strconv.Atoi(strings.TrimSpace(params.Get(ParamPage))); err == nil && n > 0 {
		w.Page = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(params.Get(ParamLimit))); err == nil && n > 0 {
		w.Limit = n
	}
	if maxLimit > 0 && w.Limit > maxLimit {
		w.Limit = maxLimit
	}
	// page*limit must fit in int64 for Skip and Paginate. Pages past that
	// bound are empty anyway.
	if maxPage := math.MaxInt64 / int64(w.Limit); int64(w.Page) > maxPage {
		w.Page = int(maxPage)
	}
	return w
}

// tokens splits comma separated values, dropping blanks.
func tokens(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
