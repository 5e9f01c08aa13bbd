package query

// Page identifies a neighbouring page.
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination describes where a window sits in the filtered result set.
type Pagination struct {
	Total int64 `json:"total"`
	Next  *Page `json:"next,omitempty"`
	Prev  *Page `json:"prev,omitempty"`
}

// Paginate computes the neighbours of w given the filtered total.
func Paginate(w Window, total int64) Pagination {
	p := Pagination{Total: total}
	if int64(w.Page)*int64(w.Limit) < total {
		p.Next = &Page{Page: w.Page + 1, Limit: w.Limit}
	}
	if w.Skip() > 0 {
		p.Prev = &Page{Page: w.Page - 1, Limit: w.Limit}
	}
	return p
}
