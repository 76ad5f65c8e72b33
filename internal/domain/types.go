package domain

// Pagination carries paging params and totals.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// Clamp applies the default limit and bounds.
func (p Pagination) Clamp(def, max int) Pagination {
	if p.Limit <= 0 {
		p.Limit = def
	}
	if p.Limit > max {
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// RequestContext carries the authenticated caller.
type RequestContext struct {
	UserID    string `json:"userId"`
	RequestID string `json:"requestId"`
}
