package domain

// PageRequest carries normalized pagination parameters.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps the request to sane bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

// Offset returns the row offset for the normalized request.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination is the metadata envelope attached to every paged response.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	ItemsPerPage int   `json:"itemsPerPage"`
	TotalItems   int64 `json:"totalItems"`
	TotalPages   int   `json:"totalPages"`
	HasNext      bool  `json:"hasNext"`
	HasPrev      bool  `json:"hasPrev"`
}

// NewPagination computes metadata from a normalized request and a total count.
func NewPagination(req PageRequest, total int64) Pagination {
	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return Pagination{
		CurrentPage:  req.Page,
		ItemsPerPage: req.Limit,
		TotalItems:   total,
		TotalPages:   totalPages,
		HasNext:      req.Page < totalPages,
		HasPrev:      req.Page > 1 && total > 0,
	}
}
