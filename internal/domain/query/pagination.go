// Package query holds cross-domain query primitives shared by repositories.
package query

// Pagination is cursor-based: After is the internal id of the last row the
// caller has seen. Ordering is fixed per query and owned by the repository.
type Pagination struct {
	Limit *int
	After *uint
}

// NewPagination builds a pagination with the given limit.
func NewPagination(limit int) *Pagination {
	return &Pagination{Limit: &limit}
}
