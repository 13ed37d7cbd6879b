package common

const (
	DefaultPage  = 1
	DefaultLimit = 12
)

type Pagination struct {
	Offset int
	Limit  int
}

// GetPagination converts page/limit query values into an offset/limit pair.
func GetPagination(page, limit int) Pagination {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	return Pagination{Offset: (page - 1) * limit, Limit: limit}
}

func PageCount(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Page is the envelope of every listing endpoint.
type Page[T any] struct {
	PageCount int `json:"pageCount"`
	Data      []T `json:"data"`
}

func NewPage[T any](total, limit int, data []T) *Page[T] {
	if data == nil {
		data = []T{}
	}
	return &Page[T]{PageCount: PageCount(total, limit), Data: data}
}
