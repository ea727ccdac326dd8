package paging

// DefaultLimit caps list queries which do not name a page size.
const DefaultLimit = 50

func Limit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

func Offset(page int, limit int) int {
	if page <= 1 {
		return 0
	}
	return (page - 1) * Limit(limit)
}
