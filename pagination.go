package termit

import "github.com/jward/termit/internal/store"

// Pagination selects one page of a merged result. A Size of zero or less
// means unpaged.
type Pagination struct {
	Page int // zero-based page number
	Size int // page size (max 500)
}

const maxPageSize = 500

// Unpaged returns a Pagination that selects everything.
func Unpaged() Pagination { return Pagination{} }

// IsPaged reports whether p selects a bounded page.
func (p Pagination) IsPaged() bool { return p.Size > 0 }

// Offset returns the index of the first item of the page.
func (p Pagination) Offset() int { return p.Page * p.Size }

// normalize returns a Pagination with bounds enforced.
func (p Pagination) normalize() Pagination {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	if p.Size < 0 {
		p.Size = 0
	}
	return p
}

// PagedResult wraps a page of results with total count for pagination.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int // total matching results across both partitions
}

// termSource is one partition of a merged listing.
type termSource struct {
	count func() (int, error)
	list  func(offset, limit int) ([]*store.TermRow, error)
}

// sourceFor binds a filter to the store.
func sourceFor(s *store.Store, f store.TermFilter) termSource {
	return termSource{
		count: func() (int, error) { return s.CountTerms(f) },
		list:  func(offset, limit int) ([]*store.TermRow, error) { return s.ListTerms(f, offset, limit) },
	}
}

// mergePartitions reads one page across the workspace and canonical
// partitions as if they were a single list ordered workspace first.
//
// The workspace partition is counted first. When the page starts inside it,
// the workspace page is read with the requested offset. Any remaining
// capacity is filled from the canonical partition starting at
// max(0, offset-wsCount), so consecutive pages neither skip nor repeat
// items. Rows already collected are never duplicated.
func mergePartitions(ws, canonical termSource, page Pagination) ([]*store.TermRow, int, error) {
	page = page.normalize()

	wsCount, err := ws.count()
	if err != nil {
		return nil, 0, err
	}
	canonicalCount, err := canonical.count()
	if err != nil {
		return nil, 0, err
	}
	total := wsCount + canonicalCount

	if !page.IsPaged() {
		wsRows, err := ws.list(0, 0)
		if err != nil {
			return nil, 0, err
		}
		canonicalRows, err := canonical.list(0, 0)
		if err != nil {
			return nil, 0, err
		}
		return appendUnique(wsRows, canonicalRows), total, nil
	}

	offset := page.Offset()
	var out []*store.TermRow
	if wsCount > offset {
		rows, err := ws.list(offset, page.Size)
		if err != nil {
			return nil, 0, err
		}
		out = rows
	}
	if len(out) < page.Size {
		rows, err := canonical.list(max(0, offset-wsCount), page.Size-len(out))
		if err != nil {
			return nil, 0, err
		}
		out = appendUnique(out, rows)
	}
	return out, total, nil
}

// appendUnique appends the rows of extra whose URI is not yet in dst.
func appendUnique(dst, extra []*store.TermRow) []*store.TermRow {
	seen := make(map[string]bool, len(dst)+len(extra))
	for _, r := range dst {
		seen[r.URI] = true
	}
	for _, r := range extra {
		if !seen[r.URI] {
			seen[r.URI] = true
			dst = append(dst, r)
		}
	}
	return dst
}
