package pagination

// Page is the paginated response envelope shared by every list endpoint:
// {"data": [...], "hasNextPage": bool}. A missing hasNextPage decodes to
// false and means end of list.
type Page[T any] struct {
	Data        []T  `json:"data"`
	HasNextPage bool `json:"hasNextPage"`
}

// Tracker derives a conservative known-total page count as the user
// pages forward. After fetching page N the known total becomes N+1 when
// the server reports more data, otherwise N. This is an estimate, not a
// true total; it is corrected on each subsequent fetch.
type Tracker struct {
	page       int
	totalKnown int
}

func NewTracker() *Tracker {
	return &Tracker{page: 1, totalKnown: 1}
}

// Advance records the outcome of fetching page n.
func (t *Tracker) Advance(n int, hasNextPage bool) {
	if n < 1 {
		n = 1
	}
	t.page = n
	if hasNextPage {
		t.totalKnown = n + 1
	} else {
		t.totalKnown = n
	}
}

// Reset returns the tracker to page 1 with no knowledge beyond it.
func (t *Tracker) Reset() {
	t.page = 1
	t.totalKnown = 1
}

func (t *Tracker) Page() int { return t.page }

// TotalKnown is the conservative page-count estimate.
func (t *Tracker) TotalKnown() int { return t.totalKnown }
