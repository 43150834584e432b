package catalog

const (
	// DefaultLimit is the page size applied when a cursor carries no limit.
	DefaultLimit = 10
	// MaxLimit caps the page size regardless of what the caller asked for.
	MaxLimit = 100
)

// Cursor describes an offset-based page over a listing. Both fields are
// optional; absent values fall back to the defaults above.
type Cursor struct {
	Offset *int64
	Limit  *int64
}

// OffsetValue returns the effective offset, defaulting to zero.
func (c Cursor) OffsetValue() int64 {
	if c.Offset == nil || *c.Offset < 0 {
		return 0
	}
	return *c.Offset
}

// LimitValue returns the effective page size, defaulting to DefaultLimit
// and clamped to MaxLimit.
func (c Cursor) LimitValue() int64 {
	if c.Limit == nil || *c.Limit < 0 {
		return DefaultLimit
	}
	if *c.Limit > MaxLimit {
		return MaxLimit
	}
	return *c.Limit
}
