package user

// DefaultLimit is the page size used when a list request does not set one.
const DefaultLimit int64 = 30

// Window describes the slice of the user collection returned by a list call.
type Window struct {
	Total int64 // Total number of matching records
	Skip  int64 // Number of records skipped
	Limit int64 // Number of records requested (0 means all)
}

// NewWindow normalizes skip and limit for a collection of total records.
// A negative limit falls back to DefaultLimit and a negative skip to 0.
func NewWindow(total, skip, limit int64) Window {
	if skip < 0 {
		skip = 0
	}
	if limit < 0 {
		limit = DefaultLimit
	}
	return Window{Total: total, Skip: skip, Limit: limit}
}
