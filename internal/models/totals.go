package models

// TotalsDelta is a signed adjustment to a user's lifetime engagement
// counters. A zero field leaves its counter untouched.
type TotalsDelta struct {
	Posts     int
	Comments  int
	Upvotes   int
	Downvotes int
	Shares    int
}

// IsZero reports whether the delta would change nothing.
func (d TotalsDelta) IsZero() bool {
	return d == TotalsDelta{}
}
