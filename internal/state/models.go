package state

import "time"

// PageRecord is the last written version of an output page.
type PageRecord struct {
	// Path is the page path relative to the output directory.
	Path        string
	Fingerprint string
	BuildID     string
	UpdatedAt   time.Time
}

// BuildRecord summarizes one finished build.
type BuildRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string
	Pages      int
	Issues     int
	// Report is the JSON build report.
	Report []byte
}

// Duration returns how long the build ran.
func (b BuildRecord) Duration() time.Duration { return b.FinishedAt.Sub(b.StartedAt) }
