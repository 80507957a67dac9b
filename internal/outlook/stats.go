package outlook

import (
	"strings"
	"time"
)

// AggregateStats summarizes one result set. Counts are grouped by exact
// sender address, by UTC calendar date, and by watched keyword. The shape
// is stable for the presentation layer and recomputed per request, never
// cached.
type AggregateStats struct {
	TotalEmails int            `json:"totalEmails"`
	Senders     map[string]int `json:"senders"`
	Dates       map[string]int `json:"dates"`
	Keywords    map[string]int `json:"keywords"`
}

// Summarize computes aggregate statistics over a result set. keywords names
// the watched keywords to bucket by; each result counts toward every
// keyword its subject or preview contains, case-insensitively.
func Summarize(results []FormattedEmail, keywords []string) *AggregateStats {
	stats := &AggregateStats{
		TotalEmails: len(results),
		Senders:     make(map[string]int),
		Dates:       make(map[string]int),
		Keywords:    make(map[string]int),
	}

	for _, r := range results {
		if r.SenderEmail != "" {
			stats.Senders[r.SenderEmail]++
		}
		if date := dateOf(r.Timestamp); date != "" {
			stats.Dates[date]++
		}
		for _, kw := range keywords {
			if kw == "" {
				continue
			}
			haystack := strings.ToLower(r.Subject + " " + r.Preview)
			if strings.Contains(haystack, strings.ToLower(kw)) {
				stats.Keywords[kw]++
			}
		}
	}
	return stats
}

// dateOf extracts the UTC date portion of an RFC 3339 timestamp.
func dateOf(timestamp string) string {
	if timestamp == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
