package usage

import (
	"time"

	"github.com/google/uuid"
)

// DailyUsage matches the daily_usage table schema, keyed by (user_id, date).
type DailyUsage struct {
	UserID            uuid.UUID `json:"user_id"`
	Date              time.Time `json:"date"`
	ArticlesGenerated int       `json:"articles_generated"`
	WordsGenerated    int       `json:"words_generated"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Status is the API response showing today's usage against the limits.
type Status struct {
	Date              string `json:"date"`
	ArticlesGenerated int    `json:"articles_generated"`
	ArticlesLimit     int    `json:"articles_limit"`
	WordsGenerated    int    `json:"words_generated"`
}

// Day returns the UTC calendar day for t, the unit quota accounting runs on.
func Day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
