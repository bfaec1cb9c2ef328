package model

import "time"

// UsageState tracks narrative-generation usage per calendar day.
type UsageState struct {
	DailyLimit int            `json:"daily_limit"`
	Days       map[string]int `json:"days"` // "2006-01-02" -> count
	UpdatedAt  time.Time      `json:"updated_at"`
}
