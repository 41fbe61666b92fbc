// Package analytics computes descriptive statistics over a redacted export:
// time series, word frequencies, and engagement metrics. It never sees raw
// documents; the redaction pass runs first.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// Report is the full analytics result for one upload.
type Report struct {
	Platform    string    `json:"platform"`
	GeneratedAt time.Time `json:"generated_at"`

	// TikTok-specific cards. Nil when the export has no matching section.
	Comments *CommentStats `json:"comments,omitempty"`
	Posts    *PostStats    `json:"posts,omitempty"`
	Hashtags []NameCount   `json:"hashtags,omitempty"`
	Watch    *WatchStats   `json:"watch_activity,omitempty"`

	// Sections holds generic per-day activity trends for other platforms.
	Sections []SectionTrend `json:"section_trends,omitempty"`
}

// TimePoint is one day of a time series.
type TimePoint struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// NameCount is a labeled count (word frequency, weekday histogram, hashtag).
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// HourCount is activity in one hour of the day.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// WeekPoint is the average likes for posts in one week.
type WeekPoint struct {
	WeekStart string          `json:"week_start"` // Monday, YYYY-MM-DD
	AvgLikes  decimal.Decimal `json:"avg_likes"`
}

// TopicLikes is the average likes of posts mentioning a frequent word.
type TopicLikes struct {
	Topic    string          `json:"topic"`
	AvgLikes decimal.Decimal `json:"avg_likes"`
}

// CommentStats summarizes the comment history.
type CommentStats struct {
	Total     int             `json:"total"`
	PerDay    []TimePoint     `json:"per_day,omitempty"`
	AvgLength decimal.Decimal `json:"avg_length"`
	ByWeekday []NameCount     `json:"by_weekday,omitempty"`
	TopWords  []NameCount     `json:"top_words,omitempty"`
}

// PostStats summarizes posted videos.
type PostStats struct {
	Total           int              `json:"total"`
	WeeklyAvgLikes  []WeekPoint      `json:"weekly_avg_likes,omitempty"`
	ByHour          []HourCount      `json:"by_hour,omitempty"`
	CommentsPerPost *decimal.Decimal `json:"comments_per_post,omitempty"`
	TopWords        []NameCount      `json:"top_words,omitempty"`
	TopicLikes      []TopicLikes     `json:"avg_likes_per_topic,omitempty"`
}

// WatchStats summarizes video watch history.
type WatchStats struct {
	VideosWatched       *string          `json:"videos_watched,omitempty"`
	LongestSessionHours *decimal.Decimal `json:"longest_session_hours,omitempty"`
	AvgSessionHours     *decimal.Decimal `json:"avg_session_hours,omitempty"`
	ByHour              []HourCount      `json:"by_hour,omitempty"`
}

// SectionTrend is a generic "{section} - {block} over time" series.
type SectionTrend struct {
	Section string      `json:"section"`
	Block   string      `json:"block"`
	PerDay  []TimePoint `json:"per_day"`
}
