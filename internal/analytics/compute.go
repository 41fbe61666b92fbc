package analytics

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ScrubLabs/scrub-web/internal/platform"
	"github.com/ScrubLabs/scrub-web/internal/redact"
)

const (
	topWordCount  = 10
	topTopicCount = 5
	topTagCount   = 5
	minWordLength = 4
)

var wordRe = regexp.MustCompile(`\w+`)

// textColumns are the field names, in priority order, that may hold a
// post's caption text.
var textColumns = []string{"desc", "description", "caption", "content"}

// Compute builds the analytics report for a redacted export. The input tree
// is read-only; missing or unexpected sections simply produce an empty or
// partial report.
func Compute(doc *redact.Value, p platform.Platform, stopwords map[string]struct{}) *Report {
	report := &Report{
		Platform:    string(p),
		GeneratedAt: time.Now().UTC(),
	}
	if doc == nil {
		return report
	}
	if p == platform.TikTok {
		computeTikTok(doc, stopwords, report)
	} else {
		report.Sections = sectionTrends(doc)
	}
	return report
}

func computeTikTok(doc *redact.Value, stopwords map[string]struct{}, report *Report) {
	comments := doc.Field("Comment").Field("Comments").Field("CommentsList").Elements()
	report.Comments = commentStats(comments, stopwords)

	posts := doc.Field("Post").Field("Posts").Field("VideoList").Elements()
	report.Posts = postStats(posts, report.Comments, stopwords)

	report.Hashtags = hashtagCounts(doc.Field("Hashtag").Field("HashtagList").Elements())

	activity := doc.Field("Your Activity")
	report.Watch = watchStats(activity)
}

// commentStats aggregates the TikTok comment list: per-day counts, average
// length, weekday histogram, and top words.
func commentStats(comments []*redact.Value, stopwords map[string]struct{}) *CommentStats {
	if len(comments) == 0 {
		return nil
	}

	perDay := map[string]int{}
	byWeekday := map[string]int{}
	var texts []string
	var lengthSum, lengthN int64

	for _, c := range comments {
		if t, ok := parseTime(c.Field("date")); ok {
			perDay[t.Format("2006-01-02")]++
			byWeekday[t.Weekday().String()]++
		}
		if text, ok := c.Field("comment").AsString(); ok {
			texts = append(texts, text)
			lengthSum += int64(len([]rune(text)))
			lengthN++
		}
	}

	stats := &CommentStats{
		Total:     len(comments),
		PerDay:    sortedTimePoints(perDay),
		ByWeekday: sortedNameCounts(byWeekday, 0),
		TopWords:  topWords(texts, stopwords, topWordCount),
	}
	if lengthN > 0 {
		stats.AvgLength = decimal.NewFromInt(lengthSum).
			Div(decimal.NewFromInt(lengthN)).Round(1)
	}
	return stats
}

// postStats aggregates the TikTok video list: weekly likes trend, posting
// hour histogram, comments-per-post ratio, top caption words, and average
// likes per frequent topic.
func postStats(posts []*redact.Value, comments *CommentStats, stopwords map[string]struct{}) *PostStats {
	if len(posts) == 0 {
		return nil
	}

	type postRow struct {
		text  string
		likes float64
		hasL  bool
	}

	weekLikes := map[string][]float64{}
	byHour := map[int]int{}
	var rows []postRow
	var texts []string

	for _, p := range posts {
		var row postRow
		t, hasTime := parseTime(p.Field("Date"))
		if hasTime {
			byHour[t.Hour()]++
		}
		if likes, ok := parseNumber(p.Field("Likes")); ok {
			row.likes, row.hasL = likes, true
			if hasTime {
				wk := weekStart(t).Format("2006-01-02")
				weekLikes[wk] = append(weekLikes[wk], likes)
			}
		}
		if text, ok := postText(p); ok {
			row.text = text
			texts = append(texts, text)
		}
		rows = append(rows, row)
	}

	stats := &PostStats{
		Total:    len(posts),
		ByHour:   sortedHourCounts(byHour),
		TopWords: topWords(texts, stopwords, topWordCount),
	}

	weeks := make([]string, 0, len(weekLikes))
	for wk := range weekLikes {
		weeks = append(weeks, wk)
	}
	sort.Strings(weeks)
	for _, wk := range weeks {
		stats.WeeklyAvgLikes = append(stats.WeeklyAvgLikes, WeekPoint{
			WeekStart: wk,
			AvgLikes:  meanDecimal(weekLikes[wk], 1),
		})
	}

	if comments != nil && len(posts) > 0 {
		ratio := decimal.NewFromInt(int64(comments.Total)).
			Div(decimal.NewFromInt(int64(len(posts)))).Round(2)
		stats.CommentsPerPost = &ratio
	}

	// Average likes per topic, for the most frequent caption words.
	for _, topic := range topWords(texts, stopwords, topTopicCount) {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(topic.Name) + `\b`)
		if err != nil {
			continue
		}
		var likes []float64
		for _, row := range rows {
			if row.hasL && row.text != "" && re.MatchString(row.text) {
				likes = append(likes, row.likes)
			}
		}
		if len(likes) > 0 {
			stats.TopicLikes = append(stats.TopicLikes, TopicLikes{
				Topic:    topic.Name,
				AvgLikes: meanDecimal(likes, 1),
			})
		}
	}

	return stats
}

// postText finds the caption column of a post, trying the known names
// case-insensitively.
func postText(post *redact.Value) (string, bool) {
	if post == nil || post.Kind != redact.Object {
		return "", false
	}
	for _, col := range textColumns {
		for _, m := range post.Obj {
			if strings.EqualFold(m.Key, col) {
				return m.Value.AsString()
			}
		}
	}
	return "", false
}

func hashtagCounts(tags []*redact.Value) []NameCount {
	if len(tags) == 0 {
		return nil
	}
	counts := map[string]int{}
	for _, tag := range tags {
		if name, ok := tag.Field("HashtagName").AsString(); ok {
			counts[name]++
		}
	}
	return sortedNameCounts(counts, topTagCount)
}

// watchStats summarizes the "Your Activity" section: lifetime videos
// watched plus watch-history session durations and hour histogram.
func watchStats(activity *redact.Value) *WatchStats {
	if activity == nil {
		return nil
	}
	stats := &WatchStats{}

	summary := activity.Field("Activity Summary").Field("ActivitySummaryMap")
	if v := summary.Field("videosWatchedToTheEndSinceAccountRegistration"); v != nil {
		var text string
		switch v.Kind {
		case redact.Number:
			text = v.Num
		case redact.String:
			text = v.Str
		}
		if text != "" {
			stats.VideosWatched = &text
		}
	}

	history := activity.Field("Video Watch History").Field("VideoWatchHistoryList").Elements()
	if len(history) > 0 {
		var times []time.Time
		byHour := map[int]int{}
		for _, w := range history {
			if t, ok := watchTime(w); ok {
				times = append(times, t)
				byHour[t.Hour()]++
			}
		}
		if len(times) > 0 {
			sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

			longest := decimal.NewFromFloat(times[len(times)-1].Sub(times[0]).Hours()).Round(2)
			stats.LongestSessionHours = &longest

			// Per-day span, averaged across days.
			daySpan := map[string][2]time.Time{}
			for _, t := range times {
				day := t.Format("2006-01-02")
				span, ok := daySpan[day]
				if !ok {
					daySpan[day] = [2]time.Time{t, t}
					continue
				}
				if t.Before(span[0]) {
					span[0] = t
				}
				if t.After(span[1]) {
					span[1] = t
				}
				daySpan[day] = span
			}
			var hours []float64
			for _, span := range daySpan {
				hours = append(hours, span[1].Sub(span[0]).Hours())
			}
			avg := meanDecimal(hours, 2)
			stats.AvgSessionHours = &avg

			stats.ByHour = sortedHourCounts(byHour)
		}
	}

	if stats.VideosWatched == nil && stats.LongestSessionHours == nil {
		return nil
	}
	return stats
}

// watchTime finds the first field of a watch-history row whose name
// mentions date or time.
func watchTime(row *redact.Value) (time.Time, bool) {
	if row == nil || row.Kind != redact.Object {
		return time.Time{}, false
	}
	for _, m := range row.Obj {
		lower := strings.ToLower(m.Key)
		if strings.Contains(lower, "date") || strings.Contains(lower, "time") {
			return parseTime(m.Value)
		}
	}
	return time.Time{}, false
}

// sectionTrends walks the top-level sections of a non-TikTok export and
// produces a per-day count series for every list-of-objects block that
// carries a date or timestamp column.
func sectionTrends(doc *redact.Value) []SectionTrend {
	if doc == nil || doc.Kind != redact.Object {
		return nil
	}
	var trends []SectionTrend
	for _, section := range doc.Obj {
		if section.Value == nil || section.Value.Kind != redact.Object {
			continue
		}
		for _, block := range section.Value.Obj {
			rows := block.Value.Elements()
			if len(rows) == 0 {
				continue
			}
			col, ok := dateColumn(rows[0])
			if !ok {
				continue
			}
			perDay := map[string]int{}
			for _, row := range rows {
				if t, ok := parseTime(row.Field(col)); ok {
					perDay[t.Format("2006-01-02")]++
				}
			}
			if len(perDay) == 0 {
				continue
			}
			trends = append(trends, SectionTrend{
				Section: section.Key,
				Block:   block.Key,
				PerDay:  sortedTimePoints(perDay),
			})
		}
	}
	return trends
}

// dateColumn finds a field named date or timestamp, case-insensitively.
func dateColumn(row *redact.Value) (string, bool) {
	if row == nil || row.Kind != redact.Object {
		return "", false
	}
	for _, m := range row.Obj {
		lower := strings.ToLower(m.Key)
		if lower == "date" || lower == "timestamp" {
			return m.Key, true
		}
	}
	return "", false
}

// topWords computes the most frequent words across texts, skipping stop
// words and short words.
func topWords(texts []string, stopwords map[string]struct{}, n int) []NameCount {
	counts := map[string]int{}
	for _, text := range texts {
		for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
			if len(w) < minWordLength {
				continue
			}
			if _, stop := stopwords[w]; stop {
				continue
			}
			counts[w]++
		}
	}
	return sortedNameCounts(counts, n)
}

// sortedNameCounts orders by count descending, name ascending on ties, and
// truncates to n entries when n > 0.
func sortedNameCounts(counts map[string]int, n int) []NameCount {
	if len(counts) == 0 {
		return nil
	}
	out := make([]NameCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, NameCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func sortedTimePoints(perDay map[string]int) []TimePoint {
	if len(perDay) == 0 {
		return nil
	}
	out := make([]TimePoint, 0, len(perDay))
	for date, count := range perDay {
		out = append(out, TimePoint{Date: date, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func sortedHourCounts(byHour map[int]int) []HourCount {
	if len(byHour) == 0 {
		return nil
	}
	out := make([]HourCount, 0, len(byHour))
	for hour, count := range byHour {
		out = append(out, HourCount{Hour: hour, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}

func meanDecimal(values []float64, places int32) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum.Div(decimal.NewFromInt(int64(len(values)))).Round(places)
}
