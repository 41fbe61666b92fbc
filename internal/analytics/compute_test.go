package analytics

import (
	"testing"

	"github.com/ScrubLabs/scrub-web/internal/platform"
	"github.com/ScrubLabs/scrub-web/internal/redact"
)

func mustParse(t *testing.T, text string) *redact.Value {
	t.Helper()
	v, err := redact.Parse([]byte(text))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return v
}

const tiktokExport = `{
  "Comment": {"Comments": {"CommentsList": [
    {"date": "2023-05-01 10:00:00", "comment": "wonderful video about cooking"},
    {"date": "2023-05-01 11:30:00", "comment": "cooking tips please"},
    {"date": "2023-05-08 09:15:00", "comment": "nice"}
  ]}},
  "Post": {"Posts": {"VideoList": [
    {"Date": "2023-05-02 18:00:00", "Likes": "10", "desc": "cooking pasta tonight"},
    {"Date": "2023-05-02 20:00:00", "Likes": "20", "desc": "pasta again"},
    {"Date": "2023-05-09 18:30:00", "Likes": 30, "desc": "baking bread"}
  ]}},
  "Hashtag": {"HashtagList": [
    {"HashtagName": "food"}, {"HashtagName": "food"}, {"HashtagName": "travel"}
  ]},
  "Your Activity": {
    "Activity Summary": {"ActivitySummaryMap": {"videosWatchedToTheEndSinceAccountRegistration": 1234}},
    "Video Watch History": {"VideoWatchHistoryList": [
      {"Date": "2023-05-03 08:00:00"},
      {"Date": "2023-05-03 10:00:00"},
      {"Date": "2023-05-04 22:00:00"}
    ]}
  }
}`

func TestComputeTikTok(t *testing.T) {
	doc := mustParse(t, tiktokExport)
	report := Compute(doc, platform.TikTok, platform.Default().StopwordSet())

	if report.Platform != "TikTok" {
		t.Errorf("Platform = %q", report.Platform)
	}

	c := report.Comments
	if c == nil {
		t.Fatal("Comments card missing")
	}
	if c.Total != 3 {
		t.Errorf("Comments.Total = %d, want 3", c.Total)
	}
	if len(c.PerDay) != 2 || c.PerDay[0].Date != "2023-05-01" || c.PerDay[0].Count != 2 {
		t.Errorf("Comments.PerDay = %+v", c.PerDay)
	}
	// (29 + 19 + 4) / 3 = 17.3
	if got := c.AvgLength.String(); got != "17.3" {
		t.Errorf("Comments.AvgLength = %s, want 17.3", got)
	}
	// "cooking" appears twice and survives the stopword/length filters.
	if len(c.TopWords) == 0 || c.TopWords[0].Name != "cooking" || c.TopWords[0].Count != 2 {
		t.Errorf("Comments.TopWords = %+v", c.TopWords)
	}
	// May 1 and May 8 2023 are both Mondays, so all three comments land there.
	if len(c.ByWeekday) == 0 || c.ByWeekday[0].Name != "Monday" || c.ByWeekday[0].Count != 3 {
		t.Errorf("Comments.ByWeekday = %+v", c.ByWeekday)
	}

	p := report.Posts
	if p == nil {
		t.Fatal("Posts card missing")
	}
	if p.Total != 3 {
		t.Errorf("Posts.Total = %d, want 3", p.Total)
	}
	// Week of 2023-05-01 has likes 10 and 20; week of 2023-05-08 has 30.
	if len(p.WeeklyAvgLikes) != 2 {
		t.Fatalf("Posts.WeeklyAvgLikes = %+v", p.WeeklyAvgLikes)
	}
	if p.WeeklyAvgLikes[0].WeekStart != "2023-05-01" || p.WeeklyAvgLikes[0].AvgLikes.String() != "15" {
		t.Errorf("first week = %+v", p.WeeklyAvgLikes[0])
	}
	if p.CommentsPerPost == nil || p.CommentsPerPost.String() != "1" {
		t.Errorf("CommentsPerPost = %v, want 1", p.CommentsPerPost)
	}
	// "pasta" is the most frequent caption word; its posts have likes 10, 20.
	foundPasta := false
	for _, tl := range p.TopicLikes {
		if tl.Topic == "pasta" {
			foundPasta = true
			if tl.AvgLikes.String() != "15" {
				t.Errorf("pasta avg likes = %s, want 15", tl.AvgLikes)
			}
		}
	}
	if !foundPasta {
		t.Errorf("TopicLikes missing pasta: %+v", p.TopicLikes)
	}
	// Posting hours: 18, 18, 20 → hours 18 and 20.
	if len(p.ByHour) != 2 || p.ByHour[0].Hour != 18 || p.ByHour[0].Count != 2 {
		t.Errorf("Posts.ByHour = %+v", p.ByHour)
	}

	if len(report.Hashtags) == 0 || report.Hashtags[0].Name != "food" || report.Hashtags[0].Count != 2 {
		t.Errorf("Hashtags = %+v", report.Hashtags)
	}

	w := report.Watch
	if w == nil {
		t.Fatal("Watch card missing")
	}
	if w.VideosWatched == nil || *w.VideosWatched != "1234" {
		t.Errorf("VideosWatched = %v", w.VideosWatched)
	}
	// Overall span: May 3 08:00 to May 4 22:00 = 38h.
	if w.LongestSessionHours == nil || w.LongestSessionHours.String() != "38" {
		t.Errorf("LongestSessionHours = %v, want 38", w.LongestSessionHours)
	}
	// Day spans: 2h on May 3, 0h on May 4 → avg 1h.
	if w.AvgSessionHours == nil || w.AvgSessionHours.String() != "1" {
		t.Errorf("AvgSessionHours = %v, want 1", w.AvgSessionHours)
	}
}

func TestComputeTikTokEmptySections(t *testing.T) {
	doc := mustParse(t, `{"Profile": {"name": "REDACTED"}}`)
	report := Compute(doc, platform.TikTok, nil)

	if report.Comments != nil || report.Posts != nil || report.Watch != nil || report.Hashtags != nil {
		t.Errorf("expected empty report, got %+v", report)
	}
}

func TestComputeGenericSections(t *testing.T) {
	doc := mustParse(t, `{
	  "posts_section": {
	    "items": [
	      {"date": "2022-01-01", "body": "REDACTED"},
	      {"date": "2022-01-01", "body": "REDACTED"},
	      {"date": "2022-01-02", "body": "REDACTED"}
	    ],
	    "no_dates": [{"body": "x"}]
	  },
	  "scalar_section": "value"
	}`)

	report := Compute(doc, platform.Facebook, nil)
	if len(report.Sections) != 1 {
		t.Fatalf("Sections = %+v, want exactly one", report.Sections)
	}
	tr := report.Sections[0]
	if tr.Section != "posts_section" || tr.Block != "items" {
		t.Errorf("trend identity = %s - %s", tr.Section, tr.Block)
	}
	if len(tr.PerDay) != 2 || tr.PerDay[0].Count != 2 || tr.PerDay[1].Count != 1 {
		t.Errorf("PerDay = %+v", tr.PerDay)
	}
}

func TestComputeGenericTimestampColumn(t *testing.T) {
	doc := mustParse(t, `{"activity": {"events": [{"Timestamp": 1640995200, "kind": "login"}]}}`)
	report := Compute(doc, platform.Reddit, nil)

	if len(report.Sections) != 1 {
		t.Fatalf("Sections = %+v", report.Sections)
	}
	if got := report.Sections[0].PerDay[0].Date; got != "2022-01-01" {
		t.Errorf("unix timestamp parsed to %s, want 2022-01-01", got)
	}
}

func TestComputeNilDocument(t *testing.T) {
	report := Compute(nil, platform.Twitter, nil)
	if report == nil || len(report.Sections) != 0 {
		t.Errorf("nil document should produce an empty report")
	}
}

func TestTopWordsFiltering(t *testing.T) {
	stop := map[string]struct{}{"that": {}}
	got := topWords([]string{"that cat runs fast", "fast CATS run FAST"}, stop, 10)

	// "that" is a stopword, "cat"/"run" are too short, "fast" wins with 3.
	if len(got) == 0 || got[0].Name != "fast" || got[0].Count != 3 {
		t.Errorf("topWords = %+v", got)
	}
	for _, nc := range got {
		if nc.Name == "that" || nc.Name == "cat" {
			t.Errorf("filtered word leaked: %+v", nc)
		}
	}
}

func TestParseTimeFormats(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
		ok   bool
	}{
		{name: "datetime", doc: `{"t":"2023-05-01 10:00:00"}`, want: "2023-05-01", ok: true},
		{name: "date only", doc: `{"t":"2023-05-01"}`, want: "2023-05-01", ok: true},
		{name: "rfc3339", doc: `{"t":"2023-05-01T10:00:00Z"}`, want: "2023-05-01", ok: true},
		{name: "unix number", doc: `{"t":1682899200}`, want: "2023-05-01", ok: true},
		{name: "unix string", doc: `{"t":"1682899200"}`, want: "2023-05-01", ok: true},
		{name: "garbage", doc: `{"t":"not a date"}`, ok: false},
		{name: "redacted marker", doc: `{"t":"REDACTED"}`, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := mustParse(t, tt.doc).Field("t")
			got, ok := parseTime(v)
			if ok != tt.ok {
				t.Fatalf("parseTime() ok = %v, want %v", ok, tt.ok)
			}
			if ok && got.Format("2006-01-02") != tt.want {
				t.Errorf("parseTime() = %s, want %s", got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestWeekStart(t *testing.T) {
	v := mustParse(t, `{"t":"2023-05-03"}`) // a Wednesday
	ts, _ := parseTime(v.Field("t"))
	if got := weekStart(ts).Format("2006-01-02"); got != "2023-05-01" {
		t.Errorf("weekStart = %s, want 2023-05-01", got)
	}
}
