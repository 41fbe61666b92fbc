// Package platform holds the static domain tables for the five supported
// social-media export schemas: per-platform PII key lists, the
// cross-platform PII list, the key pattern rules, and the stop-word list
// shared with analytics. Tables are built once at startup and passed
// explicitly into the engine; there is no ambient mutable state.
package platform

import (
	"fmt"
	"strings"

	"github.com/ScrubLabs/scrub-web/internal/redact"
)

// Platform identifies one of the supported export schemas.
type Platform string

const (
	TikTok    Platform = "TikTok"
	Instagram Platform = "Instagram"
	Facebook  Platform = "Facebook"
	Twitter   Platform = "Twitter"
	Reddit    Platform = "Reddit"
)

// All returns the closed set of supported platforms, in display order.
func All() []Platform {
	return []Platform{TikTok, Instagram, Facebook, Twitter, Reddit}
}

// Parse resolves a platform name case-insensitively.
func Parse(name string) (Platform, error) {
	for _, p := range All() {
		if strings.EqualFold(string(p), name) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported platform %q", name)
}

// Tables bundles the immutable domain data the engine and analytics consume.
type Tables struct {
	// KeyPatterns is the ordered key pattern rule list. Order is priority.
	KeyPatterns []string

	// CommonPII lists key names redacted for every platform.
	CommonPII []string

	// PII lists key names specific to each platform's export schema.
	PII map[Platform][]string

	// Stopwords are skipped during word-frequency analytics.
	Stopwords []string
}

// Default returns the pattern rules and PII/stop-word lists.
func Default() Tables {
	return Tables{
		KeyPatterns: []string{
			`Chat History with .+`,
			`comments?:.*`,
			`replies?:.*`,
			`posts?:.*`,
			`story:.*`,
		},
		CommonPII: []string{
			"id", "uuid", "name", "full_name", "username", "userName",
			"email", "emailAddress", "phone", "phone_number",
			"telephoneNumber", "birthDate", "date_of_birth", "device_id",
			"deviceModel", "os_version", "location", "hometown",
			"current_city", "external_url", "created_at", "registration_time",
		},
		PII: map[Platform][]string{
			TikTok: {
				"uid", "unique_id", "nickname", "profilePhoto",
				"profileVideo", "bioDescription", "likesReceived", "From",
				"Content", "email", "phone_number", "date_of_birth",
			},
			Instagram: {
				"username", "full_name", "biography", "profile_picture",
				"email", "phone_number", "gender", "birthday",
				"external_url", "account_creation_date",
			},
			Facebook: {
				"name", "birthday", "gender", "relationship_status",
				"hometown", "current_city", "emails", "phones",
				"friend_count", "friends", "posts", "story", "comments",
				"likes",
			},
			Twitter: {
				"accountId", "username", "accountDisplayName",
				"description", "website", "location", "avatarMediaUrl",
				"headerMediaUrl", "email", "in_reply_to_user_id", "source",
				"retweet_count", "favorite_count",
			},
			Reddit: {
				"username", "email", "karma", "subreddit", "author", "body",
				"selftext", "post_id", "title", "created_utc", "ip_address",
			},
		},
		Stopwords: []string{
			"the", "and", "for", "that", "with", "this", "from", "they",
			"have", "your", "will", "just", "like", "about", "when", "what",
			"there", "their", "were", "which", "been", "more", "than",
			"some", "could", "them", "only", "also",
		},
	}
}

// Sanitizer compiles the tables' key pattern rules.
func (t Tables) Sanitizer() (*redact.Sanitizer, error) {
	return redact.NewSanitizer(t.KeyPatterns)
}

// RedactionSet merges the cross-platform PII list, the platform's own PII
// list, and any user-chosen extra keys into one set. Built fresh per
// operation; never shared mutable state.
func (t Tables) RedactionSet(p Platform, extras []string) redact.KeySet {
	set := redact.NewKeySet(t.CommonPII...)
	set.AddAll(redact.NewKeySet(t.PII[p]...))
	set.AddAll(redact.NewKeySet(extras...))
	return set
}

// StopwordSet returns the stop words as a set for O(1) lookups.
func (t Tables) StopwordSet() map[string]struct{} {
	set := make(map[string]struct{}, len(t.Stopwords))
	for _, w := range t.Stopwords {
		set[w] = struct{}{}
	}
	return set
}
