package domain

import "time"

// Organization is a source organization whose publications are scanned.
type Organization struct {
	ID      int64
	Name    string
	Type    string
	Country string
	Website string
}

// SourceFeed is a crawlable entry point belonging to an organization.
type SourceFeed struct {
	ID      int64
	OrgID   int64
	OrgName string
	Name    string
	Type    string
	BaseURL string
	Active  bool
}

// Document is a fetched web document. Immutable once stored; keyed by URL+hash.
type Document struct {
	ID           int64
	FeedID       int64
	OrgID        int64
	OrgName      string
	URL          string
	CanonicalURL string
	HTTPStatus   int
	ContentType  string
	Title        string
	Language     string
	HashSHA256   string
	TextContent  string
	FetchedAt    time.Time
}

// SeedData describes organizations and feeds loaded from a seed file.
type SeedData struct {
	Organizations []SeedOrganization `json:"organizations"`
	SourceFeeds   []SeedFeed         `json:"source_feeds"`
}

// SeedOrganization is one organization entry in the seed file.
type SeedOrganization struct {
	Name    string `json:"org_name"`
	Type    string `json:"org_type"`
	Country string `json:"org_country"`
	Website string `json:"org_website"`
}

// SeedFeed is one feed entry in the seed file, linked to its organization by name.
type SeedFeed struct {
	OrgName  string `json:"org_name"`
	FeedName string `json:"feed_name"`
	FeedType string `json:"feed_type"`
	BaseURL  string `json:"base_url"`
}
