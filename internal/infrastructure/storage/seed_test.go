package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSeedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.json")
	content := `{
		"organizations": [
			{"org_name": "WaterOrg", "org_type": "ngo", "org_country": "NL", "org_website": "https://waterorg.example"}
		],
		"source_feeds": [
			{"org_name": "WaterOrg", "feed_name": "publications", "feed_type": "web", "base_url": "https://waterorg.example/publications"}
		]
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed file: %v", err)
	}

	data, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("load seed file failed: %v", err)
	}

	if len(data.Organizations) != 1 || data.Organizations[0].Name != "WaterOrg" {
		t.Fatalf("unexpected organizations: %+v", data.Organizations)
	}
	if len(data.SourceFeeds) != 1 || data.SourceFeeds[0].FeedType != "web" {
		t.Fatalf("unexpected feeds: %+v", data.SourceFeeds)
	}
}

func TestLoadSeedFileErrors(t *testing.T) {
	t.Parallel()

	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write seed file: %v", err)
	}
	if _, err := LoadSeedFile(path); err == nil {
		t.Fatalf("expected error for malformed json")
	}
}
