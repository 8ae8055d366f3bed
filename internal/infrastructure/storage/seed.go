package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"ChallengeScanner/internal/domain"
)

// LoadSeedFile reads organizations and source feeds from a JSON seed file.
func LoadSeedFile(path string) (domain.SeedData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.SeedData{}, fmt.Errorf("read seed file: %w", err)
	}

	var data domain.SeedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return domain.SeedData{}, fmt.Errorf("parse seed file: %w", err)
	}

	return data, nil
}

// Seed inserts organizations and their source feeds. Feeds referencing an
// unknown organization are skipped.
func (r *PostgresRepository) Seed(ctx context.Context, data domain.SeedData) error {
	orgIDs := make(map[string]int64, len(data.Organizations))

	for _, org := range data.Organizations {
		var id int64
		err := psql.Insert("org").
			Columns("org_name", "org_type", "org_country", "org_website").
			Values(org.Name, org.Type, org.Country, org.Website).
			Suffix("RETURNING org_id").
			RunWith(r.db).QueryRowContext(ctx).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert org %s: %w", org.Name, err)
		}
		orgIDs[org.Name] = id
	}

	for _, feed := range data.SourceFeeds {
		orgID, ok := orgIDs[feed.OrgName]
		if !ok {
			continue
		}

		_, err := psql.Insert("source_feed").
			Columns("org_id", "feed_name", "feed_type", "base_url", "active").
			Values(orgID, feed.FeedName, feed.FeedType, feed.BaseURL, true).
			RunWith(r.db).ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("insert feed %s: %w", feed.FeedName, err)
		}
	}

	return nil
}
