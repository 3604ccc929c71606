package adapter

import (
	"context"

	"github.com/cloudflare/cloudflare-go"
)

// CDNPurger defines an interface for invalidating CDN cached files to enable mocking
//
//go:generate mockgen -source=cloudflare.go -destination=../mocks/cloudflare.go -package=mocks -mock_names=CDNPurger=MockCDNPurger
type CDNPurger interface {
	// PurgeFiles evicts the given absolute URLs from the CDN cache
	PurgeFiles(ctx context.Context, urls []string) error
}

// RealCloudflarePurger implements CDNPurger using the official Cloudflare SDK
type RealCloudflarePurger struct {
	api    *cloudflare.API
	zoneID string
}

// NewCloudflarePurger creates a purger for one Cloudflare zone
func NewCloudflarePurger(apiToken, zoneID string) (CDNPurger, error) {
	api, err := cloudflare.NewWithAPIToken(apiToken)
	if err != nil {
		return nil, err
	}
	return &RealCloudflarePurger{
		api:    api,
		zoneID: zoneID,
	}, nil
}

// PurgeFiles purges the files in batches of 30, the per-request limit of the purge API
func (c *RealCloudflarePurger) PurgeFiles(ctx context.Context, urls []string) error {
	const batch = 30
	for start := 0; start < len(urls); start += batch {
		end := min(start+batch, len(urls))
		if _, err := c.api.PurgeCache(ctx, c.zoneID, cloudflare.PurgeCacheRequest{Files: urls[start:end]}); err != nil {
			return err
		}
	}
	return nil
}

// NopPurger is used when no CDN is configured
type NopPurger struct{}

func (NopPurger) PurgeFiles(context.Context, []string) error { return nil }
