//go:build !gcp

package source

import (
	"context"

	"shoptrends/internal/errors"
)

// NewGCSFetcher is unavailable unless built with -tags gcp
func NewGCSFetcher(ctx context.Context) (ObjectFetcher, error) {
	return nil, errors.ConfigInvalid("gs:// sources require a build with -tags gcp")
}
