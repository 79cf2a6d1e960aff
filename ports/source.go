package ports

import (
	"context"

	"shoptrends/domain/dataset"
)

// DatasetLoader reads a data location into a Dataset once at startup
type DatasetLoader interface {
	Load(ctx context.Context, location string) (*dataset.Dataset, error)
}
