package source

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"shoptrends/domain/dataset"
	"shoptrends/internal"
	"shoptrends/internal/errors"
)

// Loader resolves a data location to a Dataset. Locations are a local path (.csv, .xlsx),
// s3://bucket/key, gs://bucket/key, or a postgres:// / sqlite:// DSN read from Table.
type Loader struct {
	Table      string
	S3Endpoint string
	logger     *internal.Logger

	// fetchers by URL scheme; missing entries are created on first use
	fetchers map[string]ObjectFetcher
}

// NewLoader creates a loader reading SQL sources from table
func NewLoader(table string, logger *internal.Logger) *Loader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Loader{Table: table, logger: logger, fetchers: make(map[string]ObjectFetcher)}
}

// WithFetcher registers the object fetcher for a scheme ("s3", "gs")
func (l *Loader) WithFetcher(scheme string, f ObjectFetcher) *Loader {
	l.fetchers[scheme] = f
	return l
}

// Load reads location once and builds the Dataset
func (l *Loader) Load(ctx context.Context, location string) (*dataset.Dataset, error) {
	start := time.Now()
	l.logger.Info("[Loader] Loading dataset from %s", redact(location))

	table, err := l.readTable(ctx, location)
	if err != nil {
		return nil, err
	}

	result := BuildDataset(table)
	l.logger.Info("[Loader] Loaded %d rows x %d columns in %.2fms (%d missing values filled)",
		result.Dataset.Len(), len(result.Dataset.Columns()),
		float64(time.Since(start).Nanoseconds())/1e6, result.Filled)
	return result.Dataset, nil
}

func (l *Loader) readTable(ctx context.Context, location string) (*RawTable, error) {
	scheme := ""
	if i := strings.Index(location, "://"); i > 0 {
		scheme = strings.ToLower(location[:i])
	}

	switch scheme {
	case "":
		return NewDataReader(location, l.logger).ReadData()

	case "postgres", "postgresql", "sqlite", "sqlite3":
		src, err := OpenSQL(ctx, location, l.Table)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return src.ReadTable(ctx)

	case "s3", "gs":
		u, err := url.Parse(location)
		if err != nil || u.Host == "" || strings.Trim(u.Path, "/") == "" {
			return nil, errors.ConfigInvalid("object location must be scheme://bucket/key: " + location)
		}
		fetcher, err := l.fetcher(ctx, scheme)
		if err != nil {
			return nil, err
		}
		key := strings.TrimPrefix(u.Path, "/")
		body, err := fetcher.Fetch(ctx, u.Host, key)
		if err != nil {
			return nil, err
		}
		defer body.Close()

		// excelize needs random access, so the object is buffered whole
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, errors.LoadIO("failed to read "+location, err)
		}
		return ParseTable(bytes.NewReader(data), fileTypeOf(key), l.logger)
	}

	return nil, errors.ConfigInvalid("unsupported data location scheme: " + scheme)
}

func (l *Loader) fetcher(ctx context.Context, scheme string) (ObjectFetcher, error) {
	if f, ok := l.fetchers[scheme]; ok {
		return f, nil
	}
	var (
		f   ObjectFetcher
		err error
	)
	switch scheme {
	case "s3":
		f, err = NewS3Fetcher(ctx, l.S3Endpoint)
	case "gs":
		f, err = NewGCSFetcher(ctx)
	}
	if err != nil {
		return nil, err
	}
	l.fetchers[scheme] = f
	return f, nil
}

// redact hides DSN credentials in log lines
func redact(location string) string {
	u, err := url.Parse(location)
	if err != nil || u.User == nil {
		return location
	}
	u.User = url.User(u.User.Username())
	return u.String()
}
