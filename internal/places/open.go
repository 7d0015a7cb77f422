package places

import (
	"context"
	"log/slog"
	"strings"
)

// OpenStore picks a backend from dsn:
//
//	""  or "memory:"          in-memory only
//	"sqlite://path/to.db"     sqlite table
//	"postgres://..."          postgres table
//	"redis://host:6379/0#key" redis hash (key optional)
//	"file://path" or a path   JSON file
func OpenStore(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "" || dsn == "memory:" || dsn == "memory":
		return NewMemoryStore(), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return OpenSQLStore(ctx, "sqlite", strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenSQLStore(ctx, "postgres", dsn)
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		url, key, _ := strings.Cut(dsn, "#")
		client, err := NewRedisClient(url)
		if err != nil {
			return nil, &CacheIOError{Op: "open", Path: url, Err: err}
		}
		store, err := OpenRedisStore(ctx, client, key)
		if err != nil {
			client.Close()
			return nil, err
		}
		return store, nil
	default:
		return OpenFileStore(strings.TrimPrefix(dsn, "file://"))
	}
}

// OpenStoreOrMemory never fails: a backend that cannot be opened is logged and
// replaced by an empty in-memory store, which only costs extra lookups.
func OpenStoreOrMemory(ctx context.Context, dsn string, logger *slog.Logger) Store {
	store, err := OpenStore(ctx, dsn)
	if err != nil {
		if logger == nil {
			logger = slog.New(discardHandler)
		}
		logger.Warn("place cache unavailable, continuing with empty in-memory cache",
			"dsn", redactDSN(dsn),
			"error", err,
		)
		return NewMemoryStore()
	}
	return store
}

// redactDSN drops credentials from URL-style DSNs before logging.
func redactDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "***@" + rest[at+1:]
	}
	return scheme + "://" + rest
}
