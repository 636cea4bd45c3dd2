package app

import (
	"context"
	"errors"
	"time"

	"github.com/yahrour/digital-closet/internal/util"
	"github.com/yahrour/digital-closet/pkg/storage"
	"github.com/yahrour/digital-closet/pkg/store"
)

// Cache tags invalidated by mutations. Readers memoize list payloads under
// these tags and refetch after the matching mutation commits.
const (
	CacheTagItems          = "items"
	CacheTagTags           = "tags"
	CacheTagColors         = "colors"
	CacheTagCategories     = "categories"
	CacheTagCategoryCounts = "categoryUsageCounts"
	CacheTagItemImages     = "item_images"
	CacheTagOutfits        = "outfits"
)

// Page sizes for list reads.
const (
	ItemPageSize     = 4
	CategoryPageSize = 10
	OutfitPageSize   = 10
)

const defaultPresignTTL = time.Hour

// Cache memoizes JSON payloads under invalidation tags. A nil implementation
// is not allowed; wire cache.TagCache or a test double.
type Cache interface {
	GetJSON(ctx context.Context, tag, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, tag, key string, value any) error
	Invalidate(ctx context.Context, tags ...string) error
}

// Alerter records storage cleanup failures for operator follow-up. Recording
// is best-effort and never fails the calling operation.
type Alerter interface {
	RecordCleanupFailure(ctx context.Context, userID string, keys []string)
}

// NopAlerter discards cleanup failure reports.
type NopAlerter struct{}

func (NopAlerter) RecordCleanupFailure(context.Context, string, []string) {}

// Config wires the application service.
type Config struct {
	Store      store.Store
	Objects    storage.ObjectStore
	Cache      Cache
	Alerter    Alerter
	PresignTTL time.Duration
}

// App implements the wardrobe operations on top of the store, the object
// storage, and the tag cache. Every operation takes the resolved user id and
// scopes all reads and writes to it.
type App struct {
	store      store.Store
	objects    storage.ObjectStore
	cache      Cache
	alerter    Alerter
	presignTTL time.Duration
}

// New builds the application service.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("app requires a store")
	}
	if cfg.Objects == nil {
		return nil, errors.New("app requires an object store")
	}
	if cfg.Cache == nil {
		return nil, errors.New("app requires a cache")
	}
	alerter := cfg.Alerter
	if alerter == nil {
		alerter = NopAlerter{}
	}
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}
	return &App{
		store:      cfg.Store,
		objects:    cfg.Objects,
		cache:      cfg.Cache,
		alerter:    alerter,
		presignTTL: ttl,
	}, nil
}

// mapStoreError translates store sentinels into taxonomy errors. Anything
// unrecognized becomes a write failure.
func mapStoreError(err error, entity string) error {
	switch {
	case errors.Is(err, store.ErrDuplicateName):
		return WrapError(KindDuplicateName, "a "+entity+" with this name already exists", err)
	case errors.Is(err, store.ErrCategoryNotFound):
		return WrapError(KindCategoryNotFound, "category does not exist", err)
	case errors.Is(err, store.ErrInvalidUser):
		return WrapError(KindInvalidUser, "unknown user", err)
	case errors.Is(err, store.ErrNotFound):
		return WrapError(KindNotFound, entity+" not found", err)
	default:
		return WrapError(KindWriteFailed, "failed to write "+entity, err)
	}
}

// invalidate bumps the given cache tags after a successful commit. A cache
// failure leaves stale reads behind but never fails the mutation.
func (a *App) invalidate(ctx context.Context, tags ...string) {
	if err := a.cache.Invalidate(ctx, tags...); err != nil {
		util.LoggerFromContext(ctx).Warn("cache invalidation failed", "tags", tags, "error", err)
	}
}
