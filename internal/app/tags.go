package app

import (
	"context"

	"github.com/yahrour/digital-closet/internal/util"
	"github.com/yahrour/digital-closet/pkg/domain"
)

// Tags returns the caller's tag names sorted alphabetically, cached under
// the tags tag.
func (a *App) Tags(ctx context.Context, userID string) ([]string, error) {
	var cached []string
	if hit, err := a.cache.GetJSON(ctx, CacheTagTags, userID, &cached); err == nil && hit {
		return cached, nil
	}
	names, err := a.store.ListTags(ctx, userID)
	if err != nil {
		return nil, WrapError(KindWriteFailed, "failed to list tags", err)
	}
	if err := a.cache.SetJSON(ctx, CacheTagTags, userID, names); err != nil {
		util.LoggerFromContext(ctx).Warn("cache write failed", "tag", CacheTagTags, "error", err)
	}
	return names, nil
}

// UnusedTags returns tags that no item links to.
func (a *App) UnusedTags(ctx context.Context, userID string) ([]domain.Tag, error) {
	tags, err := a.store.ListUnusedTags(ctx, userID)
	if err != nil {
		return nil, WrapError(KindWriteFailed, "failed to list unused tags", err)
	}
	return tags, nil
}

// DeleteUnusedTags removes every tag with no item links, recomputing the
// link state inside the delete so a tag that gained a link since the caller
// listed it survives. Returns how many tags were removed.
func (a *App) DeleteUnusedTags(ctx context.Context, userID string) (int64, error) {
	removed, err := a.store.DeleteUnusedTags(ctx, userID)
	if err != nil {
		return 0, mapStoreError(err, "tag")
	}
	if removed > 0 {
		a.invalidate(ctx, CacheTagTags)
	}
	return removed, nil
}

// Colors returns the distinct colors used across the caller's items, primary
// and secondary combined, cached under the colors tag.
func (a *App) Colors(ctx context.Context, userID string) ([]string, error) {
	var cached []string
	if hit, err := a.cache.GetJSON(ctx, CacheTagColors, userID, &cached); err == nil && hit {
		return cached, nil
	}
	colors, err := a.store.ListColors(ctx, userID)
	if err != nil {
		return nil, WrapError(KindWriteFailed, "failed to list colors", err)
	}
	if err := a.cache.SetJSON(ctx, CacheTagColors, userID, colors); err != nil {
		util.LoggerFromContext(ctx).Warn("cache write failed", "tag", CacheTagColors, "error", err)
	}
	return colors, nil
}
