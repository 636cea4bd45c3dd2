package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yahrour/digital-closet/internal/util"
	"github.com/yahrour/digital-closet/pkg/domain"
)

// ItemPage is one page of a filtered item listing.
type ItemPage struct {
	Items      []domain.Item `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

// CreateItem persists a new item with its category, tags, and image keys in
// one transaction. The images referenced by in.ImageKeys were already
// uploaded through presigned URLs; if the write fails they are orphans, so
// the failure path deletes them before reporting the error.
func (a *App) CreateItem(ctx context.Context, userID string, in domain.NewItem) (int64, error) {
	if len(in.ImageKeys) == 0 {
		return 0, NewError(KindMissingImage, "at least one image is required")
	}
	id, err := a.store.CreateItem(ctx, userID, in)
	if err != nil {
		a.compensateUpload(ctx, userID, in.ImageKeys)
		return 0, mapStoreError(err, "item")
	}
	a.invalidate(ctx, CacheTagItems, CacheTagTags, CacheTagColors, CacheTagCategoryCounts)
	return id, nil
}

// Items returns one page of the caller's items matching the filter, newest
// first, with the unfiltered-match total for pagination. Pages are cached
// under the items tag.
func (a *App) Items(ctx context.Context, userID string, filter domain.ItemFilter, page int) (ItemPage, error) {
	if page < 1 {
		page = 1
	}
	key := itemListKey(userID, filter, page)
	var cached ItemPage
	if hit, err := a.cache.GetJSON(ctx, CacheTagItems, key, &cached); err == nil && hit {
		return cached, nil
	}

	offset := (page - 1) * ItemPageSize
	items, total, err := a.store.ListItems(ctx, userID, filter, ItemPageSize, offset)
	if err != nil {
		return ItemPage{}, WrapError(KindWriteFailed, "failed to list items", err)
	}
	for i := range items {
		if items[i].Category == "" {
			items[i].Category = domain.Uncategorized
		}
	}
	result := ItemPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   ItemPageSize,
		TotalPages: totalPages(total, ItemPageSize),
	}
	if err := a.cache.SetJSON(ctx, CacheTagItems, key, result); err != nil {
		util.LoggerFromContext(ctx).Warn("cache write failed", "tag", CacheTagItems, "error", err)
	}
	return result, nil
}

// Item returns one item owned by the caller.
func (a *App) Item(ctx context.Context, userID string, id int64) (domain.Item, error) {
	item, ok, err := a.store.GetItem(ctx, userID, id)
	if err != nil {
		return domain.Item{}, WrapError(KindWriteFailed, "failed to load item", err)
	}
	if !ok {
		return domain.Item{}, NewError(KindNotFound, "item not found")
	}
	if item.Category == "" {
		item.Category = domain.Uncategorized
	}
	return item, nil
}

// UpdateItem replaces the item's fields and tag links in one transaction.
// Tags named in in.DeletedTags are unlinked from this item only. Image keys
// absent from the stored row are fresh uploads; if the transaction fails they
// are deleted so nothing orphans. Keys listed in in.DeletedImageKeys are
// removed from storage after the commit, best effort.
func (a *App) UpdateItem(ctx context.Context, userID string, id int64, in domain.ItemUpdate) error {
	if len(in.ImageKeys) == 0 {
		return NewError(KindMissingImage, "at least one image is required")
	}
	current, ok, err := a.store.GetItem(ctx, userID, id)
	if err != nil {
		return WrapError(KindWriteFailed, "failed to load item", err)
	}
	if !ok {
		return NewError(KindNotFound, "item not found")
	}
	stored := make(map[string]bool, len(current.ImageKeys))
	for _, key := range current.ImageKeys {
		stored[key] = true
	}
	var fresh []string
	for _, key := range in.ImageKeys {
		if !stored[key] {
			fresh = append(fresh, key)
		}
	}

	if err := a.store.UpdateItem(ctx, userID, id, in); err != nil {
		a.compensateUpload(ctx, userID, fresh)
		return mapStoreError(err, "item")
	}
	if removed := removedImageKeys(current.ImageKeys, in); len(removed) > 0 {
		a.compensateUpload(ctx, userID, removed)
	}
	a.invalidate(ctx, CacheTagItems, CacheTagTags, CacheTagColors, CacheTagCategoryCounts, CacheTagItemImages)
	return nil
}

// removedImageKeys keeps only the deleted keys that were stored on the item
// and are absent from the submitted key set, so a key still referenced by the
// row can never be deleted.
func removedImageKeys(storedKeys []string, in domain.ItemUpdate) []string {
	keep := make(map[string]bool, len(in.ImageKeys))
	for _, key := range in.ImageKeys {
		keep[key] = true
	}
	stored := make(map[string]bool, len(storedKeys))
	for _, key := range storedKeys {
		stored[key] = true
	}
	var removed []string
	for _, key := range in.DeletedImageKeys {
		if stored[key] && !keep[key] {
			removed = append(removed, key)
		}
	}
	return removed
}

// DeleteItem removes the item's stored images, then its row. If any image
// cannot be deleted the row is kept and the caller gets a storage error;
// retrying after the storage incident completes the delete.
func (a *App) DeleteItem(ctx context.Context, userID string, id int64) error {
	item, ok, err := a.store.GetItem(ctx, userID, id)
	if err != nil {
		return WrapError(KindWriteFailed, "failed to load item", err)
	}
	if !ok {
		return NewError(KindNotFound, "item not found")
	}

	if len(item.ImageKeys) > 0 {
		result, err := a.objects.DeleteObjects(ctx, item.ImageKeys)
		if err != nil {
			a.alerter.RecordCleanupFailure(ctx, userID, item.ImageKeys)
			return WrapError(KindStorageError, "failed to delete item images", err)
		}
		if len(result.Errors) > 0 {
			failed := make([]string, 0, len(result.Errors))
			for _, e := range result.Errors {
				failed = append(failed, e.Key)
			}
			a.alerter.RecordCleanupFailure(ctx, userID, failed)
			return NewError(KindStorageError, fmt.Sprintf("failed to delete %d item image(s)", len(failed)))
		}
	}

	if err := a.store.DeleteItem(ctx, userID, id); err != nil {
		return mapStoreError(err, "item")
	}
	a.invalidate(ctx, CacheTagItems, CacheTagColors, CacheTagCategoryCounts, CacheTagItemImages, CacheTagOutfits)
	return nil
}

// itemListKey derives a cache key from the filter. Values are length-prefixed
// so a value containing a separator cannot collide with a different filter.
func itemListKey(userID string, filter domain.ItemFilter, page int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|p=%d", userID, page)
	for _, dim := range [][]string{filter.Categories, filter.Seasons, filter.Colors, filter.Tags} {
		b.WriteByte('|')
		for _, v := range dim {
			fmt.Fprintf(&b, "%d:%s", len(v), v)
		}
	}
	return b.String()
}

func totalPages(total, pageSize int) int {
	if total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
