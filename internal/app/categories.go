package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yahrour/digital-closet/internal/util"
	"github.com/yahrour/digital-closet/pkg/domain"
)

// CategoryUsagePage is one page of categories with their item counts.
type CategoryUsagePage struct {
	Categories []domain.CategoryUsage `json:"categories"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"pageSize"`
	TotalPages int                    `json:"totalPages"`
}

// Categories returns the caller's category names, cached under the
// categories tag.
func (a *App) Categories(ctx context.Context, userID string) ([]string, error) {
	var cached []string
	if hit, err := a.cache.GetJSON(ctx, CacheTagCategories, userID, &cached); err == nil && hit {
		return cached, nil
	}
	names, err := a.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, WrapError(KindWriteFailed, "failed to list categories", err)
	}
	if err := a.cache.SetJSON(ctx, CacheTagCategories, userID, names); err != nil {
		util.LoggerFromContext(ctx).Warn("cache write failed", "tag", CacheTagCategories, "error", err)
	}
	return names, nil
}

// CategoryUsage returns one page of categories with per-category item
// counts, optionally filtered by a name substring.
func (a *App) CategoryUsage(ctx context.Context, userID, search string, page int) (CategoryUsagePage, error) {
	if page < 1 {
		page = 1
	}
	key := fmt.Sprintf("%s|q=%s|p=%d", userID, strings.ToLower(strings.TrimSpace(search)), page)
	var cached CategoryUsagePage
	if hit, err := a.cache.GetJSON(ctx, CacheTagCategoryCounts, key, &cached); err == nil && hit {
		return cached, nil
	}

	offset := (page - 1) * CategoryPageSize
	rows, err := a.store.ListCategoryUsage(ctx, userID, strings.TrimSpace(search), CategoryPageSize, offset)
	if err != nil {
		return CategoryUsagePage{}, WrapError(KindWriteFailed, "failed to list category usage", err)
	}
	total := 0
	if len(rows) > 0 {
		total = rows[0].Total
	}
	result := CategoryUsagePage{
		Categories: rows,
		Total:      total,
		Page:       page,
		PageSize:   CategoryPageSize,
		TotalPages: totalPages(total, CategoryPageSize),
	}
	if err := a.cache.SetJSON(ctx, CacheTagCategoryCounts, key, result); err != nil {
		util.LoggerFromContext(ctx).Warn("cache write failed", "tag", CacheTagCategoryCounts, "error", err)
	}
	return result, nil
}

// CreateCategory adds a category for the caller. Names are unique per user,
// compared case-insensitively.
func (a *App) CreateCategory(ctx context.Context, userID, name string) (int64, error) {
	id, err := a.store.CreateCategory(ctx, userID, name)
	if err != nil {
		return 0, mapStoreError(err, "category")
	}
	a.invalidate(ctx, CacheTagCategories, CacheTagCategoryCounts)
	return id, nil
}

// RenameCategory changes a category's name. Renaming to the name the
// category already has is rejected without touching the row.
func (a *App) RenameCategory(ctx context.Context, userID string, id int64, name string) error {
	existing, ok, err := a.store.GetCategory(ctx, userID, id)
	if err != nil {
		return WrapError(KindWriteFailed, "failed to load category", err)
	}
	if !ok {
		return NewError(KindNotFound, "category not found")
	}
	if strings.EqualFold(existing.Name, strings.TrimSpace(name)) {
		return ValidationError("nothing changed", map[string]string{"name": "matches the current name"})
	}
	if err := a.store.RenameCategory(ctx, userID, id, name); err != nil {
		return mapStoreError(err, "category")
	}
	a.invalidate(ctx, CacheTagCategories, CacheTagCategoryCounts, CacheTagItems)
	return nil
}

// DeleteCategory removes the category. Items referencing it keep their rows
// and surface as uncategorized on reads.
func (a *App) DeleteCategory(ctx context.Context, userID string, id int64) error {
	if err := a.store.DeleteCategory(ctx, userID, id); err != nil {
		return mapStoreError(err, "category")
	}
	a.invalidate(ctx, CacheTagCategories, CacheTagCategoryCounts, CacheTagItems)
	return nil
}
