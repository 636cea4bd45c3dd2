package app

import (
	"context"
	"fmt"

	"github.com/yahrour/digital-closet/internal/util"
	"github.com/yahrour/digital-closet/pkg/domain"
)

// maxOutfitCovers caps how many item images a listed outfit presigns.
const maxOutfitCovers = 3

// OutfitPage is one page of an outfit listing.
type OutfitPage struct {
	Outfits    []domain.Outfit `json:"outfits"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

// CreateOutfit persists a new outfit and its item links in one transaction.
// Every referenced item must belong to the caller.
func (a *App) CreateOutfit(ctx context.Context, userID string, in domain.NewOutfit) (int64, error) {
	id, err := a.store.CreateOutfit(ctx, userID, in)
	if err != nil {
		return 0, mapStoreError(err, "outfit")
	}
	a.invalidate(ctx, CacheTagOutfits)
	return id, nil
}

// Outfits returns one page of the caller's outfits, newest first, with up to
// three presigned cover URLs per outfit. Pages are cached under the outfits
// tag.
func (a *App) Outfits(ctx context.Context, userID string, page int) (OutfitPage, error) {
	if page < 1 {
		page = 1
	}
	key := fmt.Sprintf("%s|p=%d", userID, page)
	var cached OutfitPage
	if hit, err := a.cache.GetJSON(ctx, CacheTagOutfits, key, &cached); err == nil && hit {
		return cached, nil
	}

	offset := (page - 1) * OutfitPageSize
	outfits, total, err := a.store.ListOutfits(ctx, userID, OutfitPageSize, offset)
	if err != nil {
		return OutfitPage{}, WrapError(KindWriteFailed, "failed to list outfits", err)
	}
	for i := range outfits {
		covers := coverKeys(outfits[i].Items)
		urls, err := a.presignAll(ctx, covers)
		if err != nil {
			return OutfitPage{}, err
		}
		outfits[i].CoverURLs = urls
	}
	result := OutfitPage{
		Outfits:    outfits,
		Total:      total,
		Page:       page,
		PageSize:   OutfitPageSize,
		TotalPages: totalPages(total, OutfitPageSize),
	}
	if err := a.cache.SetJSON(ctx, CacheTagOutfits, key, result); err != nil {
		util.LoggerFromContext(ctx).Warn("cache write failed", "tag", CacheTagOutfits, "error", err)
	}
	return result, nil
}

// Outfit returns one outfit owned by the caller, with a presigned image URL
// on every linked item that has one.
func (a *App) Outfit(ctx context.Context, userID string, id int64) (domain.Outfit, error) {
	outfit, ok, err := a.store.GetOutfit(ctx, userID, id)
	if err != nil {
		return domain.Outfit{}, WrapError(KindWriteFailed, "failed to load outfit", err)
	}
	if !ok {
		return domain.Outfit{}, NewError(KindNotFound, "outfit not found")
	}
	keys := make([]string, len(outfit.Items))
	for i, ref := range outfit.Items {
		keys[i] = ref.ImageKey
	}
	urls, err := a.presignAll(ctx, keys)
	if err != nil {
		return domain.Outfit{}, err
	}
	for i := range outfit.Items {
		outfit.Items[i].ImageURL = urls[i]
	}
	return outfit, nil
}

// OutfitItemIDs returns the ids of the items linked to the outfit, for
// seeding the edit form.
func (a *App) OutfitItemIDs(ctx context.Context, userID string, id int64) ([]int64, error) {
	ids, err := a.store.OutfitItemIDs(ctx, userID, id)
	if err != nil {
		return nil, mapStoreError(err, "outfit")
	}
	return ids, nil
}

// UpdateOutfit replaces the outfit's name, note, and item selection in one
// transaction. Items linked before the edit and absent from the new
// selection are unlinked; the rest of the links are upserted idempotently.
func (a *App) UpdateOutfit(ctx context.Context, userID string, id int64, name, note string, itemIDs []int64) error {
	current, err := a.store.OutfitItemIDs(ctx, userID, id)
	if err != nil {
		return mapStoreError(err, "outfit")
	}
	selected := make(map[int64]bool, len(itemIDs))
	for _, itemID := range itemIDs {
		selected[itemID] = true
	}
	var removed []int64
	for _, itemID := range current {
		if !selected[itemID] {
			removed = append(removed, itemID)
		}
	}
	update := domain.OutfitUpdate{
		Name:           name,
		Note:           note,
		ItemIDs:        itemIDs,
		RemovedItemIDs: removed,
	}
	if err := a.store.UpdateOutfit(ctx, userID, id, update); err != nil {
		return mapStoreError(err, "outfit")
	}
	a.invalidate(ctx, CacheTagOutfits)
	return nil
}

// DeleteOutfit removes the outfit and its item links. The linked items are
// untouched.
func (a *App) DeleteOutfit(ctx context.Context, userID string, id int64) error {
	if err := a.store.DeleteOutfit(ctx, userID, id); err != nil {
		return mapStoreError(err, "outfit")
	}
	a.invalidate(ctx, CacheTagOutfits)
	return nil
}

func coverKeys(items []domain.OutfitItemRef) []string {
	keys := make([]string, 0, maxOutfitCovers)
	for _, ref := range items {
		if len(keys) == maxOutfitCovers {
			break
		}
		keys = append(keys, ref.ImageKey)
	}
	return keys
}
