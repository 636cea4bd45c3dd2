package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/yahrour/digital-closet/pkg/domain"
)

func (e *testEnv) mustOutfit(t *testing.T, userID string, in domain.NewOutfit) int64 {
	t.Helper()
	id, err := e.app.CreateOutfit(context.Background(), userID, in)
	if err != nil {
		t.Fatalf("CreateOutfit(%q): %v", in.Name, err)
	}
	return id
}

func TestCreateAndGetOutfit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	item1 := env.mustItem(t, "user-1", domain.NewItem{Name: "Sneaker", Category: "Shoes", ImageKeys: []string{"k1"}})
	item2 := env.mustItem(t, "user-1", domain.NewItem{Name: "Boot", Category: "Shoes", ImageKeys: []string{"k2"}})

	id := env.mustOutfit(t, "user-1", domain.NewOutfit{
		Name: "Rainy Day", Note: "for wet weather", ItemIDs: []int64{item1, item2},
	})

	outfit, err := env.app.Outfit(ctx, "user-1", id)
	if err != nil {
		t.Fatalf("Outfit: %v", err)
	}
	if len(outfit.Items) != 2 {
		t.Fatalf("Items = %v, want 2 refs", outfit.Items)
	}
	for _, ref := range outfit.Items {
		if ref.ImageKey == "" {
			t.Errorf("item %d missing image key", ref.ID)
		}
		if ref.ImageURL == "" {
			t.Errorf("item %d missing presigned URL", ref.ID)
		}
	}
	if !env.cache.wasInvalidated(CacheTagOutfits) {
		t.Error("outfits tag not invalidated on create")
	}
}

func TestCreateOutfitRejectsForeignItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	foreign := env.mustItem(t, "user-1", domain.NewItem{Name: "Sneaker", Category: "Shoes"})

	_, err := env.app.CreateOutfit(ctx, "user-2", domain.NewOutfit{
		Name: "Stolen", ItemIDs: []int64{foreign},
	})
	kindOf(t, err, KindNotFound)
}

func TestOutfitsListWithCovers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	var itemIDs []int64
	for i := 0; i < 4; i++ {
		itemIDs = append(itemIDs, env.mustItem(t, "user-1", domain.NewItem{
			Name:      fmt.Sprintf("Item %d", i),
			Category:  "Shoes",
			ImageKeys: []string{fmt.Sprintf("key-%d", i)},
		}))
	}
	env.mustOutfit(t, "user-1", domain.NewOutfit{Name: "Big Look", ItemIDs: itemIDs})

	page, err := env.app.Outfits(ctx, "user-1", 1)
	if err != nil {
		t.Fatalf("Outfits: %v", err)
	}
	if page.Total != 1 || len(page.Outfits) != 1 {
		t.Fatalf("page = %+v, want one outfit", page)
	}
	covers := page.Outfits[0].CoverURLs
	if len(covers) != maxOutfitCovers {
		t.Fatalf("covers = %d, want capped at %d", len(covers), maxOutfitCovers)
	}
	for _, url := range covers {
		if url == "" {
			t.Error("cover URL empty for item with an image key")
		}
	}
}

func TestOutfitsPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	item := env.mustItem(t, "user-1", domain.NewItem{Name: "Sneaker", Category: "Shoes"})
	for i := 0; i < 11; i++ {
		env.mustOutfit(t, "user-1", domain.NewOutfit{Name: fmt.Sprintf("Look %02d", i), ItemIDs: []int64{item}})
	}

	page1, err := env.app.Outfits(ctx, "user-1", 1)
	if err != nil {
		t.Fatalf("Outfits: %v", err)
	}
	if len(page1.Outfits) != OutfitPageSize || page1.Total != 11 || page1.TotalPages != 2 {
		t.Fatalf("page 1 = %d rows total %d pages %d", len(page1.Outfits), page1.Total, page1.TotalPages)
	}
	page2, err := env.app.Outfits(ctx, "user-1", 2)
	if err != nil {
		t.Fatalf("Outfits: %v", err)
	}
	if len(page2.Outfits) != 1 {
		t.Fatalf("page 2 = %d rows, want 1", len(page2.Outfits))
	}
}

func TestOutfitItemIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	item1 := env.mustItem(t, "user-1", domain.NewItem{Name: "Sneaker", Category: "Shoes"})
	item2 := env.mustItem(t, "user-1", domain.NewItem{Name: "Boot", Category: "Shoes"})
	id := env.mustOutfit(t, "user-1", domain.NewOutfit{Name: "Look", ItemIDs: []int64{item2, item1}})

	ids, err := env.app.OutfitItemIDs(ctx, "user-1", id)
	if err != nil {
		t.Fatalf("OutfitItemIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != item1 || ids[1] != item2 {
		t.Fatalf("ids = %v, want sorted [%d %d]", ids, item1, item2)
	}

	_, err = env.app.OutfitItemIDs(ctx, "user-2", id)
	kindOf(t, err, KindNotFound)
}

func TestUpdateOutfitRemovesDeselectedItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	item1 := env.mustItem(t, "user-1", domain.NewItem{Name: "Sneaker", Category: "Shoes"})
	item2 := env.mustItem(t, "user-1", domain.NewItem{Name: "Boot", Category: "Shoes"})
	item3 := env.mustItem(t, "user-1", domain.NewItem{Name: "Sandal", Category: "Shoes"})
	id := env.mustOutfit(t, "user-1", domain.NewOutfit{Name: "Look", ItemIDs: []int64{item1, item2}})

	// Keep item1, drop item2, add item3.
	if err := env.app.UpdateOutfit(ctx, "user-1", id, "Look", "updated", []int64{item1, item3}); err != nil {
		t.Fatalf("UpdateOutfit: %v", err)
	}

	outfit, err := env.app.Outfit(ctx, "user-1", id)
	if err != nil {
		t.Fatalf("Outfit: %v", err)
	}
	got := map[int64]bool{}
	for _, ref := range outfit.Items {
		got[ref.ID] = true
	}
	if !got[item1] || !got[item3] || got[item2] {
		t.Fatalf("items after update = %v, want {%d, %d}", outfit.Items, item1, item3)
	}
	if outfit.Note != "updated" {
		t.Fatalf("Note = %q", outfit.Note)
	}
	// The deselected item itself is untouched.
	if _, err := env.app.Item(ctx, "user-1", item2); err != nil {
		t.Fatalf("deselected item should survive: %v", err)
	}
}

func TestUpdateOutfitOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	item := env.mustItem(t, "user-1", domain.NewItem{Name: "Sneaker", Category: "Shoes"})
	id := env.mustOutfit(t, "user-1", domain.NewOutfit{Name: "Look", ItemIDs: []int64{item}})

	err := env.app.UpdateOutfit(ctx, "user-2", id, "Hijacked", "", []int64{item})
	kindOf(t, err, KindNotFound)
}

func TestDeleteOutfitKeepsItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	item := env.mustItem(t, "user-1", domain.NewItem{Name: "Sneaker", Category: "Shoes"})
	id := env.mustOutfit(t, "user-1", domain.NewOutfit{Name: "Look", ItemIDs: []int64{item}})

	if err := env.app.DeleteOutfit(ctx, "user-1", id); err != nil {
		t.Fatalf("DeleteOutfit: %v", err)
	}
	_, err := env.app.Outfit(ctx, "user-1", id)
	kindOf(t, err, KindNotFound)
	if _, err := env.app.Item(ctx, "user-1", item); err != nil {
		t.Fatalf("linked item should survive outfit delete: %v", err)
	}
}

func TestDeleteItemDropsOutfitLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	item1 := env.mustItem(t, "user-1", domain.NewItem{Name: "Sneaker", Category: "Shoes"})
	item2 := env.mustItem(t, "user-1", domain.NewItem{Name: "Boot", Category: "Shoes"})
	id := env.mustOutfit(t, "user-1", domain.NewOutfit{Name: "Look", ItemIDs: []int64{item1, item2}})

	if err := env.app.DeleteItem(ctx, "user-1", item1); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	outfit, err := env.app.Outfit(ctx, "user-1", id)
	if err != nil {
		t.Fatalf("Outfit: %v", err)
	}
	if len(outfit.Items) != 1 || outfit.Items[0].ID != item2 {
		t.Fatalf("outfit items = %v, want only %d", outfit.Items, item2)
	}
}
