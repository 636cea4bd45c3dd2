package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/yahrour/digital-closet/pkg/domain"
)

func TestCreateItemAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")

	id := env.mustItem(t, "user-1", domain.NewItem{
		Name:            "Red Sneaker",
		Seasons:         []string{"spring", "summer"},
		PrimaryColor:    "red",
		SecondaryColors: []string{"white"},
		Brand:           "Acme",
		Category:        "Shoes",
		Tags:            []string{"casual", "sport"},
		ImageKeys:       []string{"uploads/a/front.jpg", "uploads/a/side.jpg"},
	})

	item, err := env.app.Item(ctx, "user-1", id)
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if item.Name != "red sneaker" {
		t.Errorf("Name = %q, want lowered red sneaker", item.Name)
	}
	if item.Category != "shoes" {
		t.Errorf("Category = %q, want shoes", item.Category)
	}
	if len(item.Tags) != 2 || item.Tags[0].Name != "casual" || item.Tags[1].Name != "sport" {
		t.Errorf("Tags = %v, want casual, sport sorted by name", item.Tags)
	}
	if len(item.ImageKeys) != 2 || item.ImageKeys[0] != "uploads/a/front.jpg" {
		t.Errorf("ImageKeys = %v, order not preserved", item.ImageKeys)
	}
	for _, tag := range []string{CacheTagItems, CacheTagTags, CacheTagColors, CacheTagCategoryCounts} {
		if !env.cache.wasInvalidated(tag) {
			t.Errorf("tag %q not invalidated on create", tag)
		}
	}
}

func TestCreateItemUnknownCategoryCompensates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	keys := []string{"uploads/x/1.jpg", "uploads/x/2.jpg"}
	_, err := env.app.CreateItem(ctx, "user-1", domain.NewItem{
		Name:         "Jacket",
		Seasons:      []string{"winter"},
		PrimaryColor: "black",
		Category:     "Outerwear",
		ImageKeys:    keys,
	})
	kindOf(t, err, KindCategoryNotFound)
	for _, key := range keys {
		if !env.objects.wasDeleted(key) {
			t.Errorf("orphaned key %q was not cleaned up", key)
		}
	}
}

func TestCreateItemDuplicateNameCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	env.mustItem(t, "user-1", domain.NewItem{Name: "Red Sneaker", Category: "Shoes"})

	_, err := env.app.CreateItem(ctx, "user-1", domain.NewItem{
		Name:         "RED SNEAKER",
		Seasons:      []string{"summer"},
		PrimaryColor: "red",
		Category:     "Shoes",
		ImageKeys:    []string{"uploads/dup/1.jpg"},
	})
	kindOf(t, err, KindDuplicateName)
	if !env.objects.wasDeleted("uploads/dup/1.jpg") {
		t.Error("orphaned key was not cleaned up after duplicate rejection")
	}

	// Same name is fine for a different user.
	env.mustCategory(t, "user-2", "Shoes")
	env.mustItem(t, "user-2", domain.NewItem{Name: "Red Sneaker", Category: "Shoes"})
}

func TestCreateItemRequiresImage(t *testing.T) {
	env := newTestEnv(t)
	env.mustCategory(t, "user-1", "Shoes")
	_, err := env.app.CreateItem(context.Background(), "user-1", domain.NewItem{
		Name:         "Boot",
		Seasons:      []string{"winter"},
		PrimaryColor: "brown",
		Category:     "Shoes",
	})
	kindOf(t, err, KindMissingImage)
}

func TestItemsPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Tops")
	for i := 0; i < 5; i++ {
		env.mustItem(t, "user-1", domain.NewItem{Name: fmt.Sprintf("Shirt %d", i), Category: "Tops"})
	}

	page1, err := env.app.Items(ctx, "user-1", domain.ItemFilter{}, 1)
	if err != nil {
		t.Fatalf("Items page 1: %v", err)
	}
	if len(page1.Items) != ItemPageSize {
		t.Fatalf("page 1 size = %d, want %d", len(page1.Items), ItemPageSize)
	}
	if page1.Total != 5 || page1.TotalPages != 2 {
		t.Fatalf("total = %d totalPages = %d, want 5 and 2", page1.Total, page1.TotalPages)
	}
	if page1.Items[0].Name != "shirt 4" {
		t.Errorf("first item = %q, want newest first", page1.Items[0].Name)
	}

	page2, err := env.app.Items(ctx, "user-1", domain.ItemFilter{}, 2)
	if err != nil {
		t.Fatalf("Items page 2: %v", err)
	}
	if len(page2.Items) != 1 || page2.Total != 5 {
		t.Fatalf("page 2 = %d items total %d, want 1 and 5", len(page2.Items), page2.Total)
	}
}

func TestItemsFilterDimensions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	env.mustCategory(t, "user-1", "Tops")
	env.mustItem(t, "user-1", domain.NewItem{
		Name: "Red Sneaker", Category: "Shoes",
		Seasons: []string{"summer"}, PrimaryColor: "red",
		Tags: []string{"casual"},
	})
	env.mustItem(t, "user-1", domain.NewItem{
		Name: "Blue Shirt", Category: "Tops",
		Seasons: []string{"winter"}, PrimaryColor: "blue",
		SecondaryColors: []string{"red"},
	})

	got, err := env.app.Items(ctx, "user-1", domain.ItemFilter{Categories: []string{"Shoes"}}, 1)
	if err != nil {
		t.Fatalf("filter by category: %v", err)
	}
	if got.Total != 1 || got.Items[0].Name != "red sneaker" {
		t.Fatalf("category filter got %v", got.Items)
	}

	// Color matches primary or secondary.
	got, err = env.app.Items(ctx, "user-1", domain.ItemFilter{Colors: []string{"red"}}, 1)
	if err != nil {
		t.Fatalf("filter by color: %v", err)
	}
	if got.Total != 2 {
		t.Fatalf("color filter total = %d, want 2", got.Total)
	}

	got, err = env.app.Items(ctx, "user-1", domain.ItemFilter{Seasons: []string{"winter"}, Tags: []string{"casual"}}, 1)
	if err != nil {
		t.Fatalf("combined filter: %v", err)
	}
	if got.Total != 0 {
		t.Fatalf("AND of dimensions should exclude everything, total = %d", got.Total)
	}
}

func TestItemsOwnershipIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	id := env.mustItem(t, "user-1", domain.NewItem{Name: "Sneaker", Category: "Shoes"})

	page, err := env.app.Items(ctx, "user-2", domain.ItemFilter{}, 1)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if page.Total != 0 {
		t.Fatalf("user-2 sees %d items of user-1", page.Total)
	}
	_, err = env.app.Item(ctx, "user-2", id)
	kindOf(t, err, KindNotFound)
	err = env.app.DeleteItem(ctx, "user-2", id)
	kindOf(t, err, KindNotFound)
}

func TestUpdateItemUnlinksDeletedTags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	id := env.mustItem(t, "user-1", domain.NewItem{
		Name: "Sneaker", Category: "Shoes", Tags: []string{"casual", "sport"},
	})
	other := env.mustItem(t, "user-1", domain.NewItem{
		Name: "Boot", Category: "Shoes", Tags: []string{"casual"},
	})

	err := env.app.UpdateItem(ctx, "user-1", id, domain.ItemUpdate{
		Name:         "Sneaker",
		Seasons:      []string{"summer"},
		PrimaryColor: "black",
		Category:     "Shoes",
		DeletedTags:  []string{"casual"},
		ImageKeys:    []string{"uploads/test/Sneaker.jpg"},
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	item, err := env.app.Item(ctx, "user-1", id)
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if len(item.Tags) != 1 || item.Tags[0].Name != "sport" {
		t.Fatalf("Tags after unlink = %v, want only sport", item.Tags)
	}
	// The tag stays linked to the other item and stays in the global list.
	otherItem, err := env.app.Item(ctx, "user-1", other)
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if len(otherItem.Tags) != 1 || otherItem.Tags[0].Name != "casual" {
		t.Fatalf("other item lost its tag: %v", otherItem.Tags)
	}
}

func TestUpdateItemTagIdempotence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	id := env.mustItem(t, "user-1", domain.NewItem{
		Name: "Sneaker", Category: "Shoes", Tags: []string{"casual"},
	})

	// Re-submitting an already linked tag neither duplicates the tag nor the
	// link.
	for i := 0; i < 2; i++ {
		err := env.app.UpdateItem(ctx, "user-1", id, domain.ItemUpdate{
			Name:         "Sneaker",
			Seasons:      []string{"summer"},
			PrimaryColor: "black",
			Category:     "Shoes",
			Tags:         []string{"Casual"},
			ImageKeys:    []string{"uploads/test/Sneaker.jpg"},
		})
		if err != nil {
			t.Fatalf("UpdateItem round %d: %v", i, err)
		}
	}
	item, err := env.app.Item(ctx, "user-1", id)
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if len(item.Tags) != 1 || item.Tags[0].Name != "casual" {
		t.Fatalf("Tags = %v, want a single casual link", item.Tags)
	}
	tags, err := env.app.Tags(ctx, "user-1")
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(tags) != 1 {
		t.Fatalf("global tags = %v, want one entry", tags)
	}
}

func TestImageOrderRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	id := env.mustItem(t, "user-1", domain.NewItem{
		Name: "Sneaker", Category: "Shoes",
		ImageKeys: []string{"k1", "k2"},
	})

	err := env.app.UpdateItem(ctx, "user-1", id, domain.ItemUpdate{
		Name:         "Sneaker",
		Seasons:      []string{"summer"},
		PrimaryColor: "black",
		Category:     "Shoes",
		ImageKeys:    []string{"k2", "k1"},
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	item, err := env.app.Item(ctx, "user-1", id)
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if item.ImageKeys[0] != "k2" || item.ImageKeys[1] != "k1" {
		t.Fatalf("ImageKeys = %v, want reordered k2, k1", item.ImageKeys)
	}
}

func TestUpdateItemDeletesReplacedImages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	id := env.mustItem(t, "user-1", domain.NewItem{
		Name: "Sneaker", Category: "Shoes",
		ImageKeys: []string{"k1", "k2"},
	})

	// k2 stays on the item, k1 is replaced by the fresh upload k3.
	err := env.app.UpdateItem(ctx, "user-1", id, domain.ItemUpdate{
		Name:             "Sneaker",
		Seasons:          []string{"summer"},
		PrimaryColor:     "black",
		Category:         "Shoes",
		ImageKeys:        []string{"k2", "k3"},
		DeletedImageKeys: []string{"k1", "k2"},
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if !env.objects.wasDeleted("k1") {
		t.Error("replaced key k1 was not deleted from storage")
	}
	if env.objects.wasDeleted("k2") {
		t.Error("k2 is still referenced by the row and must survive")
	}
	if env.objects.wasDeleted("k3") {
		t.Error("freshly uploaded k3 was deleted after a successful commit")
	}
	item, err := env.app.Item(ctx, "user-1", id)
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if len(item.ImageKeys) != 2 || item.ImageKeys[0] != "k2" || item.ImageKeys[1] != "k3" {
		t.Fatalf("ImageKeys = %v, want [k2 k3]", item.ImageKeys)
	}
}

func TestUpdateItemFailureCompensatesFreshUploads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	id := env.mustItem(t, "user-1", domain.NewItem{
		Name: "Sneaker", Category: "Shoes", ImageKeys: []string{"old-key"},
	})
	env.mustItem(t, "user-1", domain.NewItem{Name: "Boot", Category: "Shoes"})

	err := env.app.UpdateItem(ctx, "user-1", id, domain.ItemUpdate{
		Name:             "Boot",
		Seasons:          []string{"summer"},
		PrimaryColor:     "black",
		Category:         "Shoes",
		ImageKeys:        []string{"fresh-upload"},
		DeletedImageKeys: []string{"old-key"},
	})
	kindOf(t, err, KindDuplicateName)
	if !env.objects.wasDeleted("fresh-upload") {
		t.Error("fresh upload was not cleaned up after the rejected update")
	}
	if env.objects.wasDeleted("old-key") {
		t.Error("stored key was deleted although the update never committed")
	}
	item, err := env.app.Item(ctx, "user-1", id)
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if len(item.ImageKeys) != 1 || item.ImageKeys[0] != "old-key" {
		t.Fatalf("ImageKeys = %v, want the original [old-key]", item.ImageKeys)
	}
}

func TestItemListKeySeparatesFilterValues(t *testing.T) {
	joined := itemListKey("u", domain.ItemFilter{Tags: []string{"a,b"}}, 1)
	split := itemListKey("u", domain.ItemFilter{Tags: []string{"a", "b"}}, 1)
	if joined == split {
		t.Fatalf("key %q collides for distinct tag filters", joined)
	}
	piped := itemListKey("u", domain.ItemFilter{Categories: []string{"x|y"}}, 1)
	spread := itemListKey("u", domain.ItemFilter{Categories: []string{"x"}, Seasons: []string{"y"}}, 1)
	if piped == spread {
		t.Fatalf("key %q collides across filter dimensions", piped)
	}
}

func TestDeleteItemStrictOnStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	id := env.mustItem(t, "user-1", domain.NewItem{
		Name: "Sneaker", Category: "Shoes",
		ImageKeys: []string{"k1", "k2"},
	})

	env.objects.failKeys["k2"] = true
	err := env.app.DeleteItem(ctx, "user-1", id)
	kindOf(t, err, KindStorageError)
	if env.alerter.count() != 1 {
		t.Fatalf("alerter reports = %d, want 1", env.alerter.count())
	}
	// Row survives so the delete can be retried.
	if _, err := env.app.Item(ctx, "user-1", id); err != nil {
		t.Fatalf("item should still exist after aborted delete: %v", err)
	}

	env.objects.failKeys = map[string]bool{}
	if err := env.app.DeleteItem(ctx, "user-1", id); err != nil {
		t.Fatalf("retry DeleteItem: %v", err)
	}
	_, err = env.app.Item(ctx, "user-1", id)
	kindOf(t, err, KindNotFound)
}

func TestItemsCachedUntilInvalidated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	env.mustItem(t, "user-1", domain.NewItem{Name: "Sneaker", Category: "Shoes"})

	if _, err := env.app.Items(ctx, "user-1", domain.ItemFilter{}, 1); err != nil {
		t.Fatalf("Items: %v", err)
	}
	before := env.cache.hits
	if _, err := env.app.Items(ctx, "user-1", domain.ItemFilter{}, 1); err != nil {
		t.Fatalf("Items: %v", err)
	}
	if env.cache.hits != before+1 {
		t.Fatal("second read should be served from cache")
	}

	env.mustItem(t, "user-1", domain.NewItem{Name: "Boot", Category: "Shoes"})
	page, err := env.app.Items(ctx, "user-1", domain.ItemFilter{}, 1)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("total = %d after create, want 2 (stale cache?)", page.Total)
	}
}
