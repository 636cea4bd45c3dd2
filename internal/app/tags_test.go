package app

import (
	"context"
	"testing"

	"github.com/yahrour/digital-closet/pkg/domain"
)

func TestTagsSortedAndScoped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	env.mustItem(t, "user-1", domain.NewItem{
		Name: "Sneaker", Category: "Shoes", Tags: []string{"Sport", "casual"},
	})
	env.mustCategory(t, "user-2", "Shoes")
	env.mustItem(t, "user-2", domain.NewItem{
		Name: "Boot", Category: "Shoes", Tags: []string{"hiking"},
	})

	tags, err := env.app.Tags(ctx, "user-1")
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(tags) != 2 || tags[0] != "casual" || tags[1] != "sport" {
		t.Fatalf("tags = %v, want [casual sport]", tags)
	}
}

func TestUnusedTagsLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	id := env.mustItem(t, "user-1", domain.NewItem{
		Name: "Sneaker", Category: "Shoes", Tags: []string{"casual", "vintage"},
	})

	unused, err := env.app.UnusedTags(ctx, "user-1")
	if err != nil {
		t.Fatalf("UnusedTags: %v", err)
	}
	if len(unused) != 0 {
		t.Fatalf("unused = %v, want none while linked", unused)
	}

	// Unlink vintage from the only item that uses it.
	err = env.app.UpdateItem(ctx, "user-1", id, domain.ItemUpdate{
		Name:         "Sneaker",
		Seasons:      []string{"summer"},
		PrimaryColor: "black",
		Category:     "Shoes",
		DeletedTags:  []string{"vintage"},
		ImageKeys:    []string{"uploads/test/Sneaker.jpg"},
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	unused, err = env.app.UnusedTags(ctx, "user-1")
	if err != nil {
		t.Fatalf("UnusedTags: %v", err)
	}
	if len(unused) != 1 || unused[0].Name != "vintage" {
		t.Fatalf("unused = %v, want vintage", unused)
	}

	removed, err := env.app.DeleteUnusedTags(ctx, "user-1")
	if err != nil {
		t.Fatalf("DeleteUnusedTags: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	tags, err := env.app.Tags(ctx, "user-1")
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(tags) != 1 || tags[0] != "casual" {
		t.Fatalf("tags = %v, want only casual", tags)
	}
}

func TestColorsUnion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "user-1", "Shoes")
	env.mustItem(t, "user-1", domain.NewItem{
		Name: "Sneaker", Category: "Shoes",
		PrimaryColor: "red", SecondaryColors: []string{"white", "black"},
	})
	env.mustItem(t, "user-1", domain.NewItem{
		Name: "Boot", Category: "Shoes",
		PrimaryColor: "black",
	})

	colors, err := env.app.Colors(ctx, "user-1")
	if err != nil {
		t.Fatalf("Colors: %v", err)
	}
	want := []string{"black", "red", "white"}
	if len(colors) != len(want) {
		t.Fatalf("colors = %v, want %v", colors, want)
	}
	for i := range want {
		if colors[i] != want[i] {
			t.Fatalf("colors = %v, want %v", colors, want)
		}
	}
}
