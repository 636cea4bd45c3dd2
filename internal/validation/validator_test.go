package validation

import (
	"errors"
	"testing"
)

func TestValidateNewItem(t *testing.T) {
	v := New()
	in := NewItemInput{
		Name:         "Red Sneaker",
		Seasons:      []string{"spring", "summer"},
		PrimaryColor: "red",
		Category:     "Shoes",
		ImageKeys:    []string{"uploads/abc/front.jpg"},
	}
	if err := v.Validate(in); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateReportsFieldsByJSONName(t *testing.T) {
	v := New()
	in := NewItemInput{
		Name:         "",
		Seasons:      []string{"monsoon"},
		PrimaryColor: "neon",
		Category:     "Shoes",
		ImageKeys:    []string{"a.jpg", "b.jpg", "c.jpg"},
	}
	err := v.Validate(in)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var fields FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("err = %T, want FieldErrors", err)
	}
	for _, want := range []string{"name", "primaryColor", "imageKeys"} {
		if _, ok := fields[want]; !ok {
			t.Errorf("missing field error for %q: %v", want, fields)
		}
	}
	if _, ok := fields["Name"]; ok {
		t.Error("field errors should use JSON names, got struct name Name")
	}
}

func TestValidateOutfitItemIDs(t *testing.T) {
	v := New()
	if err := v.Validate(NewOutfitInput{Name: "Rainy day", ItemIDs: []int64{1, 2}}); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	err := v.Validate(NewOutfitInput{Name: "Rainy day", ItemIDs: nil})
	var fields FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("err = %T, want FieldErrors", err)
	}
	if _, ok := fields["itemIds"]; !ok {
		t.Fatalf("missing itemIds error: %v", fields)
	}
	err = v.Validate(NewOutfitInput{Name: "Rainy day", ItemIDs: []int64{1, 1}})
	if err == nil {
		t.Fatal("expected error for duplicate item ids")
	}
}

func TestToDomainTrims(t *testing.T) {
	in := NewItemInput{
		Name:         "  Red Sneaker ",
		Seasons:      []string{"spring"},
		PrimaryColor: "red",
		Category:     " Shoes ",
		Tags:         []string{" casual ", "", "Sport"},
		ImageKeys:    []string{"k1"},
	}
	out := in.ToDomain()
	if out.Name != "Red Sneaker" {
		t.Fatalf("Name = %q", out.Name)
	}
	if out.Category != "Shoes" {
		t.Fatalf("Category = %q", out.Category)
	}
	if len(out.Tags) != 2 || out.Tags[0] != "casual" || out.Tags[1] != "Sport" {
		t.Fatalf("Tags = %v", out.Tags)
	}
}
