package validation

import (
	"strings"

	"github.com/yahrour/digital-closet/pkg/domain"
)

// NewItemInput is the payload of an item create.
type NewItemInput struct {
	Name            string   `json:"name" validate:"required,max=100"`
	Seasons         []string `json:"seasons" validate:"required,min=1,unique,dive,oneof=spring summer fall winter"`
	PrimaryColor    string   `json:"primaryColor" validate:"required,oneof=black white gray beige brown red orange yellow green blue purple pink multicolor"`
	SecondaryColors []string `json:"secondaryColors" validate:"omitempty,unique,dive,oneof=black white gray beige brown red orange yellow green blue purple pink multicolor"`
	Brand           string   `json:"brand" validate:"max=100"`
	Category        string   `json:"category" validate:"required,max=50"`
	Tags            []string `json:"tags" validate:"omitempty,dive,required,max=50"`
	ImageKeys       []string `json:"imageKeys" validate:"required,min=1,max=2,dive,required"`
}

// ToDomain converts the payload into a create command, trimming whitespace.
func (in NewItemInput) ToDomain() domain.NewItem {
	return domain.NewItem{
		Name:            strings.TrimSpace(in.Name),
		Seasons:         in.Seasons,
		PrimaryColor:    in.PrimaryColor,
		SecondaryColors: in.SecondaryColors,
		Brand:           strings.TrimSpace(in.Brand),
		Category:        strings.TrimSpace(in.Category),
		Tags:            trimAll(in.Tags),
		ImageKeys:       in.ImageKeys,
	}
}

// EditItemInput is the payload of an item edit. It fully replaces the item's
// mutable fields; deletedTags lists tag names to unlink from this item.
type EditItemInput struct {
	Name             string   `json:"name" validate:"required,max=100"`
	Seasons          []string `json:"seasons" validate:"required,min=1,unique,dive,oneof=spring summer fall winter"`
	PrimaryColor     string   `json:"primaryColor" validate:"required,oneof=black white gray beige brown red orange yellow green blue purple pink multicolor"`
	SecondaryColors  []string `json:"secondaryColors" validate:"omitempty,unique,dive,oneof=black white gray beige brown red orange yellow green blue purple pink multicolor"`
	Brand            string   `json:"brand" validate:"max=100"`
	Category         string   `json:"category" validate:"required,max=50"`
	Tags             []string `json:"tags" validate:"omitempty,dive,required,max=50"`
	DeletedTags      []string `json:"deletedTags" validate:"omitempty,dive,required"`
	ImageKeys        []string `json:"imageKeys" validate:"required,min=1,max=2,dive,required"`
	DeletedImageKeys []string `json:"deletedImageKeys" validate:"omitempty,dive,required"`
}

// ToDomain converts the payload into an update command.
func (in EditItemInput) ToDomain() domain.ItemUpdate {
	return domain.ItemUpdate{
		Name:             strings.TrimSpace(in.Name),
		Seasons:          in.Seasons,
		PrimaryColor:     in.PrimaryColor,
		SecondaryColors:  in.SecondaryColors,
		Brand:            strings.TrimSpace(in.Brand),
		Category:         strings.TrimSpace(in.Category),
		Tags:             trimAll(in.Tags),
		DeletedTags:      trimAll(in.DeletedTags),
		ImageKeys:        in.ImageKeys,
		DeletedImageKeys: in.DeletedImageKeys,
	}
}

// CategoryNameInput names a category on create or rename.
type CategoryNameInput struct {
	Name string `json:"name" validate:"required,max=50"`
}

// NewOutfitInput is the payload of an outfit create.
type NewOutfitInput struct {
	Name    string  `json:"name" validate:"required,max=100"`
	Note    string  `json:"note" validate:"max=500"`
	ItemIDs []int64 `json:"itemIds" validate:"required,min=1,unique,dive,gt=0"`
}

// ToDomain converts the payload into a create command.
func (in NewOutfitInput) ToDomain() domain.NewOutfit {
	return domain.NewOutfit{
		Name:    strings.TrimSpace(in.Name),
		Note:    strings.TrimSpace(in.Note),
		ItemIDs: in.ItemIDs,
	}
}

// EditOutfitInput is the payload of an outfit edit. itemIds is the full new
// selection; items linked before the edit and absent from it are unlinked.
type EditOutfitInput struct {
	Name    string  `json:"name" validate:"required,max=100"`
	Note    string  `json:"note" validate:"max=500"`
	ItemIDs []int64 `json:"itemIds" validate:"required,min=1,unique,dive,gt=0"`
}

// UploadRequestInput asks for presigned upload URLs for the named files.
type UploadRequestInput struct {
	FileNames []string `json:"fileNames" validate:"required,min=1,max=2,dive,required"`
}

func trimAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
