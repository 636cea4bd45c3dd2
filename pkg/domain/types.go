package domain

import "time"

type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonFall   Season = "fall"
	SeasonWinter Season = "winter"
)

type Color string

const (
	ColorBlack      Color = "black"
	ColorWhite      Color = "white"
	ColorGray       Color = "gray"
	ColorBeige      Color = "beige"
	ColorBrown      Color = "brown"
	ColorRed        Color = "red"
	ColorOrange     Color = "orange"
	ColorYellow     Color = "yellow"
	ColorGreen      Color = "green"
	ColorBlue       Color = "blue"
	ColorPurple     Color = "purple"
	ColorPink       Color = "pink"
	ColorMulticolor Color = "multicolor"
)

// Uncategorized is what read paths surface for items whose category was
// deleted out from under them.
const Uncategorized = "Uncategorized"

// Tag is a free-form per-user label, linked to items many-to-many.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Category is a per-user single-select classification for items.
type Category struct {
	ID     int64  `json:"id"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// CategoryUsage is a category row joined with the number of items using it,
// plus the window total for pagination.
type CategoryUsage struct {
	ID         int64  `json:"id"`
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	UsageCount int    `json:"usageCount"`
	Total      int    `json:"total"`
}

// Item is a garment record. Category is empty when the referenced category
// has been deleted.
type Item struct {
	ID              int64     `json:"id"`
	UserID          string    `json:"userId"`
	Name            string    `json:"name"`
	Seasons         []string  `json:"seasons"`
	PrimaryColor    string    `json:"primaryColor"`
	SecondaryColors []string  `json:"secondaryColors"`
	Brand           string    `json:"brand"`
	ImageKeys       []string  `json:"imageKeys"`
	Category        string    `json:"category"`
	Tags            []Tag     `json:"tags"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewItem carries the fields of an item create. Image keys reference objects
// the caller already uploaded.
type NewItem struct {
	Name            string
	Seasons         []string
	PrimaryColor    string
	SecondaryColors []string
	Brand           string
	Category        string
	Tags            []string
	ImageKeys       []string
}

// ItemUpdate is a full replacement of an item's mutable fields. DeletedTags
// are unlinked from this item only, never removed globally. DeletedImageKeys
// lists stored objects the caller replaced; they are removed from storage
// after the row update commits.
type ItemUpdate struct {
	Name             string
	Seasons          []string
	PrimaryColor     string
	SecondaryColors  []string
	Brand            string
	Category         string
	Tags             []string
	DeletedTags      []string
	ImageKeys        []string
	DeletedImageKeys []string
}

// ItemFilter restricts an item listing. A nil slice means no restriction on
// that dimension; dimensions are AND'd, values within a dimension are OR'd.
// Colors match the primary color or any secondary color.
type ItemFilter struct {
	Categories []string
	Seasons    []string
	Colors     []string
	Tags       []string
}

// OutfitItemRef is the per-item slice of an outfit aggregate: the item id,
// its name, and its first image key (empty when none is recorded). ImageURL
// is a short-lived presigned URL filled in on detail reads only.
type OutfitItemRef struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ImageKey string `json:"imageKey"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Outfit is a named, annotated collection of items. CoverURLs holds
// short-lived presigned URLs for up to three representative item images and
// is populated on list reads only.
type Outfit struct {
	ID        int64           `json:"id"`
	UserID    string          `json:"userId"`
	Name      string          `json:"name"`
	Note      string          `json:"note"`
	Items     []OutfitItemRef `json:"items"`
	CoverURLs []string        `json:"coverUrls,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewOutfit carries the fields of an outfit create.
type NewOutfit struct {
	Name    string
	Note    string
	ItemIDs []int64
}

// OutfitUpdate replaces an outfit's name/note and item selection.
// RemovedItemIDs lists items that were linked before the edit and are no
// longer selected; only those junction rows are deleted.
type OutfitUpdate struct {
	Name           string
	Note           string
	ItemIDs        []int64
	RemovedItemIDs []int64
}
