package store

import (
	"context"
	"errors"

	"github.com/yahrour/digital-closet/pkg/domain"
)

var (
	// ErrDuplicateName indicates a unique violation on a per-user name.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrInvalidUser indicates a foreign key violation on the owning user.
	ErrInvalidUser = errors.New("invalid user")
	// ErrCategoryNotFound indicates the referenced category does not exist
	// for this user.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrNotFound indicates the entity is absent or not owned by the caller.
	ErrNotFound = errors.New("not found")
)

// Store defines persistence operations for items, categories, tags, and
// outfits. Every operation filters by the owning user id; multi-statement
// writes run inside a single transaction.
type Store interface {
	// items
	CreateItem(ctx context.Context, userID string, in domain.NewItem) (int64, error)
	ListItems(ctx context.Context, userID string, filter domain.ItemFilter, limit, offset int) ([]domain.Item, int, error)
	GetItem(ctx context.Context, userID string, id int64) (domain.Item, bool, error)
	UpdateItem(ctx context.Context, userID string, id int64, in domain.ItemUpdate) error
	DeleteItem(ctx context.Context, userID string, id int64) error

	// categories
	ListCategories(ctx context.Context, userID string) ([]string, error)
	ListCategoryUsage(ctx context.Context, userID, namePattern string, limit, offset int) ([]domain.CategoryUsage, error)
	CreateCategory(ctx context.Context, userID, name string) (int64, error)
	GetCategory(ctx context.Context, userID string, id int64) (domain.Category, bool, error)
	RenameCategory(ctx context.Context, userID string, id int64, name string) error
	DeleteCategory(ctx context.Context, userID string, id int64) error

	// tags
	ListTags(ctx context.Context, userID string) ([]string, error)
	ListUnusedTags(ctx context.Context, userID string) ([]domain.Tag, error)
	DeleteUnusedTags(ctx context.Context, userID string) (int64, error)

	// colors
	ListColors(ctx context.Context, userID string) ([]string, error)

	// outfits
	CreateOutfit(ctx context.Context, userID string, in domain.NewOutfit) (int64, error)
	ListOutfits(ctx context.Context, userID string, limit, offset int) ([]domain.Outfit, int, error)
	GetOutfit(ctx context.Context, userID string, id int64) (domain.Outfit, bool, error)
	OutfitItemIDs(ctx context.Context, userID string, id int64) ([]int64, error)
	UpdateOutfit(ctx context.Context, userID string, id int64, in domain.OutfitUpdate) error
	DeleteOutfit(ctx context.Context, userID string, id int64) error
}
