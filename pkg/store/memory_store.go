package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yahrour/digital-closet/pkg/domain"
)

// MemoryStore keeps the whole data model in memory. It mirrors the SQL
// semantics of GormStore (case-folded name uniqueness, window totals,
// filter predicates) so app-level behavior can be tested without Postgres.
type MemoryStore struct {
	mu         sync.Mutex
	nextID     int64
	categories map[int64]*memCategory
	tags       map[int64]*memTag
	items      map[int64]*memItem
	itemTags   map[[2]int64]struct{} // [itemID, tagID]
	outfits    map[int64]*memOutfit
	outfitItem map[[2]int64]struct{} // [outfitID, itemID]
}

type memCategory struct {
	id     int64
	userID string
	name   string
}

type memTag struct {
	id     int64
	userID string
	name   string
}

type memItem struct {
	id              int64
	userID          string
	name            string
	seasons         []string
	primaryColor    string
	secondaryColors []string
	brand           string
	imageKeys       []string
	categoryID      *int64
	createdAt       time.Time
}

type memOutfit struct {
	id        int64
	userID    string
	name      string
	note      string
	createdAt time.Time
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories: make(map[int64]*memCategory),
		tags:       make(map[int64]*memTag),
		items:      make(map[int64]*memItem),
		itemTags:   make(map[[2]int64]struct{}),
		outfits:    make(map[int64]*memOutfit),
		outfitItem: make(map[[2]int64]struct{}),
	}
}

func (s *MemoryStore) newID() int64 {
	s.nextID++
	return s.nextID
}

// CreateItem mirrors the transactional create: category resolution, item
// insert with lowered name, tag upsert, junction linking.
func (s *MemoryStore) CreateItem(_ context.Context, userID string, in domain.NewItem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	catID, ok := s.findCategoryLocked(userID, in.Category)
	if !ok {
		return 0, ErrCategoryNotFound
	}
	name := strings.ToLower(in.Name)
	for _, item := range s.items {
		if item.userID == userID && item.name == name {
			return 0, fmt.Errorf("%w: uniq_items_user_lower_name", ErrDuplicateName)
		}
	}
	item := &memItem{
		id:              s.newID(),
		userID:          userID,
		name:            name,
		seasons:         append([]string(nil), in.Seasons...),
		primaryColor:    in.PrimaryColor,
		secondaryColors: append([]string(nil), in.SecondaryColors...),
		brand:           strings.ToLower(in.Brand),
		imageKeys:       append([]string(nil), in.ImageKeys...),
		categoryID:      &catID,
		createdAt:       time.Now().UTC(),
	}
	s.items[item.id] = item
	s.upsertAndLinkTagsLocked(userID, item.id, in.Tags)
	return item.id, nil
}

// ListItems applies the filter predicates, orders newest first, and returns
// the requested page plus the window total.
func (s *MemoryStore) ListItems(_ context.Context, userID string, filter domain.ItemFilter, limit, offset int) ([]domain.Item, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]*memItem, 0)
	for _, item := range s.items {
		if item.userID != userID || !s.matchesLocked(item, filter) {
			continue
		}
		matched = append(matched, item)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].createdAt.Equal(matched[j].createdAt) {
			return matched[i].createdAt.After(matched[j].createdAt)
		}
		return matched[i].id > matched[j].id
	})
	total := len(matched)
	if offset >= len(matched) {
		// An empty page carries no window value, so the total is 0.
		return []domain.Item{}, 0, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	out := make([]domain.Item, 0, len(matched))
	for _, item := range matched {
		out = append(out, s.itemViewLocked(item))
	}
	return out, total, nil
}

// GetItem returns the item with its tag list, or ok=false when absent or
// owned by someone else.
func (s *MemoryStore) GetItem(_ context.Context, userID string, id int64) (domain.Item, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok || item.userID != userID {
		return domain.Item{}, false, nil
	}
	return s.itemViewLocked(item), true, nil
}

// UpdateItem replaces the mutable fields, links the new tags, and unlinks
// only the deleted tag names.
func (s *MemoryStore) UpdateItem(_ context.Context, userID string, id int64, in domain.ItemUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok || item.userID != userID {
		return ErrNotFound
	}
	catID, ok := s.findCategoryLocked(userID, in.Category)
	if !ok {
		return ErrCategoryNotFound
	}
	name := strings.ToLower(in.Name)
	for _, other := range s.items {
		if other.id != id && other.userID == userID && other.name == name {
			return fmt.Errorf("%w: uniq_items_user_lower_name", ErrDuplicateName)
		}
	}
	item.name = name
	item.seasons = append([]string(nil), in.Seasons...)
	item.primaryColor = in.PrimaryColor
	item.secondaryColors = append([]string(nil), in.SecondaryColors...)
	item.brand = strings.ToLower(in.Brand)
	item.imageKeys = append([]string(nil), in.ImageKeys...)
	item.categoryID = &catID
	s.upsertAndLinkTagsLocked(userID, id, in.Tags)
	for _, deleted := range in.DeletedTags {
		lowered := strings.ToLower(deleted)
		for _, tag := range s.tags {
			if tag.userID == userID && tag.name == lowered {
				delete(s.itemTags, [2]int64{id, tag.id})
			}
		}
	}
	return nil
}

// DeleteItem removes the row and cascades its junction rows.
func (s *MemoryStore) DeleteItem(_ context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok || item.userID != userID {
		return ErrNotFound
	}
	delete(s.items, id)
	for key := range s.itemTags {
		if key[0] == id {
			delete(s.itemTags, key)
		}
	}
	for key := range s.outfitItem {
		if key[1] == id {
			delete(s.outfitItem, key)
		}
	}
	return nil
}

// ListCategories returns category names sorted by name.
func (s *MemoryStore) ListCategories(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0)
	for _, cat := range s.categories {
		if cat.userID == userID {
			names = append(names, cat.name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListCategoryUsage returns a page of categories with item counts and the
// window total, ordered by name.
func (s *MemoryStore) ListCategoryUsage(_ context.Context, userID, namePattern string, limit, offset int) ([]domain.CategoryUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pattern := strings.ToLower(namePattern)
	matched := make([]*memCategory, 0)
	for _, cat := range s.categories {
		if cat.userID != userID {
			continue
		}
		if pattern != "" && !strings.Contains(strings.ToLower(cat.name), pattern) {
			continue
		}
		matched = append(matched, cat)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].name < matched[j].name })
	total := len(matched)
	if offset >= len(matched) {
		return []domain.CategoryUsage{}, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	out := make([]domain.CategoryUsage, 0, len(matched))
	for _, cat := range matched {
		count := 0
		for _, item := range s.items {
			if item.categoryID != nil && *item.categoryID == cat.id {
				count++
			}
		}
		out = append(out, domain.CategoryUsage{
			ID:         cat.id,
			UserID:     cat.userID,
			Name:       cat.name,
			UsageCount: count,
			Total:      total,
		})
	}
	return out, nil
}

// CreateCategory inserts a category with lowered name, unique per user.
func (s *MemoryStore) CreateCategory(_ context.Context, userID, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lowered := strings.ToLower(name)
	for _, cat := range s.categories {
		if cat.userID == userID && cat.name == lowered {
			return 0, fmt.Errorf("%w: uniq_categories_user_lower_name", ErrDuplicateName)
		}
	}
	cat := &memCategory{id: s.newID(), userID: userID, name: lowered}
	s.categories[cat.id] = cat
	return cat.id, nil
}

// GetCategory fetches a category by id for ownership and no-op checks.
func (s *MemoryStore) GetCategory(_ context.Context, userID string, id int64) (domain.Category, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, ok := s.categories[id]
	if !ok || cat.userID != userID {
		return domain.Category{}, false, nil
	}
	return domain.Category{ID: cat.id, UserID: cat.userID, Name: cat.name}, true, nil
}

// RenameCategory updates the name, lowered, unique per user.
func (s *MemoryStore) RenameCategory(_ context.Context, userID string, id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, ok := s.categories[id]
	if !ok || cat.userID != userID {
		return ErrNotFound
	}
	lowered := strings.ToLower(name)
	for _, other := range s.categories {
		if other.id != id && other.userID == userID && other.name == lowered {
			return fmt.Errorf("%w: uniq_categories_user_lower_name", ErrDuplicateName)
		}
	}
	cat.name = lowered
	return nil
}

// DeleteCategory removes the category; items keep a dangling nil reference.
func (s *MemoryStore) DeleteCategory(_ context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, ok := s.categories[id]
	if !ok || cat.userID != userID {
		return ErrNotFound
	}
	delete(s.categories, id)
	for _, item := range s.items {
		if item.categoryID != nil && *item.categoryID == id {
			item.categoryID = nil
		}
	}
	return nil
}

// ListTags returns tag names sorted by name.
func (s *MemoryStore) ListTags(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0)
	for _, tag := range s.tags {
		if tag.userID == userID {
			names = append(names, tag.name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListUnusedTags returns tags with no junction row.
func (s *MemoryStore) ListUnusedTags(_ context.Context, userID string) ([]domain.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Tag, 0)
	for _, tag := range s.tags {
		if tag.userID != userID || s.tagUsedLocked(tag.id) {
			continue
		}
		out = append(out, domain.Tag{ID: tag.id, Name: tag.name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DeleteUnusedTags recomputes the unused set at delete time.
func (s *MemoryStore) DeleteUnusedTags(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, tag := range s.tags {
		if tag.userID != userID || s.tagUsedLocked(id) {
			continue
		}
		delete(s.tags, id)
		deleted++
	}
	return deleted, nil
}

// ListColors returns the distinct sorted union of primary and secondary
// colors across the user's items.
func (s *MemoryStore) ListColors(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	for _, item := range s.items {
		if item.userID != userID {
			continue
		}
		seen[item.primaryColor] = struct{}{}
		for _, color := range item.secondaryColors {
			seen[color] = struct{}{}
		}
	}
	colors := make([]string, 0, len(seen))
	for color := range seen {
		colors = append(colors, color)
	}
	sort.Strings(colors)
	return colors, nil
}

// CreateOutfit inserts the outfit and its junction rows. Every referenced
// item must belong to the caller.
func (s *MemoryStore) CreateOutfit(_ context.Context, userID string, in domain.NewOutfit) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ownsItemsLocked(userID, in.ItemIDs) {
		return 0, ErrNotFound
	}
	outfit := &memOutfit{
		id:        s.newID(),
		userID:    userID,
		name:      in.Name,
		note:      in.Note,
		createdAt: time.Now().UTC(),
	}
	s.outfits[outfit.id] = outfit
	for _, itemID := range in.ItemIDs {
		s.outfitItem[[2]int64{outfit.id, itemID}] = struct{}{}
	}
	return outfit.id, nil
}

// ListOutfits returns a page of outfits, newest first, with item aggregation
// and window total.
func (s *MemoryStore) ListOutfits(_ context.Context, userID string, limit, offset int) ([]domain.Outfit, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]*memOutfit, 0)
	for _, outfit := range s.outfits {
		if outfit.userID == userID {
			matched = append(matched, outfit)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].createdAt.Equal(matched[j].createdAt) {
			return matched[i].createdAt.After(matched[j].createdAt)
		}
		return matched[i].id > matched[j].id
	})
	total := len(matched)
	if offset >= len(matched) {
		// An empty page carries no window value, so the total is 0.
		return []domain.Outfit{}, 0, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	out := make([]domain.Outfit, 0, len(matched))
	for _, outfit := range matched {
		out = append(out, s.outfitViewLocked(outfit))
	}
	return out, total, nil
}

// GetOutfit returns a single outfit with its item aggregation.
func (s *MemoryStore) GetOutfit(_ context.Context, userID string, id int64) (domain.Outfit, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outfit, ok := s.outfits[id]
	if !ok || outfit.userID != userID {
		return domain.Outfit{}, false, nil
	}
	return s.outfitViewLocked(outfit), true, nil
}

// OutfitItemIDs returns the ids of the outfit's items, sorted.
func (s *MemoryStore) OutfitItemIDs(_ context.Context, userID string, id int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outfit, ok := s.outfits[id]
	if !ok || outfit.userID != userID {
		return nil, ErrNotFound
	}
	ids := make([]int64, 0)
	for key := range s.outfitItem {
		if key[0] == id {
			ids = append(ids, key[1])
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// UpdateOutfit updates the row, links the new selection, and unlinks only
// the removed ids.
func (s *MemoryStore) UpdateOutfit(_ context.Context, userID string, id int64, in domain.OutfitUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	outfit, ok := s.outfits[id]
	if !ok || outfit.userID != userID {
		return ErrNotFound
	}
	if !s.ownsItemsLocked(userID, in.ItemIDs) {
		return ErrNotFound
	}
	outfit.name = in.Name
	outfit.note = in.Note
	for _, itemID := range in.ItemIDs {
		s.outfitItem[[2]int64{id, itemID}] = struct{}{}
	}
	for _, itemID := range in.RemovedItemIDs {
		delete(s.outfitItem, [2]int64{id, itemID})
	}
	return nil
}

// DeleteOutfit removes the outfit and its junction rows.
func (s *MemoryStore) DeleteOutfit(_ context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	outfit, ok := s.outfits[id]
	if !ok || outfit.userID != userID {
		return ErrNotFound
	}
	delete(s.outfits, id)
	for key := range s.outfitItem {
		if key[0] == id {
			delete(s.outfitItem, key)
		}
	}
	return nil
}

func (s *MemoryStore) ownsItemsLocked(userID string, itemIDs []int64) bool {
	for _, id := range itemIDs {
		item, ok := s.items[id]
		if !ok || item.userID != userID {
			return false
		}
	}
	return true
}

func (s *MemoryStore) findCategoryLocked(userID, name string) (int64, bool) {
	lowered := strings.ToLower(name)
	for _, cat := range s.categories {
		if cat.userID == userID && strings.ToLower(cat.name) == lowered {
			return cat.id, true
		}
	}
	return 0, false
}

func (s *MemoryStore) upsertAndLinkTagsLocked(userID string, itemID int64, names []string) {
	for _, name := range names {
		lowered := strings.ToLower(name)
		var tagID int64
		for _, tag := range s.tags {
			if tag.userID == userID && tag.name == lowered {
				tagID = tag.id
				break
			}
		}
		if tagID == 0 {
			tag := &memTag{id: s.newID(), userID: userID, name: lowered}
			s.tags[tag.id] = tag
			tagID = tag.id
		}
		s.itemTags[[2]int64{itemID, tagID}] = struct{}{}
	}
}

func (s *MemoryStore) tagUsedLocked(tagID int64) bool {
	for key := range s.itemTags {
		if key[1] == tagID {
			return true
		}
	}
	return false
}

func (s *MemoryStore) matchesLocked(item *memItem, filter domain.ItemFilter) bool {
	if len(filter.Categories) > 0 {
		catName := ""
		if item.categoryID != nil {
			if cat, ok := s.categories[*item.categoryID]; ok {
				catName = strings.ToLower(cat.name)
			}
		}
		if !containsFold(filter.Categories, catName) {
			return false
		}
	}
	if len(filter.Seasons) > 0 && !overlaps(filter.Seasons, item.seasons) {
		return false
	}
	if len(filter.Colors) > 0 {
		if !contains(filter.Colors, item.primaryColor) && !overlaps(filter.Colors, item.secondaryColors) {
			return false
		}
	}
	if len(filter.Tags) > 0 {
		found := false
		for _, want := range filter.Tags {
			lowered := strings.ToLower(want)
			for _, tag := range s.tags {
				if tag.userID != item.userID || tag.name != lowered {
					continue
				}
				if _, linked := s.itemTags[[2]int64{item.id, tag.id}]; linked {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s *MemoryStore) itemViewLocked(item *memItem) domain.Item {
	category := ""
	if item.categoryID != nil {
		if cat, ok := s.categories[*item.categoryID]; ok {
			category = cat.name
		}
	}
	tags := make([]domain.Tag, 0)
	for key := range s.itemTags {
		if key[0] != item.id {
			continue
		}
		if tag, ok := s.tags[key[1]]; ok {
			tags = append(tags, domain.Tag{ID: tag.id, Name: tag.name})
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return domain.Item{
		ID:              item.id,
		UserID:          item.userID,
		Name:            item.name,
		Seasons:         append([]string(nil), item.seasons...),
		PrimaryColor:    item.primaryColor,
		SecondaryColors: append([]string(nil), item.secondaryColors...),
		Brand:           item.brand,
		ImageKeys:       append([]string(nil), item.imageKeys...),
		Category:        category,
		Tags:            tags,
		CreatedAt:       item.createdAt,
	}
}

func (s *MemoryStore) outfitViewLocked(outfit *memOutfit) domain.Outfit {
	refs := make([]domain.OutfitItemRef, 0)
	for key := range s.outfitItem {
		if key[0] != outfit.id {
			continue
		}
		item, ok := s.items[key[1]]
		if !ok {
			continue
		}
		imageKey := ""
		if len(item.imageKeys) > 0 {
			imageKey = item.imageKeys[0]
		}
		refs = append(refs, domain.OutfitItemRef{ID: item.id, Name: item.name, ImageKey: imageKey})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return domain.Outfit{
		ID:        outfit.id,
		UserID:    outfit.userID,
		Name:      outfit.name,
		Note:      outfit.note,
		Items:     refs,
		CreatedAt: outfit.createdAt,
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.ToLower(v) == want {
			return true
		}
	}
	return false
}

func overlaps(values, against []string) bool {
	for _, v := range values {
		if contains(against, v) {
			return true
		}
	}
	return false
}
