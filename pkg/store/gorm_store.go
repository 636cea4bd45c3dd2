package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yahrour/digital-closet/pkg/domain"
)

const migrateLockID int64 = 52815281

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB, runs auto-migrations under an advisory lock,
// and installs the functional unique indexes and foreign keys the models
// cannot express.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&CategoryModel{}, &TagModel{}, &ItemModel{},
			&ItemTagModel{}, &OutfitModel{}, &OutfitItemModel{},
		); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return ensureConstraints(tx)
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrateLockID).Error; err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		return fn(tx)
	})
}

func ensureConstraints(tx *gorm.DB) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_categories_user_lower_name ON categories (user_id, lower(name))`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_tags_user_lower_name ON tags (user_id, lower(name))`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_items_user_lower_name ON items (user_id, lower(name))`,
		`DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.table_constraints
				WHERE table_name = 'items' AND constraint_name = 'items_category_id_fkey'
			) THEN
				ALTER TABLE items ADD CONSTRAINT items_category_id_fkey
					FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE SET NULL;
			END IF;
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.table_constraints
				WHERE table_name = 'item_tags' AND constraint_name = 'item_tags_item_id_fkey'
			) THEN
				ALTER TABLE item_tags ADD CONSTRAINT item_tags_item_id_fkey
					FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE;
				ALTER TABLE item_tags ADD CONSTRAINT item_tags_tag_id_fkey
					FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE;
			END IF;
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.table_constraints
				WHERE table_name = 'outfit_items' AND constraint_name = 'outfit_items_outfit_id_fkey'
			) THEN
				ALTER TABLE outfit_items ADD CONSTRAINT outfit_items_outfit_id_fkey
					FOREIGN KEY (outfit_id) REFERENCES outfits(id) ON DELETE CASCADE;
				ALTER TABLE outfit_items ADD CONSTRAINT outfit_items_item_id_fkey
					FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE;
			END IF;
		END $$`,
	}
	for _, stmt := range stmts {
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure constraints: %w", err)
		}
	}
	return nil
}

// Ping verifies connectivity on the underlying pool.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateItem inserts the item row, lazily creates its tags, and links the
// junction rows, all in one transaction. The category is resolved by
// case-folded name inside the transaction.
func (s *GormStore) CreateItem(ctx context.Context, userID string, in domain.NewItem) (int64, error) {
	var itemID int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catID, ok, err := resolveCategory(tx, userID, in.Category)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCategoryNotFound
		}
		item := ItemModel{
			UserID:          userID,
			Name:            strings.ToLower(in.Name),
			Seasons:         toJSON(in.Seasons),
			PrimaryColor:    in.PrimaryColor,
			SecondaryColors: toJSON(in.SecondaryColors),
			Brand:           strings.ToLower(in.Brand),
			ImageKeys:       toJSON(in.ImageKeys),
			CategoryID:      &catID,
			CreatedAt:       time.Now().UTC(),
		}
		if err := tx.Create(&item).Error; err != nil {
			return mapPGError(err)
		}
		if err := upsertAndLinkTags(tx, userID, item.ID, in.Tags); err != nil {
			return mapPGError(err)
		}
		itemID = item.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return itemID, nil
}

const itemSelect = `
	SELECT i.id, i.user_id, i.name, i.seasons, i.primary_color, i.secondary_colors,
		i.brand, i.image_keys, COALESCE(c.name, '') AS category, i.created_at,
		COUNT(*) OVER () AS total,
		COALESCE(
			json_agg(json_build_object('id', t.id, 'name', t.name) ORDER BY t.name)
				FILTER (WHERE t.id IS NOT NULL),
			'[]'
		) AS tags
	FROM items i
	LEFT JOIN categories c ON c.id = i.category_id
	LEFT JOIN item_tags it ON it.item_id = i.id
	LEFT JOIN tags t ON t.id = it.tag_id
	WHERE i.user_id = ?`

type itemRow struct {
	ID              int64
	UserID          string
	Name            string
	Seasons         datatypes.JSON
	PrimaryColor    string
	SecondaryColors datatypes.JSON
	Brand           string
	ImageKeys       datatypes.JSON
	Category        string
	CreatedAt       time.Time
	Total           int
	Tags            datatypes.JSON
}

// ListItems returns a page of the user's items, newest first, each carrying
// its tag list and the window total of all rows matching the filter.
func (s *GormStore) ListItems(ctx context.Context, userID string, filter domain.ItemFilter, limit, offset int) ([]domain.Item, int, error) {
	query := itemSelect
	args := []any{userID}
	if len(filter.Categories) > 0 {
		query += ` AND lower(c.name) = ANY (SELECT lower(x.name) FROM unnest(?::text[]) AS x(name))`
		args = append(args, filter.Categories)
	}
	if len(filter.Seasons) > 0 {
		query += ` AND jsonb_exists_any(i.seasons, ?::text[])`
		args = append(args, filter.Seasons)
	}
	if len(filter.Colors) > 0 {
		query += ` AND (i.primary_color = ANY(?::text[]) OR jsonb_exists_any(i.secondary_colors, ?::text[]))`
		args = append(args, filter.Colors, filter.Colors)
	}
	if len(filter.Tags) > 0 {
		query += ` AND EXISTS (
			SELECT 1 FROM item_tags fit
			JOIN tags ft ON ft.id = fit.tag_id
			WHERE fit.item_id = i.id
			AND ft.name = ANY (SELECT lower(x.name) FROM unnest(?::text[]) AS x(name))
		)`
		args = append(args, filter.Tags)
	}
	query += ` GROUP BY i.id, c.name ORDER BY i.created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var rows []itemRow
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	items := make([]domain.Item, 0, len(rows))
	total := 0
	for _, r := range rows {
		item, err := itemFromRow(r)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
		total = r.Total
	}
	return items, total, nil
}

// GetItem returns a single item with its aggregated tag list.
func (s *GormStore) GetItem(ctx context.Context, userID string, id int64) (domain.Item, bool, error) {
	query := itemSelect + ` AND i.id = ? GROUP BY i.id, c.name`
	var rows []itemRow
	if err := s.db.WithContext(ctx).Raw(query, userID, id).Scan(&rows).Error; err != nil {
		return domain.Item{}, false, err
	}
	if len(rows) == 0 {
		return domain.Item{}, false, nil
	}
	item, err := itemFromRow(rows[0])
	if err != nil {
		return domain.Item{}, false, err
	}
	return item, true, nil
}

// UpdateItem replaces the item's mutable fields, upserts and links the new
// tag set, and unlinks only the caller-supplied deleted tags. Tag rows are
// never deleted here.
func (s *GormStore) UpdateItem(ctx context.Context, userID string, id int64, in domain.ItemUpdate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catID, ok, err := resolveCategory(tx, userID, in.Category)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCategoryNotFound
		}
		res := tx.Exec(`
			UPDATE items
			SET name = lower(?), seasons = ?, primary_color = ?, secondary_colors = ?,
				brand = lower(?), image_keys = ?, category_id = ?
			WHERE id = ? AND user_id = ?`,
			in.Name, toJSON(in.Seasons), in.PrimaryColor, toJSON(in.SecondaryColors),
			in.Brand, toJSON(in.ImageKeys), catID, id, userID,
		)
		if res.Error != nil {
			return mapPGError(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := upsertAndLinkTags(tx, userID, id, in.Tags); err != nil {
			return mapPGError(err)
		}
		if len(in.DeletedTags) > 0 {
			if err := tx.Exec(`
				DELETE FROM item_tags
				WHERE item_id = ?
				AND tag_id IN (
					SELECT id FROM tags
					WHERE user_id = ?
					AND name = ANY (SELECT lower(x.name) FROM unnest(?::text[]) AS x(name))
				)`, id, userID, in.DeletedTags).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteItem removes the item row; junction rows go with it via cascade.
func (s *GormStore) DeleteItem(ctx context.Context, userID string, id int64) error {
	res := s.db.WithContext(ctx).Exec(`DELETE FROM items WHERE id = ? AND user_id = ?`, id, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCategories returns the user's category names ordered by name.
func (s *GormStore) ListCategories(ctx context.Context, userID string) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Raw(`SELECT name FROM categories WHERE user_id = ? ORDER BY name`, userID).
		Scan(&names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// ListCategoryUsage returns a page of categories with their item counts and
// the window total. A non-empty namePattern narrows by case-insensitive
// substring match.
func (s *GormStore) ListCategoryUsage(ctx context.Context, userID, namePattern string, limit, offset int) ([]domain.CategoryUsage, error) {
	query := `
		SELECT c.id, c.user_id, c.name, COUNT(i.id) AS usage_count, COUNT(*) OVER () AS total
		FROM items i
		RIGHT JOIN categories c ON i.category_id = c.id
		WHERE c.user_id = ?`
	args := []any{userID}
	if namePattern != "" {
		query += ` AND c.name ILIKE ?`
		args = append(args, "%"+namePattern+"%")
	}
	query += ` GROUP BY c.id, c.name ORDER BY c.name LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var usage []domain.CategoryUsage
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&usage).Error; err != nil {
		return nil, err
	}
	return usage, nil
}

// CreateCategory inserts a category with its name lower-cased.
func (s *GormStore) CreateCategory(ctx context.Context, userID, name string) (int64, error) {
	cat := CategoryModel{UserID: userID, Name: strings.ToLower(name)}
	if err := s.db.WithContext(ctx).Create(&cat).Error; err != nil {
		return 0, mapPGError(err)
	}
	return cat.ID, nil
}

// GetCategory fetches a category by id for ownership and no-op checks.
func (s *GormStore) GetCategory(ctx context.Context, userID string, id int64) (domain.Category, bool, error) {
	var model CategoryModel
	err := s.db.WithContext(ctx).First(&model, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Category{}, false, nil
		}
		return domain.Category{}, false, err
	}
	return domain.Category{ID: model.ID, UserID: model.UserID, Name: model.Name}, true, nil
}

// RenameCategory updates the category name, lower-cased.
func (s *GormStore) RenameCategory(ctx context.Context, userID string, id int64, name string) error {
	res := s.db.WithContext(ctx).
		Exec(`UPDATE categories SET name = lower(?) WHERE id = ? AND user_id = ?`, name, id, userID)
	if res.Error != nil {
		return mapPGError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory removes the category row. Items referencing it keep a NULL
// category via ON DELETE SET NULL.
func (s *GormStore) DeleteCategory(ctx context.Context, userID string, id int64) error {
	res := s.db.WithContext(ctx).Exec(`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTags returns the user's tag names ordered by name.
func (s *GormStore) ListTags(ctx context.Context, userID string) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Raw(`SELECT name FROM tags WHERE user_id = ? ORDER BY name`, userID).
		Scan(&names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// ListUnusedTags returns tags with no junction row (anti-join).
func (s *GormStore) ListUnusedTags(ctx context.Context, userID string) ([]domain.Tag, error) {
	var tags []domain.Tag
	err := s.db.WithContext(ctx).Raw(`
		SELECT t.id, t.name
		FROM tags t
		LEFT JOIN item_tags it ON it.tag_id = t.id
		WHERE t.user_id = ? AND it.tag_id IS NULL
		ORDER BY t.name`, userID).
		Scan(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// DeleteUnusedTags recomputes the unused set inside the delete statement so
// a stale earlier read cannot delete tags that gained a link in between.
func (s *GormStore) DeleteUnusedTags(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Exec(`
		DELETE FROM tags t
		WHERE t.user_id = ?
		AND NOT EXISTS (SELECT 1 FROM item_tags it WHERE it.tag_id = t.id)`, userID)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ListColors returns the distinct union of primary and secondary colors in
// use across the user's items, sorted.
func (s *GormStore) ListColors(ctx context.Context, userID string) ([]string, error) {
	var colors []string
	err := s.db.WithContext(ctx).Raw(`
		SELECT DISTINCT color FROM (
			SELECT user_id, primary_color AS color FROM items
			UNION ALL
			SELECT user_id, jsonb_array_elements_text(secondary_colors) AS color
			FROM items WHERE secondary_colors IS NOT NULL
		) colors
		WHERE user_id = ?
		ORDER BY color`, userID).
		Scan(&colors).Error
	if err != nil {
		return nil, err
	}
	return colors, nil
}

// CreateOutfit inserts the outfit row and its junction rows in one
// transaction.
func (s *GormStore) CreateOutfit(ctx context.Context, userID string, in domain.NewOutfit) (int64, error) {
	var outfitID int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		outfit := OutfitModel{
			UserID:    userID,
			Name:      in.Name,
			Note:      in.Note,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&outfit).Error; err != nil {
			return mapPGError(err)
		}
		if err := linkOutfitItems(tx, userID, outfit.ID, in.ItemIDs); err != nil {
			return mapPGError(err)
		}
		outfitID = outfit.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return outfitID, nil
}

const outfitSelect = `
	SELECT o.id, o.user_id, o.name, o.note, o.created_at,
		COUNT(*) OVER () AS total,
		COALESCE(
			json_agg(json_build_object('id', i.id, 'name', i.name, 'imageKey', COALESCE(i.image_keys->>0, '')) ORDER BY i.id)
				FILTER (WHERE i.id IS NOT NULL),
			'[]'
		) AS items
	FROM outfits o
	LEFT JOIN outfit_items oi ON oi.outfit_id = o.id
	LEFT JOIN items i ON i.id = oi.item_id
	WHERE o.user_id = ?`

type outfitRow struct {
	ID        int64
	UserID    string
	Name      string
	Note      string
	CreatedAt time.Time
	Total     int
	Items     datatypes.JSON
}

// ListOutfits returns a page of the user's outfits, newest first, each
// aggregating its item ids, names, and first image keys, plus the window
// total.
func (s *GormStore) ListOutfits(ctx context.Context, userID string, limit, offset int) ([]domain.Outfit, int, error) {
	query := outfitSelect + ` GROUP BY o.id ORDER BY o.created_at DESC LIMIT ? OFFSET ?`
	var rows []outfitRow
	if err := s.db.WithContext(ctx).Raw(query, userID, limit, offset).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	outfits := make([]domain.Outfit, 0, len(rows))
	total := 0
	for _, r := range rows {
		outfit, err := outfitFromRow(r)
		if err != nil {
			return nil, 0, err
		}
		outfits = append(outfits, outfit)
		total = r.Total
	}
	return outfits, total, nil
}

// GetOutfit returns a single outfit with its item aggregation.
func (s *GormStore) GetOutfit(ctx context.Context, userID string, id int64) (domain.Outfit, bool, error) {
	query := outfitSelect + ` AND o.id = ? GROUP BY o.id`
	var rows []outfitRow
	if err := s.db.WithContext(ctx).Raw(query, userID, id).Scan(&rows).Error; err != nil {
		return domain.Outfit{}, false, err
	}
	if len(rows) == 0 {
		return domain.Outfit{}, false, nil
	}
	outfit, err := outfitFromRow(rows[0])
	if err != nil {
		return domain.Outfit{}, false, err
	}
	return outfit, true, nil
}

// OutfitItemIDs returns the ids of the outfit's items, used to seed the edit
// form selection.
func (s *GormStore) OutfitItemIDs(ctx context.Context, userID string, id int64) ([]int64, error) {
	var exists int
	res := s.db.WithContext(ctx).
		Raw(`SELECT 1 FROM outfits WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&exists)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	var ids []int64
	err := s.db.WithContext(ctx).
		Raw(`SELECT item_id FROM outfit_items WHERE outfit_id = ? ORDER BY item_id`, id).
		Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateOutfit updates the row, links the new selection idempotently, and
// deletes junction rows only for the removed ids. Untouched junction rows
// survive the edit.
func (s *GormStore) UpdateOutfit(ctx context.Context, userID string, id int64, in domain.OutfitUpdate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`UPDATE outfits SET name = ?, note = ? WHERE id = ? AND user_id = ?`,
			in.Name, in.Note, id, userID)
		if res.Error != nil {
			return mapPGError(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := linkOutfitItems(tx, userID, id, in.ItemIDs); err != nil {
			return mapPGError(err)
		}
		if len(in.RemovedItemIDs) > 0 {
			if err := tx.Exec(`DELETE FROM outfit_items WHERE outfit_id = ? AND item_id = ANY(?::bigint[])`,
				id, in.RemovedItemIDs).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteOutfit removes the outfit row; junction rows cascade.
func (s *GormStore) DeleteOutfit(ctx context.Context, userID string, id int64) error {
	res := s.db.WithContext(ctx).Exec(`DELETE FROM outfits WHERE id = ? AND user_id = ?`, id, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func resolveCategory(tx *gorm.DB, userID, name string) (int64, bool, error) {
	var id int64
	res := tx.Raw(`SELECT id FROM categories WHERE user_id = ? AND lower(name) = lower(?)`, userID, name).Scan(&id)
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}
	return id, true, nil
}

func upsertAndLinkTags(tx *gorm.DB, userID string, itemID int64, names []string) error {
	if len(names) == 0 {
		return nil
	}
	if err := tx.Exec(`
		INSERT INTO tags (user_id, name)
		SELECT ?, lower(x.name) FROM unnest(?::text[]) AS x(name)
		ON CONFLICT DO NOTHING`, userID, names).Error; err != nil {
		return err
	}
	var tagIDs []int64
	if err := tx.Raw(`
		SELECT id FROM tags
		WHERE user_id = ?
		AND name = ANY (SELECT lower(x.name) FROM unnest(?::text[]) AS x(name))`,
		userID, names).Scan(&tagIDs).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	return tx.Exec(`
		INSERT INTO item_tags (item_id, tag_id)
		SELECT ?, x.id FROM unnest(?::bigint[]) AS x(id)
		ON CONFLICT DO NOTHING`, itemID, tagIDs).Error
}

// linkOutfitItems inserts junction rows for the selection. Every referenced
// item must belong to the same user as the outfit; anything else reads as a
// missing item.
func linkOutfitItems(tx *gorm.DB, userID string, outfitID int64, itemIDs []int64) error {
	if len(itemIDs) == 0 {
		return nil
	}
	var owned int64
	if err := tx.Raw(`SELECT COUNT(*) FROM items WHERE user_id = ? AND id = ANY(?::bigint[])`,
		userID, itemIDs).Scan(&owned).Error; err != nil {
		return err
	}
	if owned != int64(len(itemIDs)) {
		return ErrNotFound
	}
	return tx.Exec(`
		INSERT INTO outfit_items (outfit_id, item_id)
		SELECT ?, x.id FROM unnest(?::bigint[]) AS x(id)
		ON CONFLICT DO NOTHING`, outfitID, itemIDs).Error
}

func itemFromRow(r itemRow) (domain.Item, error) {
	item := domain.Item{
		ID:           r.ID,
		UserID:       r.UserID,
		Name:         r.Name,
		PrimaryColor: r.PrimaryColor,
		Brand:        r.Brand,
		Category:     r.Category,
		CreatedAt:    r.CreatedAt,
	}
	if err := fromJSON(r.Seasons, &item.Seasons); err != nil {
		return domain.Item{}, fmt.Errorf("decode seasons: %w", err)
	}
	if err := fromJSON(r.SecondaryColors, &item.SecondaryColors); err != nil {
		return domain.Item{}, fmt.Errorf("decode secondary colors: %w", err)
	}
	if err := fromJSON(r.ImageKeys, &item.ImageKeys); err != nil {
		return domain.Item{}, fmt.Errorf("decode image keys: %w", err)
	}
	if err := fromJSON(r.Tags, &item.Tags); err != nil {
		return domain.Item{}, fmt.Errorf("decode tags: %w", err)
	}
	return item, nil
}

func outfitFromRow(r outfitRow) (domain.Outfit, error) {
	outfit := domain.Outfit{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Note:      r.Note,
		CreatedAt: r.CreatedAt,
	}
	if err := fromJSON(r.Items, &outfit.Items); err != nil {
		return domain.Outfit{}, fmt.Errorf("decode outfit items: %w", err)
	}
	return outfit, nil
}

func toJSON(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	data, _ := json.Marshal(values)
	return datatypes.JSON(data)
}

func fromJSON(data datatypes.JSON, dest any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", ErrDuplicateName, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			if strings.Contains(pgErr.ConstraintName, "category") {
				return ErrCategoryNotFound
			}
			return ErrInvalidUser
		}
	}
	return err
}
