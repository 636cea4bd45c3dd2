package app

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yahrour/digital-closet/internal/util"
)

// UploadTarget pairs a freshly minted object key with a presigned PUT URL.
// The client uploads to the URL and sends the key back on item create.
type UploadTarget struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// PresignUploads issues presigned PUT URLs for the named files. Each file
// gets a unique key so concurrent uploads never collide.
func (a *App) PresignUploads(ctx context.Context, userID string, fileNames []string) ([]UploadTarget, error) {
	targets := make([]UploadTarget, len(fileNames))
	for i, name := range fileNames {
		key := fmt.Sprintf("uploads/%s/%s", uuid.NewString(), sanitizeFileName(name))
		url, err := a.objects.PresignPut(ctx, key, a.presignTTL)
		if err != nil {
			return nil, WrapError(KindStorageError, "failed to presign upload", err)
		}
		targets[i] = UploadTarget{Key: key, URL: url}
	}
	return targets, nil
}

// ItemImageURLs returns short-lived presigned GET URLs for the item's images
// in their stored order. URLs are cached under the item images tag so edits
// and deletes refresh them.
func (a *App) ItemImageURLs(ctx context.Context, userID string, itemID int64) ([]string, error) {
	key := fmt.Sprintf("%s|%d", userID, itemID)
	var cached []string
	if hit, err := a.cache.GetJSON(ctx, CacheTagItemImages, key, &cached); err == nil && hit {
		return cached, nil
	}

	item, ok, err := a.store.GetItem(ctx, userID, itemID)
	if err != nil {
		return nil, WrapError(KindWriteFailed, "failed to load item", err)
	}
	if !ok {
		return nil, NewError(KindNotFound, "item not found")
	}

	urls, err := a.presignAll(ctx, item.ImageKeys)
	if err != nil {
		return nil, err
	}
	if err := a.cache.SetJSON(ctx, CacheTagItemImages, key, urls); err != nil {
		util.LoggerFromContext(ctx).Warn("cache write failed", "tag", CacheTagItemImages, "error", err)
	}
	return urls, nil
}

// presignAll fans out GET presigning across keys, preserving order. An empty
// key yields an empty URL instead of an error.
func (a *App) presignAll(ctx context.Context, keys []string) ([]string, error) {
	urls := make([]string, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		i, key := i, key
		if key == "" {
			continue
		}
		g.Go(func() error {
			url, err := a.objects.PresignGet(gctx, key, a.presignTTL)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, WrapError(KindStorageError, "failed to presign image", err)
	}
	return urls, nil
}

// DiscardUploads deletes uploaded objects whose write was rejected before it
// reached the store. Best effort.
func (a *App) DiscardUploads(ctx context.Context, userID string, keys []string) {
	a.compensateUpload(ctx, userID, keys)
}

// compensateUpload removes objects that no committed row references. Best
// effort; failures are recorded for operator cleanup.
func (a *App) compensateUpload(ctx context.Context, userID string, keys []string) {
	if len(keys) == 0 {
		return
	}
	result, err := a.objects.DeleteObjects(ctx, keys)
	if err != nil {
		util.LoggerFromContext(ctx).Warn("orphan image cleanup failed", "keys", keys, "error", err)
		a.alerter.RecordCleanupFailure(ctx, userID, keys)
		return
	}
	if len(result.Errors) > 0 {
		failed := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			failed = append(failed, e.Key)
		}
		util.LoggerFromContext(ctx).Warn("orphan image cleanup incomplete", "keys", failed)
		a.alerter.RecordCleanupFailure(ctx, userID, failed)
	}
}

// sanitizeFileName keeps the base name and replaces anything outside a safe
// character set, so client-supplied names cannot traverse key prefixes.
func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" || out == "." || out == ".." {
		return "upload"
	}
	return out
}
