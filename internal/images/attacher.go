// Package images attaches uploaded images to catalog items.
//
// An upload is staged under uploads/<item id> before the item exists, and attaching moves
// it to items/<item id>/image and records that key on the item.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pumped-fn/itemshop"
	"github.com/pumped-fn/itemshop/internal/blob"
)

// RefSetter records the storage key of an item's image.
type RefSetter interface {
	SetImageRef(ctx context.Context, itemID, ref string) error
}

type Attacher struct {
	blobs  blob.Store
	items  RefSetter
	logger *slog.Logger
}

var _ itemshop.ImageService = (*Attacher)(nil)

func NewAttacher(blobs blob.Store, items RefSetter, logger *slog.Logger) *Attacher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Attacher{blobs: blobs, items: items, logger: logger}
}

func UploadKey(itemID string) string { return "uploads/" + itemID }
func ImageKey(itemID string) string  { return "items/" + itemID + "/image" }

// Stage stores an image for an item that is about to be attached.
func (a *Attacher) Stage(ctx context.Context, itemID string, r io.Reader, contentType string) error {
	if itemID == "" {
		return itemshop.ErrMissingItemID
	}
	_, err := a.blobs.Put(ctx, UploadKey(itemID), r, blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"item": itemID},
	})
	if err != nil {
		return fmt.Errorf("staging image for %s: %w", itemID, err)
	}
	return nil
}

// AttachItemImage moves the staged upload of itemID into place. Attaching twice is a no-op.
func (a *Attacher) AttachItemImage(ctx context.Context, itemID string) error {
	const op = "attach item image"
	if itemID == "" {
		return itemshop.ErrMissingItemID
	}

	dst := ImageKey(itemID)
	_, err := a.blobs.Head(ctx, UploadKey(itemID))
	switch {
	case errors.Is(err, blob.ErrNotFound):
		if _, headErr := a.blobs.Head(ctx, dst); headErr == nil {
			a.logger.Debug("image already attached", "item", itemID)
			return a.record(ctx, itemID, dst)
		}
		return &itemshop.RemoteError{Op: op, Message: fmt.Sprintf("No image was uploaded for item %s", itemID)}
	case err != nil:
		return &itemshop.RemoteError{Op: op, Err: err}
	}

	info, err := blob.Move(ctx, a.blobs, UploadKey(itemID), dst)
	if err != nil {
		return &itemshop.RemoteError{Op: op, Err: err}
	}
	a.logger.Info("image attached", "item", itemID, "key", info.Key, "size", info.Size, "driver", a.blobs.Driver())
	return a.record(ctx, itemID, dst)
}

func (a *Attacher) record(ctx context.Context, itemID, key string) error {
	if err := a.items.SetImageRef(ctx, itemID, key); err != nil {
		return fmt.Errorf("recording image for %s: %w", itemID, err)
	}
	return nil
}
