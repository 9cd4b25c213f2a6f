package itemshop

import (
	"context"
)

// Refresher re-fetches a query. *Controller satisfies it.
type Refresher interface {
	Reload() bool
}

// Refreshers reloads several queries together, such as a list and its count.
// Reload reports whether any of them was runnable.
type Refreshers []Refresher

func (rs Refreshers) Reload() bool {
	reloaded := false
	for _, r := range rs {
		if r != nil && r.Reload() {
			reloaded = true
		}
	}
	return reloaded
}

// CreationReport is the outcome of the post-creation workflow.
type CreationReport struct {
	ItemID        string
	ImageAttached bool
	Warning       string
	Refreshed     bool
	RunID         string
}

// ItemCreation finishes the creation of a catalog item: it attaches the uploaded image,
// closes the creation modal and refreshes the catalog.
type ItemCreation struct {
	images  ImageService
	refresh Refresher

	workflow
}

// NewItemCreation creates the workflow. refresh may be nil, in which case the catalog is
// left as is.
func NewItemCreation(images ImageService, refresh Refresher, opts ...Option) *ItemCreation {
	return &ItemCreation{
		images:   images,
		refresh:  refresh,
		workflow: newWorkflow(newSettings(opts)),
	}
}

// Complete never fails: an image that cannot be attached only produces a warning.
func (w *ItemCreation) Complete(ctx context.Context, itemID string) CreationReport {
	run := w.journal.begin("item_creation", nil)
	itemIDTag.Set(run, itemID)
	report := CreationReport{ItemID: itemID, RunID: run.ID}

	attachErr := w.step(run, "attach_image", func() error {
		if itemID == "" {
			return ErrMissingItemID
		}
		_, err := w.call(ctx, OpAttachImage, "attach_item_image", func(ctx context.Context) (any, error) {
			return nil, w.images.AttachItemImage(ctx, itemID)
		})
		return err
	})
	if attachErr != nil {
		report.Warning = ErrorMessage(attachErr, FallbackMessage)
		messageTag.Set(run, report.Warning)
		w.logger.Warn("item image not attached", "item_id", itemID, "error", attachErr)
		w.host.OnItemCreationWarning(report.Warning)
	} else {
		report.ImageAttached = true
	}

	w.step(run, "close_modal", func() error {
		w.host.CloseCreationModal()
		return nil
	})

	refresh := w.journal.begin("refresh_catalog", run)
	switch {
	case w.refresh == nil:
		w.logger.Debug("no catalog refresh handle, skipping refresh", "item_id", itemID)
		refresh.skip("no refresh handle")
	case !w.refresh.Reload():
		w.logger.Debug("catalog not loaded yet, skipping refresh", "item_id", itemID)
		refresh.skip("catalog not runnable")
	default:
		report.Refreshed = true
		refresh.finish(nil)
	}

	run.finish(nil)
	w.logger.Info("item creation completed", "item_id", itemID, "image_attached", report.ImageAttached, "refreshed", report.Refreshed)
	return report
}
