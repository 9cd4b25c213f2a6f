package images

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pumped-fn/itemshop"
	"github.com/pumped-fn/itemshop/internal/blob"
)

type refRecorder struct {
	mu   sync.Mutex
	refs map[string]string
	err  error
}

func (r *refRecorder) SetImageRef(_ context.Context, itemID, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.refs == nil {
		r.refs = map[string]string{}
	}
	r.refs[itemID] = ref
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAttacher_MovesStagedUpload(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	refs := &refRecorder{}
	a := NewAttacher(blobs, refs, quietLogger())

	require.NoError(t, a.Stage(ctx, "item-1", strings.NewReader("png"), "image/png"))
	require.NoError(t, a.AttachItemImage(ctx, "item-1"))

	assert.Equal(t, "items/item-1/image", refs.refs["item-1"])
	info, err := blobs.Head(ctx, ImageKey("item-1"))
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.ContentType)
	assert.Equal(t, "item-1", info.Metadata["item"])

	_, err = blobs.Head(ctx, UploadKey("item-1"))
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestAttacher_SecondAttachIsNoop(t *testing.T) {
	ctx := context.Background()
	refs := &refRecorder{}
	a := NewAttacher(blob.NewMemory(), refs, quietLogger())

	require.NoError(t, a.Stage(ctx, "item-1", strings.NewReader("png"), "image/png"))
	require.NoError(t, a.AttachItemImage(ctx, "item-1"))
	require.NoError(t, a.AttachItemImage(ctx, "item-1"))
	assert.Equal(t, "items/item-1/image", refs.refs["item-1"])
}

func TestAttacher_NoUpload(t *testing.T) {
	a := NewAttacher(blob.NewMemory(), &refRecorder{}, quietLogger())

	err := a.AttachItemImage(context.Background(), "item-7")
	assert.Equal(t, "No image was uploaded for item item-7", itemshop.ErrorMessage(err, ""))

	err = a.AttachItemImage(context.Background(), "")
	assert.ErrorIs(t, err, itemshop.ErrMissingItemID)
	assert.ErrorIs(t, a.Stage(context.Background(), "", strings.NewReader(""), ""), itemshop.ErrMissingItemID)
}

func TestAttacher_StageTwiceFails(t *testing.T) {
	ctx := context.Background()
	a := NewAttacher(blob.NewMemory(), &refRecorder{}, nil)

	require.NoError(t, a.Stage(ctx, "item-1", strings.NewReader("a"), "image/png"))
	err := a.Stage(ctx, "item-1", strings.NewReader("b"), "image/png")
	assert.ErrorIs(t, err, blob.ErrExists)
}

func TestAttacher_RecordFailure(t *testing.T) {
	ctx := context.Background()
	a := NewAttacher(blob.NewMemory(), &refRecorder{err: errors.New("item gone")}, quietLogger())

	require.NoError(t, a.Stage(ctx, "item-1", strings.NewReader("png"), "image/png"))
	err := a.AttachItemImage(ctx, "item-1")
	assert.EqualError(t, err, "recording image for item-1: item gone")
}

func TestAttacher_FilesystemDriver(t *testing.T) {
	ctx := context.Background()
	blobs, err := blob.NewFilesystem(t.TempDir())
	require.NoError(t, err)
	refs := &refRecorder{}
	a := NewAttacher(blobs, refs, quietLogger())

	require.NoError(t, a.Stage(ctx, "item-2", strings.NewReader("jpeg"), "image/jpeg"))
	require.NoError(t, a.AttachItemImage(ctx, "item-2"))

	_, body, err := blobs.Get(ctx, ImageKey("item-2"))
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
}
