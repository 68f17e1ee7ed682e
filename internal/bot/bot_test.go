package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BorodachevAV/shortlinkbot/internal/rewriter"
	"github.com/BorodachevAV/shortlinkbot/internal/storage"
	"github.com/BorodachevAV/shortlinkbot/internal/storage/memory"
)

type fakeRewriter struct {
	calls  int
	creds  []string
	result rewriter.Result
	err    error
	panics bool
}

func (f *fakeRewriter) Rewrite(_ context.Context, text, credential string) (rewriter.Result, error) {
	f.calls++
	f.creds = append(f.creds, credential)
	if f.panics {
		panic("rewrite exploded")
	}
	if f.err != nil {
		return rewriter.Result{}, f.err
	}
	return f.result, nil
}

type failingStore struct{}

func (failingStore) WriteCredential(context.Context, *storage.CredentialData) error {
	return errors.New("disk full")
}

func (failingStore) ReadCredential(context.Context, int64) (*storage.CredentialData, error) {
	return nil, errors.New("connection reset")
}

func (failingStore) DeleteCredential(context.Context, int64) error {
	return errors.New("connection reset")
}

func newTestBot(rw Rewriter, opts ...Option) (*Bot, *memory.MapStorage) {
	store := memory.NewMapStorage()
	return New(store, rw, zap.NewNop(), opts...), store
}

func TestHandleWithoutCredential(t *testing.T) {
	rw := &fakeRewriter{}
	b, _ := newTestBot(rw)

	reply := b.Handle(context.Background(), Incoming{UserID: 1, Text: "see https://example.com"})

	assert.Equal(t, Reply{Text: noCredentialText}, reply)
	assert.Zero(t, rw.calls)
}

func TestHandleDefaultAPIKey(t *testing.T) {
	rw := &fakeRewriter{result: rewriter.Result{Text: "see S", Shortened: 1}}
	b, store := newTestBot(rw, WithDefaultAPIKey("operator-key"))

	reply := b.Handle(context.Background(), Incoming{UserID: 1, Text: "see https://example.com"})
	assert.Equal(t, "see S", reply.Text)

	require.NoError(t, store.WriteCredential(context.Background(), &storage.CredentialData{UserID: 1, APIKey: "own-key"}))
	b.Handle(context.Background(), Incoming{UserID: 1, Text: "see https://example.com"})

	assert.Equal(t, []string{"operator-key", "own-key"}, rw.creds)
}

func TestHandleRewrite(t *testing.T) {
	ctx := context.Background()

	t.Run("text", func(t *testing.T) {
		rw := &fakeRewriter{result: rewriter.Result{Text: "Check https://short.ly/abc", Shortened: 1}}
		b, store := newTestBot(rw)
		require.NoError(t, store.WriteCredential(ctx, &storage.CredentialData{UserID: 5, APIKey: "k5"}))

		reply := b.Handle(ctx, Incoming{UserID: 5, Text: "Check https://example.com"})

		assert.Equal(t, Reply{Text: "Check https://short.ly/abc"}, reply)
		assert.Equal(t, []string{"k5"}, rw.creds)
	})

	t.Run("photo caption", func(t *testing.T) {
		rw := &fakeRewriter{result: rewriter.Result{Text: "pic S", Shortened: 1}}
		b, _ := newTestBot(rw, WithDefaultAPIKey("k"))

		reply := b.Handle(ctx, Incoming{UserID: 5, Text: "pic https://a.com", PhotoFileID: "file-1"})

		assert.Equal(t, Reply{Text: "pic S", PhotoFileID: "file-1"}, reply)
	})

	t.Run("partial failure notice", func(t *testing.T) {
		rw := &fakeRewriter{result: rewriter.Result{Text: "a S https://b.com https://c.com", Shortened: 1, Unresolved: 2}}
		b, _ := newTestBot(rw, WithDefaultAPIKey("k"))

		reply := b.Handle(ctx, Incoming{UserID: 5, Text: "a https://a.com https://b.com https://c.com"})

		assert.Equal(t, "a S https://b.com https://c.com", reply.Text)
		assert.Equal(t, unresolvedNotice(2), reply.Notice)
	})

	t.Run("no links", func(t *testing.T) {
		rw := &fakeRewriter{result: rewriter.Result{Text: "hello"}}
		b, _ := newTestBot(rw, WithDefaultAPIKey("k"))

		reply := b.Handle(ctx, Incoming{UserID: 5, Text: "hello"})
		assert.Equal(t, Reply{Text: noLinksText}, reply)
	})

	t.Run("empty text", func(t *testing.T) {
		rw := &fakeRewriter{}
		b, _ := newTestBot(rw, WithDefaultAPIKey("k"))

		reply := b.Handle(ctx, Incoming{UserID: 5, PhotoFileID: "file-1"})
		assert.Equal(t, Reply{Text: emptyMessageText}, reply)
		assert.Zero(t, rw.calls)
	})

	t.Run("rewriter error", func(t *testing.T) {
		rw := &fakeRewriter{err: errors.New("out of memory")}
		b, _ := newTestBot(rw, WithDefaultAPIKey("k"))

		reply := b.Handle(ctx, Incoming{UserID: 5, Text: "https://a.com"})
		assert.Equal(t, Reply{Text: genericFailureText}, reply)
	})

	t.Run("rewriter panic", func(t *testing.T) {
		rw := &fakeRewriter{panics: true}
		b, _ := newTestBot(rw, WithDefaultAPIKey("k"))

		var reply Reply
		assert.NotPanics(t, func() {
			reply = b.Handle(ctx, Incoming{UserID: 5, Text: "https://a.com"})
		})
		assert.Equal(t, Reply{Text: genericFailureText}, reply)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		rw := &fakeRewriter{err: context.Canceled}
		b, _ := newTestBot(rw, WithDefaultAPIKey("k"))

		assert.Equal(t, Reply{}, b.Handle(cctx, Incoming{UserID: 5, Text: "https://a.com"}))
	})

	t.Run("store failure", func(t *testing.T) {
		rw := &fakeRewriter{}
		b := New(failingStore{}, rw, zap.NewNop())

		reply := b.Handle(ctx, Incoming{UserID: 5, Text: "https://a.com"})
		assert.Equal(t, Reply{Text: genericFailureText}, reply)
		assert.Zero(t, rw.calls)
	})
}

func TestHandleCommands(t *testing.T) {
	ctx := context.Background()
	b, store := newTestBot(&fakeRewriter{})

	assert.Equal(t, startText, b.Handle(ctx, Incoming{UserID: 9, Command: "start"}).Text)
	assert.Equal(t, helpText, b.Handle(ctx, Incoming{UserID: 9, Command: "help"}).Text)
	assert.Equal(t, unknownCommand, b.Handle(ctx, Incoming{UserID: 9, Command: "nope"}).Text)

	assert.Equal(t, setAPIUsageText, b.Handle(ctx, Incoming{UserID: 9, Command: "set_api"}).Text)
	assert.Equal(t, setAPIUsageText, b.Handle(ctx, Incoming{UserID: 9, Command: "set_api", Args: "two words"}).Text)
	assert.Equal(t, noAPIText, b.Handle(ctx, Incoming{UserID: 9, Command: "my_api"}).Text)

	assert.Equal(t, apiSavedText, b.Handle(ctx, Incoming{UserID: 9, Command: "set_api", Args: " 0123456789abcdef "}).Text)
	cd, err := store.ReadCredential(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef", cd.APIKey)
	assert.Equal(t, "Your API key: 0123…cdef", b.Handle(ctx, Incoming{UserID: 9, Command: "my_api"}).Text)

	assert.Equal(t, apiRemovedText, b.Handle(ctx, Incoming{UserID: 9, Command: "remove_api"}).Text)
	_, err = store.ReadCredential(ctx, 9)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHandleCommandsStoreFailure(t *testing.T) {
	ctx := context.Background()
	b := New(failingStore{}, &fakeRewriter{}, zap.NewNop())

	assert.Equal(t, genericFailureText, b.Handle(ctx, Incoming{UserID: 1, Command: "set_api", Args: "key"}).Text)
	assert.Equal(t, genericFailureText, b.Handle(ctx, Incoming{UserID: 1, Command: "remove_api"}).Text)
	assert.Equal(t, genericFailureText, b.Handle(ctx, Incoming{UserID: 1, Command: "my_api"}).Text)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "****", maskKey("short"))
	assert.Equal(t, "****", maskKey("12345678"))
	assert.Equal(t, "1234…6789", maskKey("123456789"))
}
