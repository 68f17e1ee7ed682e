// Package bot turns chat messages into rewrite requests and answers them.
package bot

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/BorodachevAV/shortlinkbot/internal/metrics"
	"github.com/BorodachevAV/shortlinkbot/internal/rewriter"
	"github.com/BorodachevAV/shortlinkbot/internal/storage"
)

// Rewriter is satisfied by *rewriter.Rewriter.
type Rewriter interface {
	Rewrite(ctx context.Context, text, credential string) (rewriter.Result, error)
}

// Incoming is a chat message reduced to what the bot needs.
type Incoming struct {
	UserID      int64
	Text        string
	Command     string
	Args        string
	PhotoFileID string
}

// Reply is what the bot answers. Text is sent as the caption of PhotoFileID
// when it is set. Notice, if any, follows as a separate message.
type Reply struct {
	Text        string
	PhotoFileID string
	Notice      string
}

type Option func(*Bot)

// WithDefaultAPIKey sets the key used for users that never ran /set_api.
func WithDefaultAPIKey(key string) Option {
	return func(b *Bot) {
		b.defaultKey = key
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bot) {
		b.metrics = m
	}
}

type Bot struct {
	store      storage.CredentialStorage
	rewriter   Rewriter
	defaultKey string
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

func New(store storage.CredentialStorage, rw Rewriter, logger *zap.Logger, opts ...Option) *Bot {
	b := &Bot{
		store:    store,
		rewriter: rw,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Handle answers one message. It never panics; unexpected failures produce
// a generic notice. An empty Reply means nothing should be sent.
func (b *Bot) Handle(ctx context.Context, in Incoming) (reply Reply) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error("message handler panic", zap.Int64("user_id", in.UserID), zap.Any("panic", p))
			reply = Reply{Text: genericFailureText}
		}
	}()

	if in.Command != "" {
		b.metrics.Message("command")
		return b.command(ctx, in)
	}
	return b.rewrite(ctx, in)
}

func (b *Bot) command(ctx context.Context, in Incoming) Reply {
	switch in.Command {
	case cmdStart:
		return Reply{Text: startText}
	case cmdHelp:
		return Reply{Text: helpText}
	case cmdSetAPI:
		key := strings.TrimSpace(in.Args)
		if key == "" || strings.ContainsAny(key, " \t\n") {
			return Reply{Text: setAPIUsageText}
		}
		err := b.store.WriteCredential(ctx, &storage.CredentialData{UserID: in.UserID, APIKey: key})
		if err != nil {
			b.logger.Error("failed to save credential", zap.Int64("user_id", in.UserID), zap.Error(err))
			return Reply{Text: genericFailureText}
		}
		return Reply{Text: apiSavedText}
	case cmdRemoveAPI:
		if err := b.store.DeleteCredential(ctx, in.UserID); err != nil {
			b.logger.Error("failed to delete credential", zap.Int64("user_id", in.UserID), zap.Error(err))
			return Reply{Text: genericFailureText}
		}
		return Reply{Text: apiRemovedText}
	case cmdMyAPI:
		cd, err := b.store.ReadCredential(ctx, in.UserID)
		if errors.Is(err, storage.ErrNotFound) {
			return Reply{Text: noAPIText}
		}
		if err != nil {
			b.logger.Error("failed to read credential", zap.Int64("user_id", in.UserID), zap.Error(err))
			return Reply{Text: genericFailureText}
		}
		return Reply{Text: myAPIText(cd.APIKey)}
	default:
		return Reply{Text: unknownCommand}
	}
}

func (b *Bot) credential(ctx context.Context, userID int64) (string, error) {
	cd, err := b.store.ReadCredential(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return b.defaultKey, nil
	}
	if err != nil {
		return "", err
	}
	return cd.APIKey, nil
}

func (b *Bot) rewrite(ctx context.Context, in Incoming) Reply {
	if in.PhotoFileID != "" {
		b.metrics.Message("photo")
	} else {
		b.metrics.Message("text")
	}
	if strings.TrimSpace(in.Text) == "" {
		return Reply{Text: emptyMessageText}
	}

	key, err := b.credential(ctx, in.UserID)
	if err != nil {
		b.logger.Error("failed to read credential", zap.Int64("user_id", in.UserID), zap.Error(err))
		return Reply{Text: genericFailureText}
	}
	if key == "" {
		b.metrics.Message("no_credential")
		return Reply{Text: noCredentialText}
	}

	res, err := b.rewriter.Rewrite(ctx, in.Text, key)
	if err != nil {
		if ctx.Err() != nil {
			return Reply{}
		}
		b.logger.Error("failed to rewrite message", zap.Int64("user_id", in.UserID), zap.Error(err))
		return Reply{Text: genericFailureText}
	}
	if res.Shortened+res.Excluded+res.Unresolved == 0 {
		return Reply{Text: noLinksText}
	}

	b.logger.Info("message rewritten",
		zap.Int64("user_id", in.UserID),
		zap.Int("shortened", res.Shortened),
		zap.Int("excluded", res.Excluded),
		zap.Int("unresolved", res.Unresolved),
	)
	reply := Reply{Text: res.Text, PhotoFileID: in.PhotoFileID}
	if res.Unresolved > 0 {
		reply.Notice = unresolvedNotice(res.Unresolved)
	}
	return reply
}
