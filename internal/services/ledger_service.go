package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"dbd/internal/access"
	"dbd/internal/ledger"
	"dbd/internal/media"
	"dbd/internal/models"
	"dbd/internal/notify"
	"dbd/internal/providers"
)

const defaultListLimit = 50

// LedgerServiceInterface is the transactional boundary of the board:
// it validates input, gates writers through the access resolver,
// assigns identities, persists through the storage backend, notifies
// listeners and hands accepted posts to the chain batcher.
type LedgerServiceInterface interface {
	ListPosts(ctx context.Context, tenant, caller, channel string, limit int) ([]*models.Post, error)
	SubmitPost(ctx context.Context, tenant, caller, text, image, channel string) (*models.Post, error)
	SubmitComment(ctx context.Context, tenant, caller string, postId uint64, text string) (*models.Comment, error)
	EditPost(ctx context.Context, tenant, caller string, postId uint64, text string) (*models.Post, error)
	DeletePost(ctx context.Context, tenant, caller string, postId uint64) error
}

type LedgerService struct {
	store     ledger.StoreInterface
	resolver  access.ResolverInterface
	channels  ChannelServiceInterface
	settings  SettingsServiceInterface
	batcher   ledger.BatcherInterface
	sink      notify.SinkInterface
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
	listLimit int
}

func NewLedgerService(store ledger.StoreInterface, resolver access.ResolverInterface, channels ChannelServiceInterface, settings SettingsServiceInterface, batcher ledger.BatcherInterface, sink notify.SinkInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) LedgerServiceInterface {
	return &LedgerService{
		store:     store,
		resolver:  resolver,
		channels:  channels,
		settings:  settings,
		batcher:   batcher,
		sink:      sink,
		logger:    logger,
		metrics:   metrics,
		listLimit: defaultListLimit,
	}
}

func (ls *LedgerService) ListPosts(ctx context.Context, tenant, caller, channel string, limit int) ([]*models.Post, error) {
	if channel == DefaultChannel {
		channel = ""
	}
	if channel != "" {
		exists, err := ls.channels.Exists(tenant, channel)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, models.NotFoundError("channel " + channel)
		}
	}

	accessible, err := ls.channels.AccessibleNames(ctx, tenant, caller)
	if err != nil {
		return nil, err
	}

	index, err := ls.store.ReadIndex(tenant)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > ls.listLimit {
		limit = ls.listLimit
	}

	posts := make([]*models.Post, 0, limit)
	// Index entries are ordered by id; walk newest-first.
	for i := len(index.Entries) - 1; i >= 0 && len(posts) < limit; i-- {
		entry := index.Entries[i]
		if channel != "" && entry.Channel != channel {
			continue
		}
		name := entry.Channel
		if name == "" {
			name = DefaultChannel
		}
		if _, ok := accessible[name]; !ok {
			continue
		}

		post, err := ls.store.ReadPost(tenant, entry.Id)
		if err != nil {
			if errors.Is(err, models.ErrCorrupt) || errors.Is(err, models.ErrNotFound) {
				ls.logger.Warnf(providers.TypeGet, "skipping unreadable post %d for %s: %s", entry.Id, tenant, err)
				continue
			}
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (ls *LedgerService) SubmitPost(ctx context.Context, tenant, caller, text, image, channel string) (*models.Post, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.ValidationError("post text cannot be empty")
	}

	if image != "" {
		settings, err := ls.settings.Get()
		if err != nil {
			return nil, err
		}
		image, err = media.ValidateImage(image, settings)
		if err != nil {
			return nil, err
		}
	}

	if channel == DefaultChannel {
		channel = ""
	}
	if channel != "" {
		exists, err := ls.channels.Exists(tenant, channel)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, models.NotFoundError("channel " + channel)
		}
	}

	level, reason := ls.resolver.Resolve(ctx, tenant, caller, true)
	if level < access.Poster {
		if reason == "" {
			reason = "posting requires poster access"
		}
		return nil, models.PermissionError(reason)
	}

	author := strings.ToLower(caller)
	post := &models.Post{
		Text:       text,
		Image:      image,
		Author:     author,
		AuthorName: ls.resolver.DisplayName(ctx, tenant, author),
		Timestamp:  time.Now().UnixMilli(),
		Channel:    channel,
		Comments:   []*models.Comment{},
	}

	unlock := ls.store.Lock(tenant)
	index, err := ls.store.ReadIndex(tenant)
	if err != nil {
		unlock()
		return nil, err
	}

	post.Id = index.NextId
	index.NextId++
	index.Entries = append(index.Entries, ledger.IndexEntryFor(post))

	if err := ls.store.WritePost(tenant, post); err != nil {
		unlock()
		return nil, err
	}
	if err := ls.store.WriteIndex(tenant, index); err != nil {
		// Keep record and index in step: roll the record back.
		_ = ls.store.DeletePost(tenant, post.Id)
		unlock()
		return nil, err
	}
	unlock()

	ls.metrics.IncPostsAccepted(tenant)
	ls.sink.Broadcast(tenant, &notify.Event{Type: notify.EventNewPost, Tenant: tenant, Post: post})

	// Chain batching happens after the response path; failures there
	// never reach the writer.
	ls.batcher.Enqueue(tenant, post)

	return post, nil
}

func (ls *LedgerService) SubmitComment(ctx context.Context, tenant, caller string, postId uint64, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.ValidationError("comment text cannot be empty")
	}

	level, reason := ls.resolver.Resolve(ctx, tenant, caller, true)
	if level < access.Poster {
		if reason == "" {
			reason = "commenting requires poster access"
		}
		return nil, models.PermissionError(reason)
	}

	author := strings.ToLower(caller)

	unlock := ls.store.Lock(tenant)
	defer unlock()

	post, err := ls.store.ReadPost(tenant, postId)
	if err != nil {
		return nil, err
	}
	index, err := ls.store.ReadIndex(tenant)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Id:         index.NextId,
		Text:       text,
		Author:     author,
		AuthorName: ls.resolver.DisplayName(ctx, tenant, author),
		Timestamp:  time.Now().UnixMilli(),
	}
	index.NextId++
	post.Comments = append(post.Comments, comment)

	if err := ls.store.WritePost(tenant, post); err != nil {
		return nil, err
	}
	if err := ls.store.WriteIndex(tenant, index); err != nil {
		post.Comments = post.Comments[:len(post.Comments)-1]
		_ = ls.store.WritePost(tenant, post)
		return nil, err
	}

	ls.sink.Broadcast(tenant, &notify.Event{Type: notify.EventNewComment, Tenant: tenant, Comment: comment, PostId: postId})
	return comment, nil
}

func (ls *LedgerService) EditPost(_ context.Context, tenant, caller string, postId uint64, text string) (*models.Post, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.ValidationError("post text cannot be empty")
	}

	unlock := ls.store.Lock(tenant)
	defer unlock()

	post, err := ls.store.ReadPost(tenant, postId)
	if err != nil {
		return nil, err
	}
	if post.Author != strings.ToLower(caller) {
		return nil, models.PermissionError("only the author can edit a post")
	}

	post.Text = text
	post.EditedAt = time.Now().UnixMilli()
	if err := ls.store.WritePost(tenant, post); err != nil {
		return nil, err
	}

	ls.sink.Broadcast(tenant, &notify.Event{Type: notify.EventEditPost, Tenant: tenant, Post: post})
	return post, nil
}

func (ls *LedgerService) DeletePost(ctx context.Context, tenant, caller string, postId uint64) error {
	unlock := ls.store.Lock(tenant)
	defer unlock()

	post, err := ls.store.ReadPost(tenant, postId)
	if err != nil {
		return err
	}

	if post.Author != strings.ToLower(caller) {
		level, reason := ls.resolver.Resolve(ctx, tenant, caller, true)
		if level < access.Admin {
			if reason == "" {
				reason = "only the author or an admin can delete a post"
			}
			return models.PermissionError(reason)
		}
	}

	index, err := ls.store.ReadIndex(tenant)
	if err != nil {
		return err
	}
	kept := index.Entries[:0]
	for _, entry := range index.Entries {
		if entry.Id != postId {
			kept = append(kept, entry)
		}
	}
	index.Entries = kept

	// Ids are never renumbered or reused; only the entry goes away.
	if err := ls.store.WriteIndex(tenant, index); err != nil {
		return err
	}
	if err := ls.store.DeletePost(tenant, postId); err != nil {
		return err
	}

	ls.sink.Broadcast(tenant, &notify.Event{Type: notify.EventDeletePost, Tenant: tenant, PostId: postId})
	return nil
}
