package services

import (
	"context"
	"regexp"
	"strings"

	"dbd/internal/access"
	"dbd/internal/ledger"
	"dbd/internal/models"
	"dbd/internal/providers"
)

// DefaultChannel is the implicit channel every tenant has. It cannot be
// created, deleted or given an access list.
const DefaultChannel = "default"

var channelNamePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

type ChannelServiceInterface interface {
	List(ctx context.Context, tenant, caller string) ([]*models.Channel, error)
	Create(ctx context.Context, tenant, caller, name string, accessList []string) (*models.Channel, error)
	Delete(ctx context.Context, tenant, caller, name string) error
	Exists(tenant, name string) (bool, error)
	AccessibleNames(ctx context.Context, tenant, caller string) (map[string]struct{}, error)
}

type ChannelService struct {
	store    ledger.StoreInterface
	resolver access.ResolverInterface
	logger   providers.Logger
}

func NewChannelService(store ledger.StoreInterface, resolver access.ResolverInterface, logger providers.Logger) ChannelServiceInterface {
	return &ChannelService{store: store, resolver: resolver, logger: logger}
}

func (cs *ChannelService) List(_ context.Context, tenant, _ string) ([]*models.Channel, error) {
	cfg, err := cs.store.ReadChannels(tenant)
	if err != nil {
		return nil, err
	}
	channels := append([]*models.Channel{{Name: DefaultChannel}}, cfg.Channels...)
	return channels, nil
}

func (cs *ChannelService) Create(ctx context.Context, tenant, caller, name string, accessList []string) (*models.Channel, error) {
	if name == DefaultChannel {
		return nil, models.ValidationError("channel name %q is reserved", DefaultChannel)
	}
	if !channelNamePattern.MatchString(name) {
		return nil, models.ValidationError("channel names must match [a-z0-9-]+")
	}

	level, reason := cs.resolver.Resolve(ctx, tenant, caller, true)
	if level < access.Admin {
		if reason == "" {
			reason = "channel management requires admin access"
		}
		return nil, models.PermissionError(reason)
	}

	unlock := cs.store.Lock(tenant)
	defer unlock()

	cfg, err := cs.store.ReadChannels(tenant)
	if err != nil {
		return nil, err
	}
	for _, ch := range cfg.Channels {
		if ch.Name == name {
			return nil, models.ValidationError("channel %q already exists", name)
		}
	}

	channel := &models.Channel{Name: name, AccessList: lowercaseAll(accessList)}
	cfg.Channels = append(cfg.Channels, channel)
	if err := cs.store.WriteChannels(tenant, cfg); err != nil {
		return nil, err
	}

	cs.logger.Infof(providers.TypePost, "channel %s created for %s", name, tenant)
	return channel, nil
}

func (cs *ChannelService) Delete(ctx context.Context, tenant, caller, name string) error {
	if name == DefaultChannel {
		return models.ValidationError("the default channel cannot be deleted")
	}

	level, reason := cs.resolver.Resolve(ctx, tenant, caller, true)
	if level < access.Admin {
		if reason == "" {
			reason = "channel management requires admin access"
		}
		return models.PermissionError(reason)
	}

	unlock := cs.store.Lock(tenant)
	defer unlock()

	cfg, err := cs.store.ReadChannels(tenant)
	if err != nil {
		return err
	}
	kept := cfg.Channels[:0]
	found := false
	for _, ch := range cfg.Channels {
		if ch.Name == name {
			found = true
			continue
		}
		kept = append(kept, ch)
	}
	if !found {
		return models.NotFoundError("channel " + name)
	}
	cfg.Channels = kept

	if err := cs.store.WriteChannels(tenant, cfg); err != nil {
		return err
	}
	cs.logger.Infof(providers.TypePost, "channel %s deleted for %s", name, tenant)
	return nil
}

func (cs *ChannelService) Exists(tenant, name string) (bool, error) {
	if name == "" || name == DefaultChannel {
		return true, nil
	}
	cfg, err := cs.store.ReadChannels(tenant)
	if err != nil {
		return false, err
	}
	for _, ch := range cfg.Channels {
		if ch.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// AccessibleNames returns the channel names the caller may read.
// Always contains the default channel. Admins see everything; everyone
// else sees unrestricted channels plus access-listed channels that name
// them.
func (cs *ChannelService) AccessibleNames(ctx context.Context, tenant, caller string) (map[string]struct{}, error) {
	names := map[string]struct{}{DefaultChannel: {}}

	cfg, err := cs.store.ReadChannels(tenant)
	if err != nil {
		return nil, err
	}

	level, _ := cs.resolver.Resolve(ctx, tenant, caller, false)
	addr := strings.ToLower(caller)

	for _, ch := range cfg.Channels {
		switch {
		case level >= access.Admin:
			names[ch.Name] = struct{}{}
		case len(ch.AccessList) == 0:
			names[ch.Name] = struct{}{}
		default:
			for _, member := range ch.AccessList {
				if strings.ToLower(member) == addr {
					names[ch.Name] = struct{}{}
					break
				}
			}
		}
	}
	return names, nil
}

func lowercaseAll(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = strings.ToLower(s)
	}
	return out
}
