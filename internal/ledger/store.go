package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	json "github.com/goccy/go-json"

	"dbd/internal/ledger/interfaces"
	"dbd/internal/models"
	"dbd/internal/providers"
	"dbd/internal/structures"
)

const (
	indexFile    = "index.json"
	channelsFile = "channels.json"
	chainFile    = "chain.dat"
	settingsFile = "settings.json"
	postsDir     = "posts"
)

// StoreInterface is the durable per-tenant keyspace: one index record,
// one file per post, one chain-state record, one channel record.
// A missing tenant reads as an empty ledger, never as an error.
type StoreInterface interface {
	Lock(tenant string) func()

	ReadIndex(tenant string) (*models.Index, error)
	WriteIndex(tenant string, index *models.Index) error
	ReadPost(tenant string, id uint64) (*models.Post, error)
	WritePost(tenant string, post *models.Post) error
	DeletePost(tenant string, id uint64) error

	ReadChainState(tenant string) (*models.ChainState, error)
	WriteChainState(tenant string, state *models.ChainState) error

	ReadChannels(tenant string) (*models.ChannelConfig, error)
	WriteChannels(tenant string, cfg *models.ChannelConfig) error

	ReadSettings() (*models.ImageSettings, error)
	WriteSettings(settings *models.ImageSettings) error

	Tenants() ([]string, error)
}

type Store struct {
	dataDir    string
	compressor interfaces.CompressorInterface
	logger     providers.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewStore(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger) (StoreInterface, error) {
	if err := os.MkdirAll(conf.Board.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{
		dataDir:    conf.Board.DataDir,
		compressor: compressor,
		logger:     logger,
		locks:      make(map[string]*sync.Mutex),
	}, nil
}

// Lock serializes writers for a single tenant. Tenants never contend
// with each other; the registry mutex only guards the map itself.
func (s *Store) Lock(tenant string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[tenant]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[tenant] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func (s *Store) tenantDir(tenant string) string {
	return filepath.Join(s.dataDir, tenant)
}

func (s *Store) postPath(tenant string, id uint64) string {
	return filepath.Join(s.tenantDir(tenant), postsDir, strconv.FormatUint(id, 10)+".json")
}

// legacyPath is the pre-index monolithic store: one JSON blob per
// tenant holding every post.
func (s *Store) legacyPath(tenant string) string {
	return filepath.Join(s.dataDir, tenant+".json")
}

func (s *Store) ReadIndex(tenant string) (*models.Index, error) {
	path := filepath.Join(s.tenantDir(tenant), indexFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s.migrateOrEmpty(tenant)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read index for %s: %s", models.ErrStorage, tenant, err)
	}

	var index models.Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("%w: index for %s: %s", models.ErrCorrupt, tenant, err)
	}
	return &index, nil
}

// migrateOrEmpty runs the one-time legacy migration when the old
// monolith exists, otherwise hands back a fresh ledger. Once an index
// has been written, ReadIndex never comes back here.
func (s *Store) migrateOrEmpty(tenant string) (*models.Index, error) {
	data, err := os.ReadFile(s.legacyPath(tenant))
	if os.IsNotExist(err) {
		return &models.Index{NextId: 1, Entries: []*models.IndexEntry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read legacy store for %s: %s", models.ErrStorage, tenant, err)
	}

	var legacy models.LegacyStore
	if err := json.Unmarshal(data, &legacy); err != nil {
		s.logger.Warnf(providers.TypeApp, "legacy store for %s is unreadable, starting empty: %s", tenant, err)
		return &models.Index{NextId: 1, Entries: []*models.IndexEntry{}}, nil
	}

	s.logger.Warnf(providers.TypeApp, "migrating legacy store for %s (%d posts)", tenant, len(legacy.Posts))

	index := &models.Index{NextId: legacy.NextId, Entries: []*models.IndexEntry{}}
	var maxId uint64
	for _, post := range legacy.Posts {
		if err := s.WritePost(tenant, post); err != nil {
			return nil, err
		}
		index.Entries = append(index.Entries, IndexEntryFor(post))
		if post.Id > maxId {
			maxId = post.Id
		}
	}
	sort.Slice(index.Entries, func(i, j int) bool { return index.Entries[i].Id < index.Entries[j].Id })
	if index.NextId <= maxId {
		index.NextId = maxId + 1
	}
	if index.NextId == 0 {
		index.NextId = 1
	}

	if err := s.WriteIndex(tenant, index); err != nil {
		return nil, err
	}
	s.logger.Infof(providers.TypeApp, "migration for %s complete, nextId=%d", tenant, index.NextId)
	return index, nil
}

func (s *Store) WriteIndex(tenant string, index *models.Index) error {
	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("%w: encode index for %s: %s", models.ErrStorage, tenant, err)
	}
	return s.atomicWrite(filepath.Join(s.tenantDir(tenant), indexFile), data)
}

func (s *Store) ReadPost(tenant string, id uint64) (*models.Post, error) {
	data, err := os.ReadFile(s.postPath(tenant, id))
	if os.IsNotExist(err) {
		return nil, models.NotFoundError(fmt.Sprintf("post %d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read post %d for %s: %s", models.ErrStorage, id, tenant, err)
	}

	var post models.Post
	if err := json.Unmarshal(data, &post); err != nil {
		return nil, fmt.Errorf("%w: post %d for %s: %s", models.ErrCorrupt, id, tenant, err)
	}
	return &post, nil
}

func (s *Store) WritePost(tenant string, post *models.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("%w: encode post %d for %s: %s", models.ErrStorage, post.Id, tenant, err)
	}
	return s.atomicWrite(s.postPath(tenant, post.Id), data)
}

func (s *Store) DeletePost(tenant string, id uint64) error {
	err := os.Remove(s.postPath(tenant, id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: delete post %d for %s: %s", models.ErrStorage, id, tenant, err)
	}
	return nil
}

func (s *Store) ReadChainState(tenant string) (*models.ChainState, error) {
	data, err := os.ReadFile(filepath.Join(s.tenantDir(tenant), chainFile))
	if os.IsNotExist(err) {
		return &models.ChainState{Chain: []*models.ChainLink{}, LastHash: models.GenesisHash}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read chain state for %s: %s", models.ErrStorage, tenant, err)
	}

	raw, err := s.compressor.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%w: chain state for %s: %s", models.ErrCorrupt, tenant, err)
	}
	var state models.ChainState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("%w: chain state for %s: %s", models.ErrCorrupt, tenant, err)
	}
	if state.LastHash == "" {
		state.LastHash = models.GenesisHash
	}
	return &state, nil
}

func (s *Store) WriteChainState(tenant string, state *models.ChainState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: encode chain state for %s: %s", models.ErrStorage, tenant, err)
	}
	data, err := s.compressor.Compress(raw)
	if err != nil {
		return fmt.Errorf("%w: compress chain state for %s: %s", models.ErrStorage, tenant, err)
	}
	return s.atomicWrite(filepath.Join(s.tenantDir(tenant), chainFile), data)
}

func (s *Store) ReadChannels(tenant string) (*models.ChannelConfig, error) {
	data, err := os.ReadFile(filepath.Join(s.tenantDir(tenant), channelsFile))
	if os.IsNotExist(err) {
		return &models.ChannelConfig{Channels: []*models.Channel{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read channels for %s: %s", models.ErrStorage, tenant, err)
	}

	var cfg models.ChannelConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: channels for %s: %s", models.ErrCorrupt, tenant, err)
	}
	return &cfg, nil
}

func (s *Store) WriteChannels(tenant string, cfg *models.ChannelConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("%w: encode channels for %s: %s", models.ErrStorage, tenant, err)
	}
	return s.atomicWrite(filepath.Join(s.tenantDir(tenant), channelsFile), data)
}

func (s *Store) ReadSettings() (*models.ImageSettings, error) {
	data, err := os.ReadFile(filepath.Join(s.dataDir, settingsFile))
	if os.IsNotExist(err) {
		return models.DefaultImageSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read settings: %s", models.ErrStorage, err)
	}

	var settings models.ImageSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		s.logger.Warnf(providers.TypeApp, "settings record unreadable, using defaults: %s", err)
		return models.DefaultImageSettings(), nil
	}
	return &settings, nil
}

func (s *Store) WriteSettings(settings *models.ImageSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("%w: encode settings: %s", models.ErrStorage, err)
	}
	return s.atomicWrite(filepath.Join(s.dataDir, settingsFile), data)
}

func (s *Store) Tenants() ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("%w: list tenants: %s", models.ErrStorage, err)
	}
	tenants := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			tenants = append(tenants, e.Name())
		}
	}
	return tenants, nil
}

// atomicWrite goes through tmp-write-sync-rename so a crash
// never leaves a half-written record behind.
func (s *Store) atomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir for %s: %s", models.ErrStorage, path, err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: create %s: %s", models.ErrStorage, tmpPath, err)
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: write %s: %s", models.ErrStorage, tmpPath, err)
	}
	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: sync %s: %s", models.ErrStorage, tmpPath, err)
	}
	if err = file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: close %s: %s", models.ErrStorage, tmpPath, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename %s: %s", models.ErrStorage, path, err)
	}
	return nil
}

func IndexEntryFor(post *models.Post) *models.IndexEntry {
	return &models.IndexEntry{
		Id:        post.Id,
		Author:    post.Author,
		Timestamp: post.Timestamp,
		Channel:   post.Channel,
	}
}
