package ledger

import (
	"context"
	"sync"

	"github.com/roylee0704/gron"

	"dbd/internal/ledger/interfaces"
	"dbd/internal/providers"
	"dbd/internal/structures"
)

// Scheduler drives the background side of the ledger: periodic retry of
// failed batch flushes and the shutdown force-flush. The request path
// never waits on anything in here.
type Scheduler struct {
	config  *structures.Config
	logger  providers.Logger
	store   StoreInterface
	batcher BatcherInterface
	cron    *gron.Cron
	opsMu   sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = gron.New()
	retryInterval := s.config.Chain.RetryInterval

	s.cron.AddFunc(gron.Every(retryInterval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		s.batcher.RetrySweep()
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Restore resumes persisted chains for every known tenant so batches
// interrupted by a restart keep flushing without new traffic.
func (s *Scheduler) Restore() error {
	tenants, err := s.store.Tenants()
	if err != nil {
		return err
	}
	for _, tenant := range tenants {
		s.batcher.Preload(tenant)
	}
	s.logger.Infof(providers.TypeApp, "restored chain state for %d tenants", len(tenants))
	return nil
}

// Persist force-flushes every non-empty chain. Called on shutdown.
func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeApp, "flushing pending chains before exit...")
	s.batcher.FlushAll(context.Background())
	s.batcher.Close()
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, store StoreInterface, batcher BatcherInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:  config,
		logger:  logger,
		store:   store,
		batcher: batcher,
	}
}
