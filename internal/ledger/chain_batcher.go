package ledger

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
	"go.uber.org/atomic"

	"dbd/internal/models"
	"dbd/internal/providers"
	"dbd/internal/structures"
)

const enqueueBuffer = 256

// BatcherInterface rolls accepted posts into per-tenant hash chains and
// periodically seals them into anchored batch summaries. Everything in
// here is decoupled from the write path: Enqueue never blocks and no
// failure propagates back to the writer.
type BatcherInterface interface {
	Enqueue(tenant string, post *models.Post)
	RetrySweep()
	FlushAll(ctx context.Context)
	Preload(tenant string)
	ChainLengths() map[string]int
	Close()
}

// tenantChain owns one tenant's DomainLedgerState. The actor goroutine
// is the only appender; mu additionally covers flushes coming from the
// sweep and from shutdown.
type tenantChain struct {
	tenant       string
	queue        chan *models.Post
	mu           sync.Mutex
	state        *models.ChainState
	flushPending atomic.Bool
}

type Batcher struct {
	store      StoreInterface
	anchor     AnchorClientInterface
	settlement SettlementInterface
	signer     SignerInterface
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
	threshold  int

	mu      sync.Mutex
	tenants map[string]*tenantChain
	quit    chan struct{}
	wg      sync.WaitGroup
}

func NewBatcher(conf *structures.Config, store StoreInterface, anchor AnchorClientInterface, settlement SettlementInterface, signer SignerInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) BatcherInterface {
	return &Batcher{
		store:      store,
		anchor:     anchor,
		settlement: settlement,
		signer:     signer,
		logger:     logger,
		metrics:    metrics,
		threshold:  conf.Chain.BatchThreshold,
		tenants:    make(map[string]*tenantChain),
		quit:       make(chan struct{}),
	}
}

// Enqueue hands an accepted post to the tenant's chain actor. Never
// blocks: when the queue is saturated the post is skipped and logged,
// the canonical record is already durable either way.
func (b *Batcher) Enqueue(tenant string, post *models.Post) {
	tc := b.tenantChain(tenant)
	select {
	case tc.queue <- post:
	case <-b.quit:
		b.logger.Warnf(providers.TypeApp, "chain batcher stopped, post %d for %s not chained", post.Id, tenant)
	default:
		b.logger.Errorf(providers.TypeApp, "chain queue full for %s, post %d not chained", tenant, post.Id)
	}
}

func (b *Batcher) tenantChain(tenant string) *tenantChain {
	b.mu.Lock()
	defer b.mu.Unlock()

	tc, ok := b.tenants[tenant]
	if !ok {
		tc = &tenantChain{tenant: tenant, queue: make(chan *models.Post, enqueueBuffer)}
		b.tenants[tenant] = tc
		b.wg.Add(1)
		go b.run(tc)
	}
	return tc
}

func (b *Batcher) run(tc *tenantChain) {
	defer b.wg.Done()
	for {
		select {
		case post := <-tc.queue:
			b.appendLink(tc, post)
		case <-b.quit:
			return
		}
	}
}

// appendLink is the Linking/Anchoring/Flushing state machine for one
// accepted post.
func (b *Batcher) appendLink(tc *tenantChain, post *models.Post) {
	canonical, err := canonicalEncode(post)
	if err != nil {
		b.logger.Errorf(providers.TypeApp, "canonical encode of post %d for %s: %s", post.Id, tc.tenant, err)
		return
	}

	for {
		tc.mu.Lock()
		if !b.ensureStateLocked(tc) {
			tc.mu.Unlock()
			return
		}

		link := &models.ChainLink{
			Post:         post,
			Hash:         linkHash(canonical, tc.state.LastHash),
			PreviousHash: tc.state.LastHash,
			Index:        uint64(len(tc.state.Chain)),
		}
		link.ServerSignature = b.signer.Sign([]byte(link.Hash))
		tc.mu.Unlock()

		// Anchoring happens outside the lock, so a sweep or shutdown
		// flush may seal the chain meanwhile. The append below only
		// goes through if the link still attaches to the current root.
		ref, err := b.anchor.AnchorLink(context.Background(), tc.tenant, link, b.signer.PublicKey())
		if err != nil {
			b.metrics.IncAnchorFailures()
			b.logger.Warnf(providers.TypeApp, "anchor link %d for %s: %s", link.Index, tc.tenant, err)
		} else {
			link.AnchorRef = ref
		}

		tc.mu.Lock()
		if tc.state.LastHash != link.PreviousHash {
			tc.mu.Unlock()
			b.logger.Infof(providers.TypeApp, "chain for %s flushed during anchoring, relinking post %d", tc.tenant, post.Id)
			continue
		}

		tc.state.Chain = append(tc.state.Chain, link)
		tc.state.LastHash = link.Hash
		b.persistLocked(tc)
		b.metrics.SetChainLength(tc.tenant, len(tc.state.Chain))

		if len(tc.state.Chain) >= b.threshold {
			b.flushLocked(tc)
		}
		tc.mu.Unlock()
		return
	}
}

// flushLocked seals the current chain into a BatchSummary. On anchoring
// failure the chain stays intact and the batch is retried on the next
// eligible trigger; no link is ever lost.
func (b *Batcher) flushLocked(tc *tenantChain) {
	start := time.Now()

	entries := make([]*models.BatchEntry, 0, len(tc.state.Chain))
	for _, link := range tc.state.Chain {
		entries = append(entries, &models.BatchEntry{
			Id:        link.Post.Id,
			Hash:      link.Hash,
			AnchorRef: link.AnchorRef,
			Author:    link.Post.Author,
			Timestamp: link.Post.Timestamp,
		})
	}
	summary := &models.BatchSummary{
		Entries:   entries,
		ChainRoot: tc.state.LastHash,
		Count:     uint32(len(entries)),
		Timestamp: time.Now().UnixMilli(),
	}

	if _, err := b.anchor.AnchorSummary(context.Background(), tc.tenant, summary); err != nil {
		tc.flushPending.Store(true)
		b.metrics.IncAnchorFailures()
		b.metrics.IncBatchFlushes("failure")
		b.logger.Warnf(providers.TypeApp, "anchor batch summary for %s: %s, will retry", tc.tenant, err)
		return
	}

	if err := b.settlement.SubmitRoot(context.Background(), tc.tenant, summary.ChainRoot); err != nil {
		b.logger.Warnf(providers.TypeApp, "settlement submit for %s: %s", tc.tenant, err)
	}

	// Rehash the root so the fresh chain links to the sealed batch
	// without re-exposing its plaintext-derived hash.
	tc.state.Chain = tc.state.Chain[:0]
	tc.state.LastHash = rehash(tc.state.LastHash)
	tc.state.LastFlushAt = time.Now().UnixMilli()
	tc.flushPending.Store(false)
	b.persistLocked(tc)

	b.metrics.IncBatchFlushes("success")
	b.metrics.ObserveFlushDuration(time.Since(start))
	b.metrics.SetChainLength(tc.tenant, 0)
	b.logger.Infof(providers.TypeApp, "flushed batch of %d links for %s", summary.Count, tc.tenant)
}

func (b *Batcher) ensureStateLocked(tc *tenantChain) bool {
	if tc.state != nil {
		return true
	}
	state, err := b.store.ReadChainState(tc.tenant)
	if err != nil {
		b.logger.Errorf(providers.TypeApp, "load chain state for %s: %s", tc.tenant, err)
		return false
	}
	tc.state = state
	return true
}

func (b *Batcher) persistLocked(tc *tenantChain) {
	if err := b.store.WriteChainState(tc.tenant, tc.state); err != nil {
		b.logger.Errorf(providers.TypeApp, "persist chain state for %s: %s", tc.tenant, err)
	}
}

// RetrySweep re-attempts batches whose summary anchoring failed.
// Called periodically by the scheduler.
func (b *Batcher) RetrySweep() {
	for _, tc := range b.snapshot() {
		if !tc.flushPending.Load() {
			continue
		}
		tc.mu.Lock()
		if tc.state != nil && len(tc.state.Chain) >= b.threshold {
			b.flushLocked(tc)
		}
		tc.mu.Unlock()
	}
}

// FlushAll force-flushes every non-empty chain regardless of the
// threshold. Used at shutdown; duration is bounded by the anchor
// client's timeout.
func (b *Batcher) FlushAll(_ context.Context) {
	for _, tc := range b.snapshot() {
		tc.mu.Lock()
		if tc.state != nil && len(tc.state.Chain) > 0 {
			b.flushLocked(tc)
		}
		tc.mu.Unlock()
	}
}

// Preload materializes a tenant's persisted chain so a restart resumes
// batching without waiting for new posts.
func (b *Batcher) Preload(tenant string) {
	tc := b.tenantChain(tenant)
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if !b.ensureStateLocked(tc) {
		return
	}
	b.metrics.SetChainLength(tenant, len(tc.state.Chain))
	if len(tc.state.Chain) >= b.threshold {
		tc.flushPending.Store(true)
	}
}

func (b *Batcher) ChainLengths() map[string]int {
	lengths := make(map[string]int)
	for _, tc := range b.snapshot() {
		tc.mu.Lock()
		if tc.state != nil {
			lengths[tc.tenant] = len(tc.state.Chain)
		}
		tc.mu.Unlock()
	}
	return lengths
}

func (b *Batcher) snapshot() []*tenantChain {
	b.mu.Lock()
	defer b.mu.Unlock()
	chains := make([]*tenantChain, 0, len(b.tenants))
	for _, tc := range b.tenants {
		chains = append(chains, tc)
	}
	return chains
}

func (b *Batcher) Close() {
	close(b.quit)
	b.wg.Wait()
}

var chainEncMode cbor.EncMode

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	chainEncMode = em
}

// canonicalEncode produces the deterministic byte form of a post used
// for link hashing. JSON is unsuitable here, map ordering is not stable.
func canonicalEncode(post *models.Post) ([]byte, error) {
	return chainEncMode.Marshal(post)
}

func linkHash(canonical []byte, previousHash string) string {
	h := blake3.New()
	_, _ = h.Write(canonical)
	_, _ = h.Write([]byte(previousHash))
	return hex.EncodeToString(h.Sum(nil))
}

func rehash(lastHash string) string {
	sum := blake3.Sum256([]byte(lastHash))
	return hex.EncodeToString(sum[:])
}
