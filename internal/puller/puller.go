// Package puller implements the Puller State Machine (§4.7): the
// periodic (or on-demand) tick that discovers new package versions in
// the object store, pulls them (by delta when possible, full otherwise),
// verifies, installs, registers, and invalidates the Response Cache.
package puller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"vkp/internal/blobstore"
	"vkp/internal/cache"
	"vkp/internal/codec"
	"vkp/internal/delta"
	"vkp/internal/logging"
	"vkp/internal/objectstore"
	"vkp/internal/registry"
	"vkp/internal/seal"
	"vkp/internal/vectorindex"
	"vkp/internal/vkp"
)

// ErrIntegrityFailure means the fetched package's checksum does not match
// its content (§4.7 Verify step, §7 IntegrityFailure).
var ErrIntegrityFailure = errors.New("puller: integrity failure")

// Puller wires together the Object-Store Client, the local blob cache,
// the Version Registry, the Vector Index Adapter, and the Response Cache
// into the tick described by §4.7.
type Puller struct {
	Store    objectstore.Client
	Blobs    *blobstore.Store
	Registry registry.Registry
	Index    vectorindex.Adapter
	Cache    cache.Cache

	// Check probes connectivity before Enumerate. Defaults to a TCP dial
	// against DefaultConnectivityAddr if nil.
	Check ConnectivityChecker

	// Concurrency bounds how many triples' candidates are processed in
	// parallel (§9: "a target may wrap each candidate in its own task to
	// parallelize across triples"). Defaults to 4 if <= 0.
	Concurrency int

	Logger *slog.Logger
}

// New builds a Puller with the given collaborators and default
// connectivity/concurrency settings.
func New(store objectstore.Client, blobs *blobstore.Store, reg registry.Registry, index vectorindex.Adapter, respCache cache.Cache, logger *slog.Logger) *Puller {
	return &Puller{
		Store:       store,
		Blobs:       blobs,
		Registry:    reg,
		Index:       index,
		Cache:       respCache,
		Concurrency: 4,
		Logger:      logging.Default(logger),
	}
}

func (p *Puller) checker() ConnectivityChecker {
	if p.Check != nil {
		return p.Check
	}
	return DialProbe(DefaultConnectivityAddr, DefaultConnectivityTimeout)
}

func (p *Puller) concurrency() int {
	if p.Concurrency <= 0 {
		return 4
	}
	return p.Concurrency
}

// Tick runs one full Probe → Enumerate → per-candidate pipeline (§4.7).
func (p *Puller) Tick(ctx context.Context) (Tally, error) {
	logger := logging.Default(p.Logger)

	if err := p.checker()(ctx); err != nil {
		logger.Info("puller: offline, skipping tick", "error", err)
		return Tally{Offline: true}, nil
	}

	candidates, err := p.enumerate(ctx)
	if err != nil {
		return Tally{}, fmt.Errorf("puller: enumerate: %w", err)
	}

	var (
		mu    sync.Mutex
		tally Tally
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency())

	for _, c := range candidates {
		c := c
		g.Go(func() error {
			outcome := p.processCandidate(gctx, c)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case outcome.skipped:
				tally.Skipped++
			case outcome.err != nil:
				tally.recordFailure(c.Triple, c.Version, outcome.stage, outcome.err)
			default:
				tally.Successful++
			}
			return nil
		})
	}
	// errgroup's own error is never set: processCandidate never returns a
	// group-aborting error, each candidate's failure is recorded in tally
	// instead, per §4.7 "one failure does not abort the batch".
	_ = g.Wait()

	logger.Info("puller: tick complete",
		"candidates", len(candidates), "successful", tally.Successful,
		"failed", tally.Failed, "skipped", tally.Skipped)
	return tally, nil
}

// enumerate lists the remote namespace and keeps, per triple, the single
// highest full-package version that is strictly greater than whatever is
// currently installed under that triple (discovery uses Semester=1 per
// §4.6/§9; see processCandidate in this package for the authoritative
// re-check against the package's true semester once decoded).
func (p *Puller) enumerate(ctx context.Context) ([]objectstore.Candidate, error) {
	infos, err := p.Store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	best := make(map[vkp.Triple]objectstore.Candidate)
	for _, info := range infos {
		c, err := objectstore.ParseCandidate(info)
		if err != nil {
			continue // not a package key (§4.7 Enumerate: "parse every .vkp key")
		}
		if c.IsDelta {
			continue // deltas are fetched on demand in TryDelta, not enumerated as candidates
		}

		installed, ok, err := p.Registry.Installed(ctx, c.Triple)
		if err != nil {
			return nil, fmt.Errorf("installed(%s): %w", c.Triple.CollectionName(), err)
		}
		if ok {
			cmp, err := p.Registry.Compare(c.Version, installed)
			if err != nil || cmp != vkp.OrderGT {
				continue
			}
		}

		cur, exists := best[c.Triple]
		if !exists {
			best[c.Triple] = c
			continue
		}
		cmp, err := p.Registry.Compare(c.Version, cur.Version)
		if err == nil && cmp == vkp.OrderGT {
			best[c.Triple] = c
		}
	}

	out := make([]objectstore.Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	return out, nil
}

type candidateOutcome struct {
	skipped bool
	stage   Stage
	err     error
}

// processCandidate runs TryDelta → FullFetch → Verify → Install →
// Register → Invalidate for one candidate (§4.7). Steps within a triple
// are strictly sequential, preserving the single-writer invariant of §5.
func (p *Puller) processCandidate(ctx context.Context, c objectstore.Candidate) candidateOutcome {
	pkg, stage, err := p.fetch(ctx, c)
	if err != nil {
		return candidateOutcome{stage: stage, err: err}
	}

	// Authoritative re-check: the package's true semester (read from its
	// body) may differ from the Semester=1 placeholder used at discovery
	// time (SPEC_FULL.md open-question resolution). Confirm the decoded
	// version is still strictly newer under the true triple before doing
	// anything observable.
	installed, ok, err := p.Registry.Installed(ctx, pkg.Triple)
	if err != nil {
		return candidateOutcome{stage: StageVerify, err: fmt.Errorf("installed(%s): %w", pkg.Triple.CollectionName(), err)}
	}
	if ok {
		cmp, err := p.Registry.Compare(pkg.Version, installed)
		if err != nil {
			return candidateOutcome{stage: StageVerify, err: err}
		}
		if cmp != vkp.OrderGT {
			return candidateOutcome{skipped: true}
		}
	}

	if ok2, err := seal.Verify(pkg); err != nil || !ok2 {
		if err == nil {
			err = ErrIntegrityFailure
		}
		return candidateOutcome{stage: StageVerify, err: fmt.Errorf("%w: %s v%s", err, pkg.Triple.CollectionName(), pkg.Version)}
	}

	if err := p.install(ctx, pkg); err != nil {
		return candidateOutcome{stage: StageInstall, err: err}
	}

	if err := p.Registry.Register(ctx, pkg.Triple, pkg.Version, len(pkg.Chunks), pkg.Checksum); err != nil {
		return candidateOutcome{stage: StageRegister, err: err}
	}

	if p.Blobs != nil {
		if err := p.Blobs.Save(pkg); err != nil {
			logging.Default(p.Logger).Warn("puller: failed to persist blob after install",
				"triple", pkg.Triple.CollectionName(), "version", pkg.Version, "error", err)
		}
	}

	p.invalidate(ctx, pkg)
	return candidateOutcome{}
}

// fetch implements TryDelta then FullFetch (§4.7 steps 1-2).
func (p *Puller) fetch(ctx context.Context, c objectstore.Candidate) (*vkp.Package, Stage, error) {
	if pkg, err := p.tryDelta(ctx, c); err == nil {
		return pkg, "", nil
	}

	data, err := p.Store.Get(ctx, objectstore.FullKey(c.Triple.Subject, c.Triple.Grade, c.Version))
	if err != nil {
		return nil, StageFullFetch, fmt.Errorf("get full key: %w", err)
	}
	pkg, err := codec.Decode(data)
	if err != nil {
		return nil, StageFullFetch, fmt.Errorf("decode full package: %w", err)
	}
	return pkg, "", nil
}

// tryDelta attempts the delta path: a local base must exist (in the blob
// store), the remote delta key must exist, decode, and apply cleanly.
// Any failure here is expected and silent — the caller falls back to
// FullFetch (§4.7: "on any delta failure (missing, decode error, apply
// error), fall back to get of the full key").
func (p *Puller) tryDelta(ctx context.Context, c objectstore.Candidate) (*vkp.Package, error) {
	if p.Blobs == nil {
		return nil, errors.New("puller: no local blob store configured")
	}
	base, ok, err := p.Blobs.Load(c.Triple)
	if err != nil || !ok {
		return nil, fmt.Errorf("puller: no local base for %s", c.Triple.CollectionName())
	}

	deltaKey := objectstore.DeltaKey(c.Triple.Subject, c.Triple.Grade, c.Version)
	if _, err := p.Store.Head(ctx, deltaKey); err != nil {
		return nil, fmt.Errorf("puller: head delta key: %w", err)
	}

	data, err := p.Store.Get(ctx, deltaKey)
	if err != nil {
		return nil, fmt.Errorf("puller: get delta key: %w", err)
	}
	d, err := codec.DecodeDelta(data)
	if err != nil {
		return nil, fmt.Errorf("puller: decode delta: %w", err)
	}
	pkg, err := delta.Apply(base, d)
	if err != nil {
		return nil, fmt.Errorf("puller: apply delta: %w", err)
	}
	return pkg, nil
}

// install hands every chunk to the Vector Index Adapter (§4.7 step 4,
// §4.8). Failure here must not reach Register: the spec's tolerance for
// a mixed vector-index state depends on the registry never activating an
// only-partially-ingested version.
func (p *Puller) install(ctx context.Context, pkg *vkp.Package) error {
	name := pkg.Triple.CollectionName()
	if err := p.Index.UpsertCollection(ctx, name, pkg.Chunks); err != nil {
		return fmt.Errorf("upsert collection %s: %w", name, err)
	}
	return nil
}

// invalidate drops every Response Cache entry (§4.7 step 6). The key
// derivation (§4.9) is a one-way hash with no subject/version prefix to
// scope a narrower deletion by, so the whole response-cache namespace is
// flushed (SPEC_FULL.md Open Question Decision 2) — conservative, but
// correct: a cache miss after a successful install never serves a stale
// answer, which is the only property §8 requires. A failure here is
// logged, not fatal: the registry has already committed the new active
// version (§4.7's Register happens before Invalidate), and a stale
// response is at worst overwritten on its own TTL.
func (p *Puller) invalidate(ctx context.Context, pkg *vkp.Package) {
	if p.Cache == nil {
		return
	}
	if err := p.Cache.DeleteMatching(ctx, cache.KeyPrefix+"*"); err != nil {
		logging.Default(p.Logger).Warn("puller: cache invalidation failed",
			"triple", pkg.Triple.CollectionName(), "version", pkg.Version, "error", err)
	}
}
