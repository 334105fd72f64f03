// Package engine ties the graph store, scheduler, executor, merger,
// snapshot accumulator, and channel bus into the tick loop: the single
// place where a batch of candidate rewrites becomes one committed,
// content-addressed state transition plus a Receipt.
package engine

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/warpgraph/warpengine/channel"
	"github.com/warpgraph/warpengine/delta"
	"github.com/warpgraph/warpengine/exec"
	"github.com/warpgraph/warpengine/graph"
	"github.com/warpgraph/warpengine/ident"
	"github.com/warpgraph/warpengine/merge"
	"github.com/warpgraph/warpengine/receipt"
	"github.com/warpgraph/warpengine/schedule"
	"github.com/warpgraph/warpengine/snapshot"
)

// Materializer derives channel emissions from a tick's finalized op
// stream. It runs once per tick, single-threaded, after the merge
// step — channel emission is a function of the committed delta, not of
// per-worker execution, which keeps concurrency confined entirely to
// the Executor per the engine's concurrency model.
type Materializer struct {
	ChannelId ident.ChannelId
	RuleId    ident.RuleId
	Emit      func(ops []delta.WarpOp) (bytes []byte, ok bool)
}

// Engine runs the tick loop over a registered rule set and a single
// current GraphStore, swapped atomically at the end of every committed
// tick.
type Engine struct {
	cfg Config

	store atomic.Pointer[graph.Store]

	mu        sync.Mutex
	scheduler *schedule.Scheduler
	registry  *registry

	channelDecl   map[ident.ChannelId]channel.Declaration
	materializers []Materializer

	warpId      ident.WarpId
	worldlineId ident.WorldlineId
	tick        uint64
	parents     []ident.Hash // current HEAD commit_hash chain; empty before tick 0

	history map[uint64]*graph.Store // every committed tick's store, keyed by tick number; tick 0 is the genesis store
	cursors *CursorStore

	logger  zerolog.Logger
	metrics *metrics
}

// New constructs an Engine over an initial store (graph.Empty() for a
// fresh worldline) with the given config.
func New(cfg Config, initial *graph.Store) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if initial == nil {
		initial = graph.Empty()
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	writer := os.Stderr
	logger := zerolog.New(writer).Level(level).With().Timestamp().
		Str("component", "engine").Logger()
	if cfg.LogFormat == "console" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: writer})
	}

	m := newMetrics()
	if cfg.MetricsEnabled {
		m.register(prometheus.DefaultRegisterer)
	}

	e := &Engine{
		cfg:         cfg,
		scheduler:   schedule.New(),
		registry:    newRegistry(),
		channelDecl: make(map[ident.ChannelId]channel.Declaration),
		warpId:      ident.NewWarpId(cfg.WarpName),
		worldlineId: ident.NewWorldlineId(cfg.WorldlineName),
		history:     map[uint64]*graph.Store{0: initial},
		cursors:     NewCursorStore(),
		logger:      logger,
		metrics:     m,
	}
	e.store.Store(initial)
	return e, nil
}

// ViewAt returns the store committed at tick, for time-travel debugging
// reads. It returns false if no commit has reached that tick yet.
func (e *Engine) ViewAt(tick uint64) (graph.View, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.history[tick]
	return s, ok
}

// OpenSession starts a debugging session whose Cursor sits at tick 0 of
// the engine's worldline, and returns the session's id.
func (e *Engine) OpenSession() ident.SessionId {
	return e.cursors.Open(e.worldlineId).SessionId
}

// SeekSession moves sessionId's cursor to tick and returns the View
// committed there. It fails if the session is unknown or tick has not
// been committed yet.
func (e *Engine) SeekSession(sessionId ident.SessionId, tick uint64) (*Cursor, graph.View, error) {
	c, ok := e.cursors.Seek(sessionId, tick)
	if !ok {
		return nil, nil, fmt.Errorf("engine: no open session %s", sessionId)
	}
	view, ok := e.ViewAt(tick)
	if !ok {
		return nil, nil, fmt.Errorf("engine: tick %d not yet committed", tick)
	}
	return c, view, nil
}

// CloseSession ends a debugging session.
func (e *Engine) CloseSession(sessionId ident.SessionId) {
	e.cursors.Close(sessionId)
}

// Register adds a rewrite rule to the registry, recomputing schema_hash.
func (e *Engine) Register(rule RewriteRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.register(rule)
}

// DeclareChannel registers a materialization channel's policy.
func (e *Engine) DeclareChannel(id ident.ChannelId, decl channel.Declaration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.channelDecl[id] = decl
}

// RegisterMaterializer adds a tick-level channel emission hook.
func (e *Engine) RegisterMaterializer(mat Materializer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.materializers = append(e.materializers, mat)
}

// View returns the current committed GraphView. Safe to call
// concurrently with Commit: the atomic pointer load always yields either
// the pre-tick or post-tick store, never a partial one.
func (e *Engine) View() graph.View {
	return e.store.Load()
}

// SchemaHash returns the current registry's schema hash.
func (e *Engine) SchemaHash() ident.Hash {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.schemaHash
}

// Tick returns the tick number that will be assigned to the next
// committed tick.
func (e *Engine) Tick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// candidate pairs a scheduler Candidate with the rule and match it was
// derived from, so admitted candidates can be turned back into
// ExecItems after Reserve returns its (rule-agnostic) subset.
type candidate struct {
	schedule.Candidate
	rule  RewriteRule
	match Match
}

// CommitDefault runs Commit using the engine's configured
// DefaultReceiptMode, for callers that don't need to vary mode per tick.
func (e *Engine) CommitDefault() (receipt.Receipt, error) {
	return e.Commit(e.cfg.DefaultReceiptMode)
}

// Commit runs one full begin_tx → commit cycle and returns the
// Receipt for mode. Commits are strictly sequential: Commit holds the
// engine's lock for its entire duration — only the Executor stage
// inside a tick runs in parallel; everything else here is
// single-threaded per the concurrency model.
func (e *Engine) Commit(mode receipt.Mode) (receipt.Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	defer func() { e.metrics.tickDuration.Observe(time.Since(start).Seconds()) }()

	tick := e.tick
	view := e.store.Load()
	log := e.logger.With().Uint64("tick", tick).Logger()

	candidates := e.collectCandidates(view)
	admittedCands := e.scheduler.Reserve(toScheduleCandidates(candidates))
	admitted := rehydrate(candidates, admittedCands)
	e.metrics.admittedCandidate.Add(float64(len(admitted)))
	e.metrics.deferredCandidate.Add(float64(len(candidates) - len(admitted)))
	log.Debug().Int("candidates", len(candidates)).Int("admitted", len(admitted)).Msg("scheduler reserved")

	intentId := ident.NewIntentId(e.warpId, tick)
	items := buildExecItems(admitted, intentId)

	workerEntries, err := e.runExecutor(items, view)
	if err != nil {
		e.scheduler.FinalizeTx()
		return receipt.Receipt{}, fmt.Errorf("engine: executor failed: %w", err)
	}

	entries, err := merge.Merge(workerEntries)
	if err != nil {
		e.metrics.mergeConflicts.Inc()
		e.scheduler.FinalizeTx()
		log.Error().Err(err).Msg("merge conflict, tick aborted")
		return receipt.Receipt{}, err
	}

	ops := make([]delta.WarpOp, len(entries))
	for i, en := range entries {
		ops[i] = en.Op
	}

	acc := snapshot.New(view)
	acc.Apply(ops)
	stateRoot := acc.StateRoot()

	store, ok := view.(*graph.Store)
	if !ok {
		e.scheduler.FinalizeTx()
		return receipt.Receipt{}, fmt.Errorf("engine: view is not a *graph.Store")
	}
	nextStore, err := store.Apply(ops)
	if err != nil {
		e.scheduler.FinalizeTx()
		return receipt.Receipt{}, fmt.Errorf("engine: apply_ops failed: %w", err)
	}

	if e.cfg.DeltaValidate {
		reconstructed := nextStore.CanonicalStateHash()
		if reconstructed != stateRoot {
			e.scheduler.FinalizeTx()
			return receipt.Receipt{}, &StateRootMismatch{Tick: tick, Accumulated: stateRoot, Reconstructed: reconstructed}
		}
	}

	patchDigest := delta.PatchDigest(entries)

	report := e.runMaterializers(ops)
	for _, chErr := range report.Errors {
		e.metrics.channelErrors.Inc()
		log.Warn().Err(chErr).Msg("channel finalize error")
	}
	emissionsDigest := channel.EmissionsDigest(report.Channels)

	parentsUsed := e.parents
	commitHash := computeCommitHash(e.registry.schemaHash, e.warpId, tick, parentsUsed, patchDigest, stateRoot, emissionsDigest)

	e.scheduler.FinalizeTx()
	e.store.Store(nextStore)
	e.tick = tick + 1
	e.parents = []ident.Hash{commitHash}
	e.history[e.tick] = nextStore
	e.metrics.ticksTotal.Inc()

	r := receipt.Receipt{
		Mode:            mode,
		SchemaHash:      e.registry.schemaHash,
		WorldlineId:     e.worldlineId,
		Tick:            tick,
		Parents:         parentsForMode(mode, parentsUsed),
		PatchDigest:     patchDigest,
		StateRoot:       stateRoot,
		EmissionsDigest: emissionsDigest,
		CommitHash:      commitHash,
		Payload:         payloadForMode(mode, ops),
	}
	if mode == receipt.ModeLight {
		// Light receipts carry commit_hash and tick only.
		r.SchemaHash, r.PatchDigest, r.StateRoot, r.EmissionsDigest = ident.Zero, ident.Zero, ident.Zero, ident.Zero
		r.WorldlineId = ident.WorldlineId{}
	}
	log.Info().Str("commit_hash", commitHash.String()).Str("state_root", stateRoot.String()).Msg("tick committed")
	return r, nil
}

func (e *Engine) collectCandidates(view graph.View) []candidate {
	var out []candidate
	for _, rule := range e.registry.rules {
		matches := rule.Matcher(view)
		for i, m := range matches {
			fp := rule.FootprintOf(view, m)
			out = append(out, candidate{
				Candidate: schedule.Candidate{
					RuleId:    rule.Id,
					MatchIx:   uint32(i),
					FamilyId:  rule.FamilyId,
					Footprint: fp,
				},
				rule:  rule,
				match: m,
			})
		}
	}
	return out
}

func toScheduleCandidates(cands []candidate) []schedule.Candidate {
	out := make([]schedule.Candidate, len(cands))
	for i, c := range cands {
		out[i] = c.Candidate
	}
	return out
}

// rehydrate maps the Scheduler's admitted (rule-agnostic) Candidates
// back to the candidate wrapper that carries the rule/match pair, by
// (RuleId, MatchIx) identity.
func rehydrate(all []candidate, admitted []schedule.Candidate) []candidate {
	index := make(map[ident.RuleId]map[uint32]candidate, len(all))
	for _, c := range all {
		byMatch, ok := index[c.RuleId]
		if !ok {
			byMatch = make(map[uint32]candidate)
			index[c.RuleId] = byMatch
		}
		byMatch[c.MatchIx] = c
	}
	out := make([]candidate, 0, len(admitted))
	for _, a := range admitted {
		if byMatch, ok := index[a.RuleId]; ok {
			if c, ok := byMatch[a.MatchIx]; ok {
				out = append(out, c)
			}
		}
	}
	return out
}

func buildExecItems(admitted []candidate, intentId ident.IntentId) []exec.ExecItem {
	items := make([]exec.ExecItem, len(admitted))
	for i, c := range admitted {
		rule, match := c.rule, c.match
		items[i] = exec.ExecItem{
			IntentId: intentId,
			RuleId:   c.RuleId,
			MatchIx:  c.MatchIx,
			ScopeKey: schedule.ScopeHash(c.Footprint).Bytes(),
			Run: func(view graph.View, emit *delta.ScopedEmitter) {
				rule.Executor(view, match, emit)
			},
		}
	}
	return items
}

func (e *Engine) runExecutor(items []exec.ExecItem, view graph.View) ([][]delta.Entry, error) {
	if e.cfg.Workers <= 1 {
		entries, err := (exec.Serial{}).Run(items, view)
		if err != nil {
			return nil, err
		}
		return [][]delta.Entry{entries}, nil
	}
	entries, err := (exec.Sharded{Workers: e.cfg.Workers}).Run(items, view)
	if err != nil {
		return nil, err
	}
	return [][]delta.Entry{entries}, nil
}

func (e *Engine) runMaterializers(ops []delta.WarpOp) channel.FinalizeReport {
	bus := channel.NewBus(e.channelDecl)
	for i, mat := range e.materializers {
		if bytes, ok := mat.Emit(ops); ok {
			bus.Emit(channel.Emission{
				ChannelId: mat.ChannelId,
				RuleId:    mat.RuleId,
				MatchIx:   uint32(i),
				Bytes:     bytes,
			})
		}
	}
	return bus.Finalize()
}

func computeCommitHash(schemaHash ident.Hash, warpId ident.WarpId, tick uint64, parents []ident.Hash, patchDigest, stateRoot, emissionsDigest ident.Hash) ident.Hash {
	ctx := ident.NewContext(ident.TagCommit)
	ctx.Write(schemaHash.Bytes())
	ctx.Write(warpId.Bytes())
	ctx.WriteUint64(tick)
	ctx.WriteUint32(uint32(len(parents)))
	for _, p := range parents {
		ctx.Write(p.Bytes())
	}
	ctx.Write(patchDigest.Bytes())
	ctx.Write(stateRoot.Bytes())
	ctx.Write(emissionsDigest.Bytes())
	return ctx.Sum()
}

// parentsForMode omits parents in Light mode, where only commit_hash
// and tick are meant to travel.
func parentsForMode(mode receipt.Mode, parents []ident.Hash) []ident.Hash {
	if mode == receipt.ModeLight {
		return nil
	}
	return parents
}

// payloadForMode encodes op bodies only in Full mode; Proof and Light
// carry hashes only, per the receipt mode contract. Each op is
// length-prefixed so a reader can split the stream back into
// individual ops without re-deriving boundaries from content.
func payloadForMode(mode receipt.Mode, ops []delta.WarpOp) []byte {
	if mode != receipt.ModeFull {
		return nil
	}
	var out []byte
	for _, op := range ops {
		b := op.CanonicalBytes()
		var lenBuf [4]byte
		lenBuf[0] = byte(len(b))
		lenBuf[1] = byte(len(b) >> 8)
		lenBuf[2] = byte(len(b) >> 16)
		lenBuf[3] = byte(len(b) >> 24)
		out = append(out, lenBuf[:]...)
		out = append(out, b...)
	}
	return out
}
