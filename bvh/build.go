// Copyright 2025 go-bvh Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bvh

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/ajroetker/go-bvh/arena"
	"github.com/ajroetker/go-bvh/internal/parallel"
)

// NodeRef is opaque to the builder; the host encodes internal-node vs
// leaf distinctions however it likes.
type NodeRef any

// Config holds the driver's tunable parameters: branching factor,
// leaf-size bounds, recursion-depth cap, block rounding for the SAH
// cost, traversal/intersection cost constants, and the size threshold
// above which a subtree is built in parallel.
type Config struct {
	N                 int
	MinLeafSize       int
	MaxLeafSize       int
	MaxDepthLeaf      int
	LogBlockSize      int
	TravCost          float32
	IntCost           float32
	ParallelThreshold int
}

// DefaultConfig returns the configuration used when a host has no
// reason to override the defaults: binary branching, a plain,
// zero-argument-friendly constructor rather than a tag-driven config
// struct.
func DefaultConfig() Config {
	return Config{
		N:                 2,
		MinLeafSize:       1,
		MaxLeafSize:       8,
		MaxDepthLeaf:      64,
		LogBlockSize:      0,
		TravCost:          1,
		IntCost:           1,
		ParallelThreshold: 4096,
	}
}

// Validate rejects configurations the driver cannot act on.
func (c Config) Validate() error {
	if c.N <= 0 {
		return fmt.Errorf("bvh: Config.N must be positive, got %d", c.N)
	}
	if c.MinLeafSize > c.MaxLeafSize {
		return fmt.Errorf("bvh: Config.MinLeafSize (%d) > MaxLeafSize (%d)", c.MinLeafSize, c.MaxLeafSize)
	}
	if c.LogBlockSize < 0 {
		return fmt.Errorf("bvh: Config.LogBlockSize must be >= 0, got %d", c.LogBlockSize)
	}
	return nil
}

// ContinueOrCancel is the result of a Progress callback invocation.
type ContinueOrCancel int

const (
	Continue ContinueOrCancel = iota
	Cancel
)

// Callbacks are the host hooks the driver calls to materialize nodes
// and report progress.
type Callbacks struct {
	// CreateNode installs an internal node over children (length <=
	// cfg.N, in left-to-right order) and the node's own geomBounds.
	CreateNode func(children []NodeRef, bounds BBox, alloc *arena.Allocator) (NodeRef, error)
	// CreateLeaf installs a leaf over prims[rec.Begin:rec.End].
	CreateLeaf func(prims []PrimRef, begin, end int, bounds BBox, alloc *arena.Allocator) (NodeRef, error)
	// Progress is invoked once per split step of the driver's
	// branching loop, after that step's partition and the binning of
	// its two new child ranges; returning Cancel aborts the build. The
	// binning a record gets before its leaf/split decision is not
	// followed by a call of its own.
	Progress func(workDone int) ContinueOrCancel
}

// BuildRecord is the driver's working set for one subtree: a primitive
// range, its aggregate info, recursion depth, and nothing else — the
// resulting NodeRef is returned up the call stack rather than stored
// through a mutable parent-slot pointer.
type BuildRecord struct {
	Begin, End int
	Info       PrimInfo
	Depth      int
}

// Stats summarizes a completed build, the moral equivalent of the
// build-time diagnostics a structured logger would otherwise carry.
type Stats struct {
	NodeCount    int
	LeafCount    int
	MaxDepth     int
	TotalSAHCost float32 // not computed by Build; always 0
}

// openChild is one entry in the branching heap: a BuildRecord paired
// with the Split the driver already computed for it, so the heap can
// compare children by splitSAH without recomputing anything.
type openChild struct {
	rec   BuildRecord
	split Split
	bin   *BinInfo
}

// childHeap is a max-heap over openChild keyed by split SAH cost, so
// the driver always opens the largest-SAH-cost child next; ties are
// broken by lowest Begin index so the branching decision stays
// deterministic regardless of worker count or heap insertion order.
// A child with no valid split always sorts behind every child that has
// one, regardless of SAH: it is only ever opened (via FallbackSplit)
// once no valid-split sibling remains.
type childHeap []openChild

func (h childHeap) Len() int { return len(h) }
func (h childHeap) Less(i, j int) bool {
	vi, vj := h[i].split.Valid(), h[j].split.Valid()
	if vi != vj {
		return vi
	}
	if h[i].split.SAH != h[j].split.SAH {
		return h[i].split.SAH > h[j].split.SAH
	}
	return h[i].rec.Begin < h[j].rec.Begin
}
func (h childHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *childHeap) Push(x any)        { *h = append(*h, x.(openChild)) }
func (h *childHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// DebugAssertions gates an internal cross-check: when true, a
// partition whose observed mid disagrees with the Binner's predicted
// left count panics instead of silently trusting the partition's own
// accumulated PrimInfo (which is what actually ends up in the tree
// either way). Off by default; the check costs an extra pass over the
// bin accumulator per partition.
var DebugAssertions = false

// Build constructs a BVH over prims, invoking cb to materialize nodes
// and leaves as it goes. prims is mutably borrowed for the duration of
// the call: its multiset is preserved but element order is permuted.
// Empty input is not an error; Build returns a zero-primitive leaf.
func Build(prims []PrimRef, pinfo PrimInfo, cfg Config, cb Callbacks, ar *arena.Arena) (NodeRef, Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, Stats{}, &BuildError{Kind: KindCallback, Err: err}
	}

	pool := parallel.New(0)
	defer pool.Close()

	b := &builder{prims: prims, cfg: cfg, cb: cb, arena: ar, pool: pool}

	if pinfo.Size() == 0 {
		b.stats.LeafCount++
		alloc := ar.For(0)
		leaf, err := cb.CreateLeaf(prims, 0, 0, EmptyBBox(), alloc)
		if err != nil {
			return nil, b.stats, &BuildError{Kind: classifyErr(err), Err: err}
		}
		return leaf, b.stats, nil
	}

	root, err := b.recurse(BuildRecord{Begin: pinfo.Begin, End: pinfo.End, Info: pinfo, Depth: 0}, 0)
	if err != nil {
		return nil, b.stats, err
	}
	return root, b.stats, nil
}

// classifyErr picks the BuildError.Kind a host-callback-returned error
// should be reported under: KindAllocation when the cause traces back
// to an exhausted arena budget, KindCallback for everything else.
func classifyErr(err error) ErrorKind {
	if errors.Is(err, arena.ErrOutOfMemory) {
		return KindAllocation
	}
	return KindCallback
}

type builder struct {
	prims     []PrimRef
	cfg       Config
	cb        Callbacks
	arena     *arena.Arena
	pool      *parallel.Pool
	stats     Stats
	cancelled atomic.Bool
}

// recurse makes the leaf/split decision for rec and, if splitting,
// drives the N-ary branching below it, on the pool slot identified by
// workerIndex.
func (b *builder) recurse(rec BuildRecord, workerIndex int) (NodeRef, error) {
	if b.cancelled.Load() {
		return nil, ErrCancelled
	}

	if rec.Depth > b.stats.MaxDepth {
		b.stats.MaxDepth = rec.Depth
	}

	if b.isLeaf(rec) {
		return b.makeLeaf(rec, workerIndex)
	}

	split, bin := b.bestSplit(rec)
	if !b.shouldSplit(rec, split) {
		return b.makeLeaf(rec, workerIndex)
	}

	children, err := b.openChildren(rec, split, bin)
	if err != nil {
		return nil, err
	}
	return b.buildChildren(rec, children, workerIndex)
}

// isLeaf covers the two leaf triggers that don't need a Split to
// evaluate: hitting the depth cap, and the range already being at or
// below MinLeafSize. The size-vs-cost trigger, and the degenerate-
// centroid case, both depend on a Mapping/Split that doesn't exist
// yet, so they're folded into shouldSplit below: a degenerate range
// simply produces a Mapping where every axis is invalid, which
// FindBestSplit already reports as "no valid split".
func (b *builder) isLeaf(rec BuildRecord) bool {
	if rec.Depth >= b.cfg.MaxDepthLeaf {
		return true
	}
	if rec.Info.Size() <= b.cfg.MinLeafSize {
		return true
	}
	return false
}

// bestSplit runs the binner (parallel above cfg.ParallelThreshold)
// and returns both the chosen Split and the BinInfo it came from, so
// callers can derive SplitInfo without rebinning.
func (b *builder) bestSplit(rec BuildRecord) (Split, *BinInfo) {
	mapping := NewMapping(rec.Info)
	workers := b.workersFor(rec.Info.Size())

	bin, err := parallel.Reduce(
		workers, rec.Info.Size(), NewBinInfo(),
		func(r parallel.Range) (BinInfo, error) {
			var local BinInfo = NewBinInfo()
			local.Accumulate(b.prims, rec.Begin+r.Begin, rec.Begin+r.End, mapping)
			return local, nil
		},
		func(a, c BinInfo) BinInfo {
			a.Merge(&c)
			return a
		},
	)
	if err != nil {
		// Reduce's mapFn above never returns an error.
		panic(err)
	}

	split := bin.FindBestSplit(mapping, b.cfg.LogBlockSize)
	return split, &bin
}

// shouldSplit compares the cost of a leaf over rec against the cost of
// the given split, including the case where no valid split exists (a
// leaf is forced only once size also fits within MaxLeafSize).
func (b *builder) shouldSplit(rec BuildRecord, split Split) bool {
	size := rec.Info.Size()
	if !split.Valid() {
		return size > b.cfg.MaxLeafSize // fallback split still required to make progress
	}
	leafCost := b.cfg.IntCost * rec.Info.GeomBounds.HalfArea() * float32(size)
	if leafCost <= split.SAH+b.cfg.TravCost && size <= b.cfg.MaxLeafSize {
		return false
	}
	return true
}

// workersFor picks how many pool workers a range of this size should
// use: below ParallelThreshold everything runs on the calling
// goroutine (workers=1) rather than touching the pool at all.
func (b *builder) workersFor(size int) int {
	if size < b.cfg.ParallelThreshold {
		return 1
	}
	return b.pool.NumWorkers()
}

// openChildren repeatedly splits the open child with the largest
// splitSAH until N children are materialized or the best remaining
// candidate fails the leaf-cost comparison. It returns ErrCancelled,
// without any children, the moment the host's Progress callback asks
// for cancellation.
func (b *builder) openChildren(rec BuildRecord, split Split, bin *BinInfo) ([]BuildRecord, error) {
	h := &childHeap{{rec: rec, split: split, bin: bin}}
	heap.Init(h)

	for h.Len() < b.cfg.N {
		top := (*h)[0]
		if !b.shouldSplit(top.rec, top.split) {
			break
		}

		heap.Pop(h)

		var mid int
		var leftInfo, rightInfo PrimInfo
		if top.split.Valid() {
			workers := b.workersFor(top.rec.Info.Size())
			if workers > 1 {
				mid, leftInfo, rightInfo = ParallelPartition(workers, b.prims, top.rec.Begin, top.rec.End, top.split)
			} else {
				mid, leftInfo, rightInfo = SequentialPartition(b.prims, top.rec.Begin, top.rec.End, top.split)
			}
		} else {
			mid, leftInfo, rightInfo = FallbackSplit(b.prims, top.rec.Begin, top.rec.End)
		}

		if DebugAssertions && top.split.Valid() {
			predicted := ComputeSplitInfo(top.bin, top.split)
			if mid-top.rec.Begin != predicted.LeftCount {
				panic(fmt.Sprintf("bvh: partition mid mismatch: predicted left count %d, got %d", predicted.LeftCount, mid-top.rec.Begin))
			}
		}

		leftRec := BuildRecord{Begin: leftInfo.Begin, End: leftInfo.End, Info: leftInfo, Depth: top.rec.Depth + 1}
		rightRec := BuildRecord{Begin: rightInfo.Begin, End: rightInfo.End, Info: rightInfo, Depth: top.rec.Depth + 1}

		heap.Push(h, b.childCandidate(leftRec))
		heap.Push(h, b.childCandidate(rightRec))

		if b.cb.Progress != nil && b.cb.Progress(rec.Info.Size()) == Cancel {
			b.cancelled.Store(true)
			return nil, ErrCancelled
		}
	}

	out := make([]BuildRecord, h.Len())
	for i, c := range *h {
		out[i] = c.rec
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Begin < out[j].Begin })
	return out, nil
}

// childCandidate computes the Split a would-be open child would use if
// it were opened further, so the heap can compare it against siblings.
func (b *builder) childCandidate(rec BuildRecord) openChild {
	if b.isLeaf(rec) {
		return openChild{rec: rec, split: invalidSplit(Mapping{})}
	}
	split, bin := b.bestSplit(rec)
	return openChild{rec: rec, split: split, bin: bin}
}

// buildChildren spawns/joins all child subtrees, in parallel via the
// pool when the parent range crossed ParallelThreshold and inline
// otherwise, then publishes the internal node only once every child
// has returned its NodeRef.
func (b *builder) buildChildren(rec BuildRecord, children []BuildRecord, workerIndex int) (NodeRef, error) {
	refs := make([]NodeRef, len(children))

	if b.workersFor(rec.Info.Size()) > 1 {
		err := b.pool.ParallelForAtomic(len(children), func(workerIndex, i int) error {
			ref, err := b.recurse(children[i], workerIndex)
			if err != nil {
				return err
			}
			refs[i] = ref
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		for i, c := range children {
			ref, err := b.recurse(c, workerIndex)
			if err != nil {
				return nil, err
			}
			refs[i] = ref
		}
	}

	b.stats.NodeCount++
	alloc := b.arena.For(workerIndex)
	node, err := b.cb.CreateNode(refs, rec.Info.GeomBounds, alloc)
	if err != nil {
		return nil, &BuildError{Kind: classifyErr(err), Err: err}
	}
	return node, nil
}

func (b *builder) makeLeaf(rec BuildRecord, workerIndex int) (NodeRef, error) {
	b.stats.LeafCount++
	alloc := b.arena.For(workerIndex)
	leaf, err := b.cb.CreateLeaf(b.prims, rec.Begin, rec.End, rec.Info.GeomBounds, alloc)
	if err != nil {
		return nil, &BuildError{Kind: classifyErr(err), Err: err}
	}
	return leaf, nil
}
