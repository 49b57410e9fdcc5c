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

import "math"

// BinInfo is the fixed-width accumulator for a Mapping's bins: for
// each of up to maxBins bins, three bounding boxes (one per axis) and
// a 3-lane count. It is the unit of work for parallel accumulation:
// each worker owns one BinInfo value on its own stack and the results
// are merged afterward, never written concurrently — false sharing is
// avoided by never indexing into a shared slice of BinInfos from
// multiple goroutines.
type BinInfo struct {
	bounds [maxBins][3]BBox
	counts [maxBins][3]int
}

// NewBinInfo returns a zero-initialized accumulator (empty boxes, zero
// counts), which is the identity element of Merge.
func NewBinInfo() BinInfo {
	var bi BinInfo
	for i := 0; i < maxBins; i++ {
		for a := 0; a < 3; a++ {
			bi.bounds[i][a] = EmptyBBox()
		}
	}
	return bi
}

// Accumulate bins every PrimRef in prims[begin:end] through mapping:
// for each axis a, the primitive's bin-along-a increments
// counts[bin][a] and extends bounds[bin][a] with the primitive's box.
// binAccumulatorStride (see
// dispatch.go) only controls loop unrolling below; it has no effect on
// the result, which is covered by TestAccumulateStrideInvariant.
func (bi *BinInfo) Accumulate(prims []PrimRef, begin, end int, mapping Mapping) {
	stride := binAccumulatorStride
	i := begin
	for ; i+stride <= end; i += stride {
		for j := 0; j < stride; j++ {
			bi.bin1(prims[i+j], mapping)
		}
	}
	for ; i < end; i++ {
		bi.bin1(prims[i], mapping)
	}
}

func (bi *BinInfo) bin1(p PrimRef, mapping Mapping) {
	center := p.Center2()
	bin := mapping.Bin(center)
	for a := 0; a < 3; a++ {
		b := bin[a]
		bi.counts[b][a]++
		bi.bounds[b][a] = bi.bounds[b][a].Extend(p.Bounds)
	}
}

// Merge folds other into bi, componentwise box-extend and integer-add.
// Merge is associative and commutative, which is what lets parallel
// accumulation partition a range arbitrarily and tree-reduce the
// per-worker results.
func (bi *BinInfo) Merge(other *BinInfo) {
	for i := 0; i < maxBins; i++ {
		for a := 0; a < 3; a++ {
			bi.bounds[i][a] = bi.bounds[i][a].Extend(other.bounds[i][a])
			bi.counts[i][a] += other.counts[i][a]
		}
	}
}

// Split is the result of FindBestSplit: the chosen axis/position and
// the SAH cost it achieves. A Split is valid iff Dim >= 0.
type Split struct {
	SAH     float32
	Dim     int
	Pos     int
	Mapping Mapping
}

// Valid reports whether this Split names a usable (axis, position).
func (s Split) Valid() bool {
	return s.Dim >= 0
}

// invalidSplit is the "no split found yet" sentinel: +inf cost, no axis.
func invalidSplit(mapping Mapping) Split {
	return Split{SAH: float32(math.Inf(1)), Dim: -1, Mapping: mapping}
}

// FindBestSplit performs the best-split search: a right-to-left sweep
// computes right-side counts/areas, a left-to-right sweep computes
// left-side counts/areas, both position-major and axis-minor (order
// doesn't matter for pure accumulation). The actual SAH cost comparison
// then runs axis-major over the precomputed tables, block-rounding both
// counts by logBlockSize to account for SIMD leaf packing. Ties are
// broken by lowest axis index, then lowest pos: axis 0 is scanned to
// completion before axis 1 is examined at all, and within an axis a
// strict "<" only replaces best on a strictly lower cost, so an earlier
// (lower-axis, or lower-pos-within-axis) candidate of equal cost is
// never displaced.
func (bi *BinInfo) FindBestSplit(mapping Mapping, logBlockSize int) Split {
	num := mapping.Num
	best := invalidSplit(mapping)
	if num < 2 {
		return best
	}

	// Right-to-left sweep: rCount[i], rArea[i] describe bins [i, num).
	rCount := make([][3]int, num)
	rArea := make([][3]float32, num)
	var rBox [3]BBox
	for a := 0; a < 3; a++ {
		rBox[a] = EmptyBBox()
	}
	var runningRCount [3]int
	for i := num - 1; i > 0; i-- {
		for a := 0; a < 3; a++ {
			runningRCount[a] += bi.counts[i][a]
			rBox[a] = rBox[a].Extend(bi.bounds[i][a])
			rCount[i][a] = runningRCount[a]
			rArea[i][a] = rBox[a].HalfArea()
		}
	}

	// Left-to-right sweep: lCount[i], lArea[i] describe bins [0, i).
	lCount := make([][3]int, num)
	lArea := make([][3]float32, num)
	var lBox [3]BBox
	for a := 0; a < 3; a++ {
		lBox[a] = EmptyBBox()
	}
	var runningLCount [3]int
	for i := 1; i < num; i++ {
		for a := 0; a < 3; a++ {
			runningLCount[a] += bi.counts[i-1][a]
			lBox[a] = lBox[a].Extend(bi.bounds[i-1][a])
			lCount[i][a] = runningLCount[a]
			lArea[i][a] = lBox[a].HalfArea()
		}
	}

	blockAdd := (1 << logBlockSize) - 1

	for a := 0; a < 3; a++ {
		if mapping.Invalid(a) {
			continue
		}
		for i := 1; i < num; i++ {
			leftCount, rightCount := lCount[i][a], rCount[i][a]
			if leftCount == 0 || rightCount == 0 {
				continue // disqualified: an empty side (pos = 0 or pos = num)
			}
			lBlocks := float32((leftCount + blockAdd) >> logBlockSize)
			rBlocks := float32((rightCount + blockAdd) >> logBlockSize)
			cost := lArea[i][a]*lBlocks + rArea[i][a]*rBlocks
			if cost < best.SAH {
				best.SAH = cost
				best.Dim = a
				best.Pos = i
			}
		}
	}

	return best
}

// ComputeSplitInfo derives per-side counts and bounds for a previously
// computed Split without re-binning the primitive range. Inside the
// driver (build.go) it is used only by the DebugAssertions cross-check
// of a partition's mid against the binned left count.
func ComputeSplitInfo(bi *BinInfo, split Split) SplitInfo {
	if !split.Valid() {
		return SplitInfo{LeftBounds: EmptyBBox(), RightBounds: EmptyBBox()}
	}
	info := SplitInfo{LeftBounds: EmptyBBox(), RightBounds: EmptyBBox()}
	for i := 0; i < split.Pos; i++ {
		info.LeftCount += bi.counts[i][split.Dim]
		info.LeftBounds = info.LeftBounds.Extend(bi.bounds[i][split.Dim])
	}
	for i := split.Pos; i < split.Mapping.Num; i++ {
		info.RightCount += bi.counts[i][split.Dim]
		info.RightBounds = info.RightBounds.Extend(bi.bounds[i][split.Dim])
	}
	return info
}

// SplitInfo holds the left/right primitive counts and bounding boxes
// derived from a Split.
type SplitInfo struct {
	LeftCount, RightCount   int
	LeftBounds, RightBounds BBox
}
