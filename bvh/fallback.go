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

// FallbackSplit splits prims[begin:end] at its array midpoint rather
// than by SAH bin, and recomputes both halves' PrimInfo in one linear
// pass. It is used whenever the range's centroid bounds are too
// degenerate for NewMapping to produce a usable Mapping on any axis:
// all primitives share (to float32 precision) the same centroid, so no
// bin-based split can separate them, yet the range
// must still be divided to keep the tree from terminating in a leaf
// that holds more primitives than a leaf is allowed to.
//
// No reordering predicate is evaluated; the split point is purely
// positional, so this never panics on a degenerate Mapping the way
// SequentialPartition/ParallelPartition would.
func FallbackSplit(prims []PrimRef, begin, end int) (mid int, left, right PrimInfo) {
	mid = begin + (end-begin)/2
	left, right = NewPrimInfo(), NewPrimInfo()

	for i := begin; i < mid; i++ {
		left.Add(prims[i].Bounds)
	}
	for i := mid; i < end; i++ {
		right.Add(prims[i].Bounds)
	}

	left.Begin, left.End = begin, mid
	right.Begin, right.End = mid, end
	return mid, left, right
}
