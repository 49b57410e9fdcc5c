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

import "github.com/ajroetker/go-bvh/internal/parallel"

// partitionBlockSize is the target block size for ParallelPartition.
const partitionBlockSize = 128

// belongsLeft is the partition predicate a Split induces over a
// PrimRef: a primitive belongs on the left iff its bin along
// split.Dim is strictly less than split.Pos. It is evaluated on the
// doubled centroid via BinUnsafe, since every primitive being
// partitioned already lies within the Mapping's source CentBounds.
func belongsLeft(split Split) func(PrimRef) bool {
	dim, pos, mapping := split.Dim, split.Pos, split.Mapping
	return func(p PrimRef) bool {
		return mapping.BinUnsafe(p.Center2())[dim] < pos
	}
}

// SequentialPartition performs a Hoare two-pointer in-place partition
// of prims[begin:end] by the predicate induced by split, folding
// left/right PrimInfo as it goes rather than re-binning afterwards.
func SequentialPartition(prims []PrimRef, begin, end int, split Split) (mid int, left, right PrimInfo) {
	pred := belongsLeft(split)
	left, right = NewPrimInfo(), NewPrimInfo()

	i, j := begin, end-1
	for {
		for i <= j && pred(prims[i]) {
			left.Add(prims[i].Bounds)
			i++
		}
		for i <= j && !pred(prims[j]) {
			right.Add(prims[j].Bounds)
			j--
		}
		if i > j {
			break
		}
		prims[i], prims[j] = prims[j], prims[i]
		left.Add(prims[i].Bounds)
		right.Add(prims[j].Bounds)
		i++
		j--
	}

	left.Begin, left.End = begin, i
	right.Begin, right.End = i, end
	return i, left, right
}

// ParallelPartition partitions prims[begin:end] via
// internal/parallel.BlockPartition: the range is classified and
// scattered in blocks of partitionBlockSize across up to workers
// goroutines, and the per-block PrimInfo accumulations are merged
// (the merge is order-independent, so block assignment never affects
// the result).
func ParallelPartition(workers int, prims []PrimRef, begin, end int, split Split) (mid int, left, right PrimInfo) {
	pred := belongsLeft(split)
	sub := prims[begin:end]

	relMid, left, right := parallel.BlockPartition(
		workers, sub, partitionBlockSize, NewPrimInfo(),
		pred,
		func(acc PrimInfo, p PrimRef) PrimInfo {
			acc.Add(p.Bounds)
			return acc
		},
		func(a, b PrimInfo) PrimInfo {
			return a.Merge(b)
		},
	)

	left.Begin, left.End = begin, begin+relMid
	right.Begin, right.End = begin+relMid, end
	return begin + relMid, left, right
}
