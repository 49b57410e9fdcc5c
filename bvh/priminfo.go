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

// PrimRef is a reference to one primitive: its bounding box plus an
// opaque identifier. PrimRefs are immutable during a build; only their
// position in the backing slice changes as the builder partitions it.
type PrimRef struct {
	Bounds BBox
	ID     uint32
}

// Center2 returns 2x the primitive's centroid, see BBox.Center2.
func (p PrimRef) Center2() [3]float32 {
	return p.Bounds.Center2()
}

// PrimInfo aggregates a contiguous sub-range [Begin, End) of a PrimRef
// slice: its count, the union of geometric bounds, and the union of
// centroid bounds (stored in doubled form, consistent with Center2).
type PrimInfo struct {
	Begin, End  int
	GeomBounds  BBox
	CentBounds  BBox
}

// NewPrimInfo returns the identity PrimInfo for an empty range.
func NewPrimInfo() PrimInfo {
	return PrimInfo{GeomBounds: EmptyBBox(), CentBounds: EmptyBBox()}
}

// Size returns the number of primitives the range covers.
func (p PrimInfo) Size() int {
	return p.End - p.Begin
}

// Add folds a single primitive's bounds into p, in place of a full
// re-merge. Used by the sequential partition scan (partition.go) where
// re-deriving bounds one primitive at a time is cheaper than
// constructing and merging a one-element PrimInfo.
func (p *PrimInfo) Add(b BBox) {
	p.GeomBounds = p.GeomBounds.Extend(b)
	p.CentBounds = p.CentBounds.ExtendPoint(b.Center2())
}

// Merge combines two PrimInfos whose ranges are disjoint and adjacent
// (or at least whose union is what the caller wants reported). Merge is
// associative and commutative over GeomBounds/CentBounds; Begin/End
// become the hull of the two ranges (smaller Begin, larger End), so
// callers that need an exact contiguous range set them explicitly
// after merging bounds.
func (p PrimInfo) Merge(o PrimInfo) PrimInfo {
	return PrimInfo{
		Begin:      min(p.Begin, o.Begin),
		End:        max(p.End, o.End),
		GeomBounds: p.GeomBounds.Extend(o.GeomBounds),
		CentBounds: p.CentBounds.Extend(o.CentBounds),
	}
}

// maxBins is the hard cap on bins per axis; Mapping.Num is clamped into [1,32].
const maxBins = 32

// Mapping is the affine function from a (doubled) centroid to a bin
// triple, derived from a PrimInfo's centroid bounds. An axis whose
// centroid extent is too small to bin meaningfully (<=1e-19) gets
// scale 0 and is marked Invalid for that axis.
//
// Because centroids are carried in doubled form (Center2, 2x the true
// midpoint) throughout this package, Offset and Scale below are built
// from the doubled CentBounds directly: Offset = 2*trueOffset and
// Scale = trueScale/2, so the 2x cancels and Bin/BinUnsafe operate
// correctly on the doubled centroids produced by PrimRef.Center2
// without the caller ever dividing by two.
type Mapping struct {
	Num   int
	Scale [3]float32
	Offset [3]float32
}

// NewMapping derives a Mapping from the aggregate PrimInfo of a range:
// num = clamp(floor(4 + 0.05*n), 1, 32); per-axis scale = (0.99*num)/
// extent when extent > 1e-19, else 0; offset = centBounds.Lower.
func NewMapping(pinfo PrimInfo) Mapping {
	n := pinfo.Size()
	num := int(4 + 0.05*float64(n))
	if num < 1 {
		num = 1
	}
	if num > maxBins {
		num = maxBins
	}

	m := Mapping{Num: num, Offset: pinfo.CentBounds.Lower}
	extent := pinfo.CentBounds.Extent()
	for a := 0; a < 3; a++ {
		if extent[a] > 1e-19 {
			m.Scale[a] = (0.99 * float32(num)) / extent[a]
		} else {
			m.Scale[a] = 0
		}
	}
	return m
}

// Invalid reports whether axis a carries no usable split information.
func (m Mapping) Invalid(axis int) bool {
	return m.Scale[axis] == 0
}

// Bin maps a (doubled) centroid to a bounds-checked bin triple. Every
// coordinate of the result lies in [0, m.Num) for any centroid inside
// the CentBounds the Mapping was derived from; out-of-range inputs are
// clamped. Slower than BinUnsafe but safe for arbitrary input.
func (m Mapping) Bin(center [3]float32) [3]int {
	var bin [3]int
	for a := 0; a < 3; a++ {
		bin[a] = m.binAxisUnchecked(center, a)
		if bin[a] < 0 {
			bin[a] = 0
		}
		if bin[a] >= m.Num {
			bin[a] = m.Num - 1
		}
	}
	return bin
}

// BinUnsafe maps a (doubled) centroid to a bin triple without bounds
// checking, for use on the hot partition-predicate path. Callers must
// only use it for centroids known to lie within the Mapping's source
// CentBounds.
func (m Mapping) BinUnsafe(center [3]float32) [3]int {
	var bin [3]int
	for a := 0; a < 3; a++ {
		bin[a] = m.binAxisUnchecked(center, a)
	}
	return bin
}

// binAxisUnchecked truncates toward -inf, the module's binning rule.
func (m Mapping) binAxisUnchecked(center [3]float32, axis int) int {
	return int(floorDiv((center[axis] - m.Offset[axis]) * m.Scale[axis]))
}

// floorDiv truncates a float toward -infinity (int() in Go truncates
// toward zero, which is wrong for negative values).
func floorDiv(x float32) float32 {
	i := float32(int(x))
	if i > x {
		i--
	}
	return i
}
