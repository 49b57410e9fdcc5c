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

// BBox is an axis-aligned bounding box over single-precision floats.
// The empty box has Lower = +inf and Upper = -inf in every axis, which
// is the identity element of Extend.
type BBox struct {
	Lower [3]float32
	Upper [3]float32
}

// EmptyBBox returns the identity bounding box (min = +inf, max = -inf).
func EmptyBBox() BBox {
	return BBox{
		Lower: [3]float32{posInf, posInf, posInf},
		Upper: [3]float32{negInf, negInf, negInf},
	}
}

var (
	posInf = float32(math.Inf(1))
	negInf = float32(math.Inf(-1))
)

// Extend returns a copy of b grown to also contain o; b itself is not
// modified, so callers assign the result.
func (b BBox) Extend(o BBox) BBox {
	for a := 0; a < 3; a++ {
		if o.Lower[a] < b.Lower[a] {
			b.Lower[a] = o.Lower[a]
		}
		if o.Upper[a] > b.Upper[a] {
			b.Upper[a] = o.Upper[a]
		}
	}
	return b
}

// ExtendPoint grows b to contain the point p.
func (b BBox) ExtendPoint(p [3]float32) BBox {
	for a := 0; a < 3; a++ {
		if p[a] < b.Lower[a] {
			b.Lower[a] = p[a]
		}
		if p[a] > b.Upper[a] {
			b.Upper[a] = p[a]
		}
	}
	return b
}

// Empty reports whether b has no extent in some axis (upper < lower),
// i.e. it is still the identity value or was never extended.
func (b BBox) Empty() bool {
	return b.Upper[0] < b.Lower[0] || b.Upper[1] < b.Lower[1] || b.Upper[2] < b.Lower[2]
}

// Extent returns the per-axis size (Upper - Lower). Empty boxes return
// a negative extent; callers that need the "degenerate" case must
// check Empty first.
func (b BBox) Extent() [3]float32 {
	return [3]float32{
		b.Upper[0] - b.Lower[0],
		b.Upper[1] - b.Lower[1],
		b.Upper[2] - b.Lower[2],
	}
}

// Center2 returns 2x the box midpoint, avoiding a division. Centroids
// are carried in this doubled form throughout the builder so the factor
// of two cancels out of every Mapping computation; see priminfo.go.
func (b BBox) Center2() [3]float32 {
	return [3]float32{
		b.Lower[0] + b.Upper[0],
		b.Lower[1] + b.Upper[1],
		b.Lower[2] + b.Upper[2],
	}
}

// HalfArea returns half the surface area of b (sum of the three face
// areas), which is what the SAH cost actually needs; an empty box
// contributes exactly 0, never a negative or NaN value.
func (b BBox) HalfArea() float32 {
	if b.Empty() {
		return 0
	}
	e := b.Extent()
	return e[0]*e[1] + e[1]*e[2] + e[2]*e[0]
}
