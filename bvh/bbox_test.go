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

import "testing"

func TestEmptyBBoxIsIdentity(t *testing.T) {
	e := EmptyBBox()
	if !e.Empty() {
		t.Fatalf("EmptyBBox().Empty() = false, want true")
	}
	b := BBox{Lower: [3]float32{1, 2, 3}, Upper: [3]float32{4, 5, 6}}
	if got := e.Extend(b); got != b {
		t.Errorf("EmptyBBox().Extend(b) = %+v, want %+v", got, b)
	}
	if got := b.Extend(e); got != b {
		t.Errorf("b.Extend(EmptyBBox()) = %+v, want %+v", got, b)
	}
}

func TestEmptyBBoxHalfAreaIsZero(t *testing.T) {
	if got := EmptyBBox().HalfArea(); got != 0 {
		t.Errorf("EmptyBBox().HalfArea() = %v, want 0", got)
	}
}

func TestHalfAreaUnitCube(t *testing.T) {
	b := BBox{Lower: [3]float32{0, 0, 0}, Upper: [3]float32{1, 1, 1}}
	if got, want := b.HalfArea(), float32(3); got != want {
		t.Errorf("unit cube HalfArea() = %v, want %v", got, want)
	}
}

func TestCenter2IsDoubledMidpoint(t *testing.T) {
	b := BBox{Lower: [3]float32{0, 2, -4}, Upper: [3]float32{2, 4, 0}}
	c := b.Center2()
	want := [3]float32{2, 6, -4}
	if c != want {
		t.Errorf("Center2() = %v, want %v", c, want)
	}
}

func TestExtendPoint(t *testing.T) {
	b := EmptyBBox()
	b = b.ExtendPoint([3]float32{1, -2, 3})
	b = b.ExtendPoint([3]float32{-1, 5, 0})
	want := BBox{Lower: [3]float32{-1, -2, 0}, Upper: [3]float32{1, 5, 3}}
	if b != want {
		t.Errorf("ExtendPoint chain = %+v, want %+v", b, want)
	}
}
