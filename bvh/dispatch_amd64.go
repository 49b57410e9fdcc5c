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

//go:build amd64

package bvh

import "golang.org/x/sys/cpu"

func init() {
	if noUnrollEnv() {
		binAccumulatorStride = 1
		return
	}
	// AVX2-class machines get the wider unroll of 8 primitives per
	// iteration (each primitive costs 3 box-extends and 3 count
	// increments in bin1); narrower machines unroll less to keep the
	// working set of partially-updated bins small.
	if cpu.X86.HasAVX2 {
		binAccumulatorStride = 8
	} else {
		binAccumulatorStride = 4
	}
}
