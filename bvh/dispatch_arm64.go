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

//go:build arm64

package bvh

import "golang.org/x/sys/cpu"

func init() {
	if noUnrollEnv() {
		binAccumulatorStride = 1
		return
	}
	// All arm64 cores have NEON; SVE-capable cores tend to have deeper
	// reorder buffers and benefit from the wider unroll.
	if cpu.ARM64.HasSVE {
		binAccumulatorStride = 8
	} else {
		binAccumulatorStride = 4
	}
}
