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
	"os"
	"strconv"
)

// binAccumulatorStride controls how many PrimRefs BinInfo.Accumulate
// unrolls per iteration. It is a pure tuning hint: the SAH ranking
// FindBestSplit produces is identical for any stride, scalar loop or
// not. Set by init() in dispatch_*.go.
var binAccumulatorStride int

// noUnrollEnv reports whether BVH_NO_UNROLL is set, forcing stride 1.
// An escape hatch for disabling tuning during debugging and
// determinism tests.
func noUnrollEnv() bool {
	val := os.Getenv("BVH_NO_UNROLL")
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}
