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

package parallel

import "golang.org/x/sync/errgroup"

// Range is a contiguous half-open [Begin, End) index range handed to
// one worker's slice of a Reduce/For call.
type Range struct {
	Begin, End int
}

// Len returns the number of indices in r.
func (r Range) Len() int {
	return r.End - r.Begin
}

// Reduce partitions [0, n) into up to `workers` equal sub-ranges,
// calls mapFn once per sub-range (each producing one T), and folds the
// results with reduceFn, which must be associative. Reduce is
// synchronous: it returns only once every sub-range has been mapped
// and folded. The reduction order across sub-ranges is unspecified
// (sub-ranges may finish in any order) but the result is deterministic
// in value because reduceFn is associative.
//
// The first error returned by mapFn is propagated; sub-ranges already
// in flight still run to completion (errgroup.Group never cancels
// siblings on its own — Wait only reports the first error), so no
// torn state results even on failure.
func Reduce[T any](workers, n int, identity T, mapFn func(r Range) (T, error), reduceFn func(a, b T) T) (T, error) {
	if n <= 0 {
		return identity, nil
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		return mapFn(Range{0, n})
	}

	chunk := (n + workers - 1) / workers
	results := make([]T, workers)
	var g errgroup.Group

	for w := 0; w < workers; w++ {
		begin := w * chunk
		end := min(begin+chunk, n)
		if begin >= n {
			results[w] = identity
			continue
		}
		idx := w
		g.Go(func() error {
			r, err := mapFn(Range{begin, end})
			if err != nil {
				return err
			}
			results[idx] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var zero T
		return zero, err
	}

	acc := identity
	for _, r := range results {
		acc = reduceFn(acc, r)
	}
	return acc, nil
}

// For runs body once per sub-range of [0, n), synchronously,
// propagating the first error observed exactly like Reduce.
func For(workers, n int, body func(r Range) error) error {
	_, err := Reduce(workers, n, struct{}{}, func(r Range) (struct{}, error) {
		return struct{}{}, body(r)
	}, func(a, b struct{}) struct{} { return a })
	return err
}
