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

// BlockPartition is a block-parallel stable partition: items are split
// into blocks of blockSize, each block is classified and folded
// independently (in parallel, one goroutine per block batch), and the
// result is scattered into a scratch buffer at each side's
// precomputed destination offset before being copied back over items.
//
// This trades a literal pointer-swap in-place exchange for a
// scratch-buffer scatter of the same asymptotic work, additionally
// guaranteeing stability within each side. True lock-free block
// exchange without scratch space is a published, intricate algorithm
// in its own right; see DESIGN.md for why the scratch-buffer variant
// was chosen instead.
//
// accumulate/merge must be associative in the same sense as
// Reduce's reduceFn. belongsLeft is evaluated exactly once per item.
func BlockPartition[T any, S any](workers int, items []T, blockSize int, identity S, belongsLeft func(T) bool, accumulate func(S, T) S, merge func(a, b S) S) (mid int, left, right S) {
	n := len(items)
	if n == 0 {
		return 0, identity, identity
	}
	if blockSize <= 0 {
		blockSize = n
	}

	numBlocks := (n + blockSize - 1) / blockSize
	leftCount := make([]int, numBlocks)
	leftAcc := make([]S, numBlocks)
	rightAcc := make([]S, numBlocks)
	isLeft := make([]bool, n)

	classify := func(b int) {
		begin := b * blockSize
		end := min(begin+blockSize, n)
		lAcc, rAcc := identity, identity
		count := 0
		for i := begin; i < end; i++ {
			if belongsLeft(items[i]) {
				isLeft[i] = true
				count++
				lAcc = accumulate(lAcc, items[i])
			} else {
				rAcc = accumulate(rAcc, items[i])
			}
		}
		leftCount[b] = count
		leftAcc[b] = lAcc
		rightAcc[b] = rAcc
	}

	if w := min(workers, numBlocks); w > 1 {
		var g errgroup.Group
		chunk := (numBlocks + w - 1) / w
		for wi := 0; wi < w; wi++ {
			bBegin := wi * chunk
			bEnd := min(bBegin+chunk, numBlocks)
			if bBegin >= numBlocks {
				continue
			}
			g.Go(func() error {
				for b := bBegin; b < bEnd; b++ {
					classify(b)
				}
				return nil
			})
		}
		_ = g.Wait() // classify never errors
	} else {
		for b := 0; b < numBlocks; b++ {
			classify(b)
		}
	}

	// Sequential exclusive prefix sum over per-block left counts: O(n/blockSize).
	leftDest := make([]int, numBlocks)
	totalLeft := 0
	for b := 0; b < numBlocks; b++ {
		leftDest[b] = totalLeft
		totalLeft += leftCount[b]
	}
	rightDest := make([]int, numBlocks)
	totalRight := 0
	for b := 0; b < numBlocks; b++ {
		rightDest[b] = totalLeft + totalRight
		totalRight += (min((b+1)*blockSize, n) - b*blockSize) - leftCount[b]
	}

	dst := make([]T, n)
	scatter := func(b int) {
		begin := b * blockSize
		end := min(begin+blockSize, n)
		lPos, rPos := leftDest[b], rightDest[b]
		for i := begin; i < end; i++ {
			if isLeft[i] {
				dst[lPos] = items[i]
				lPos++
			} else {
				dst[rPos] = items[i]
				rPos++
			}
		}
	}

	if w := min(workers, numBlocks); w > 1 {
		var g errgroup.Group
		chunk := (numBlocks + w - 1) / w
		for wi := 0; wi < w; wi++ {
			bBegin := wi * chunk
			bEnd := min(bBegin+chunk, numBlocks)
			if bBegin >= numBlocks {
				continue
			}
			g.Go(func() error {
				for b := bBegin; b < bEnd; b++ {
					scatter(b)
				}
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for b := 0; b < numBlocks; b++ {
			scatter(b)
		}
	}

	copy(items, dst)

	left, right = identity, identity
	for b := 0; b < numBlocks; b++ {
		left = merge(left, leftAcc[b])
		right = merge(right, rightAcc[b])
	}
	return totalLeft, left, right
}
