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

// Package arena implements a per-worker bump allocator: the builder
// never calls the system allocator on the hot path, instead drawing
// nodes and leaves from a growable arena that is released as a whole
// when the resulting tree is discarded.
package arena

import (
	"errors"
	"sync"
)

// defaultChunkSize is the size of each growable backing chunk.
const defaultChunkSize = 1 << 20

// maxAlign is the largest alignment Malloc is required to honor.
const maxAlign = 64

// ErrOutOfMemory is the sentinel Malloc returns when satisfying a
// request would grow an Allocator past its budget (see NewWithBudget),
// or when size is negative. Unbudgeted Allocators return it only for a
// negative size.
var ErrOutOfMemory = errors.New("arena: allocator out of memory")

// Arena is a factory of per-worker Allocators. Go exposes no public
// goroutine-local storage, so callers identify "which worker" by the
// stable slot index internal/parallel.Pool hands to every task
// (build.go threads that index through to Arena.For); a worker index is
// just a small-integer key, not a guarantee of exclusive access from a
// different mechanism, so concurrent creation of two allocators for the
// same never-yet-seen index is still guarded by mu.
type Arena struct {
	mu         sync.Mutex
	allocators map[int]*Allocator
	maxBytes   int
}

// New returns an empty Arena whose Allocators grow without bound.
func New() *Arena {
	return &Arena{allocators: make(map[int]*Allocator)}
}

// NewWithBudget returns an empty Arena whose every Allocator refuses to
// grow past maxBytes total bytes of backing chunks, returning
// ErrOutOfMemory from Malloc instead of allocating further. maxBytes <=
// 0 means unlimited, equivalent to New.
func NewWithBudget(maxBytes int) *Arena {
	return &Arena{allocators: make(map[int]*Allocator), maxBytes: maxBytes}
}

// For returns the Allocator for workerIndex, creating it on first use.
// Safe to call concurrently from different workers. Every call, lookup
// of an existing Allocator included, holds a.mu for the duration of the
// map access, so concurrent calls are serialized on that one mutex.
func (a *Arena) For(workerIndex int) *Allocator {
	a.mu.Lock()
	defer a.mu.Unlock()
	if al, ok := a.allocators[workerIndex]; ok {
		return al
	}
	al := &Allocator{maxBytes: a.maxBytes}
	a.allocators[workerIndex] = al
	return al
}

// Allocator bump-allocates from growable []byte chunks owned by one
// worker. There is no Free: the whole Arena (and every chunk every
// Allocator grew) is released together when the caller drops it.
type Allocator struct {
	chunk    []byte
	off      int
	grown    int
	maxBytes int
}

// Malloc returns a zeroed, size-byte region aligned to align, which
// must be a power of two no larger than 64. It grows a new chunk when
// the current one cannot satisfy the request, returning ErrOutOfMemory
// instead of growing once the Allocator's budget (if any) is exhausted.
func (al *Allocator) Malloc(size, align int) ([]byte, error) {
	if size < 0 {
		return nil, ErrOutOfMemory
	}
	if align <= 0 {
		align = 1
	}
	if align > maxAlign {
		align = maxAlign
	}

	aligned := alignUp(al.off, align)
	if al.chunk == nil || aligned+size > len(al.chunk) {
		chunkSize := defaultChunkSize
		if size+align > chunkSize {
			chunkSize = size + align
		}
		if al.maxBytes > 0 && al.grown+chunkSize > al.maxBytes {
			return nil, ErrOutOfMemory
		}
		al.chunk = make([]byte, chunkSize)
		al.off = 0
		al.grown += chunkSize
		aligned = alignUp(al.off, align)
	}

	region := al.chunk[aligned : aligned+size]
	al.off = aligned + size
	return region, nil
}

func alignUp(off, align int) int {
	return (off + align - 1) &^ (align - 1)
}
