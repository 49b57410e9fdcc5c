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

package arena

import (
	"errors"
	"sync"
	"testing"
)

func TestAllocatorMallocAlignment(t *testing.T) {
	al := &Allocator{}
	for _, align := range []int{1, 2, 4, 8, 16, 32, 64} {
		region, err := al.Malloc(3, align)
		if err != nil {
			t.Fatalf("align=%d: Malloc returned %v", align, err)
		}
		if len(region) != 3 {
			t.Fatalf("align=%d: len(region) = %d, want 3", align, len(region))
		}
		if start := al.off - len(region); start%align != 0 {
			t.Fatalf("align=%d: region starts at offset %d, not a multiple of %d", align, start, align)
		}
	}
}

func TestAllocatorGrowsChunks(t *testing.T) {
	al := &Allocator{}
	total := 0
	for i := 0; i < 10000; i++ {
		region, err := al.Malloc(300, 8)
		if err != nil {
			t.Fatalf("Malloc returned %v", err)
		}
		total += len(region)
	}
	if total != 3_000_000 {
		t.Errorf("total allocated = %d, want %d", total, 3_000_000)
	}
}

func TestAllocatorOversizeRequest(t *testing.T) {
	al := &Allocator{}
	big, err := al.Malloc(defaultChunkSize*2, 8)
	if err != nil {
		t.Fatalf("Malloc returned %v", err)
	}
	if len(big) != defaultChunkSize*2 {
		t.Errorf("len(big) = %d, want %d", len(big), defaultChunkSize*2)
	}
}

func TestAllocatorBudgetExhausted(t *testing.T) {
	a := NewWithBudget(defaultChunkSize)
	al := a.For(0)
	if _, err := al.Malloc(8, 8); err != nil {
		t.Fatalf("first Malloc within budget returned %v", err)
	}
	if _, err := al.Malloc(defaultChunkSize, 8); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("Malloc past budget: err = %v, want ErrOutOfMemory", err)
	}
}

func TestAllocatorNegativeSize(t *testing.T) {
	al := &Allocator{}
	if _, err := al.Malloc(-1, 8); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("Malloc(-1, 8): err = %v, want ErrOutOfMemory", err)
	}
}

func TestArenaForIsStablePerWorker(t *testing.T) {
	a := New()
	first := a.For(3)
	second := a.For(3)
	if first != second {
		t.Errorf("Arena.For(3) returned different allocators on repeated calls")
	}
	other := a.For(4)
	if other == first {
		t.Errorf("Arena.For(4) returned the same allocator as For(3)")
	}
}

func TestArenaForConcurrentCreation(t *testing.T) {
	a := New()
	var wg sync.WaitGroup
	results := make([]*Allocator, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.For(i % 4)
		}()
	}
	wg.Wait()

	for i, got := range results {
		if want := a.For(i % 4); got != want {
			t.Errorf("For(%d) unstable across calls", i%4)
		}
	}
}
