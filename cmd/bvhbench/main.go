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

// Package main demonstrates building a BVH over a random primitive set
// and reports its size, depth, and wall-clock time.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/ajroetker/go-bvh/arena"
	"github.com/ajroetker/go-bvh/bvh"
)

type treeNode struct {
	bounds   bvh.BBox
	children []*treeNode
	isLeaf   bool
	begin    int
	end      int
}

func main() {
	n := flag.Int("n", 100_000, "number of random primitives to build over")
	branching := flag.Int("branch", 4, "internal node branching factor (N)")
	maxLeaf := flag.Int("max-leaf", 8, "maximum primitives per leaf")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	fmt.Println("=== go-bvh Build Benchmark ===")
	fmt.Printf("primitives=%d branch=%d maxLeaf=%d seed=%d\n\n", *n, *branching, *maxLeaf, *seed)

	prims, pinfo := randomPrimitives(*n, *seed)

	cfg := bvh.DefaultConfig()
	cfg.N = *branching
	cfg.MaxLeafSize = *maxLeaf

	callbacks := bvh.Callbacks{
		CreateLeaf: func(prims []bvh.PrimRef, begin, end int, bounds bvh.BBox, alloc *arena.Allocator) (bvh.NodeRef, error) {
			return &treeNode{bounds: bounds, isLeaf: true, begin: begin, end: end}, nil
		},
		CreateNode: func(children []bvh.NodeRef, bounds bvh.BBox, alloc *arena.Allocator) (bvh.NodeRef, error) {
			cs := make([]*treeNode, len(children))
			for i, c := range children {
				cs[i] = c.(*treeNode)
			}
			return &treeNode{bounds: bounds, children: cs}, nil
		},
	}

	start := time.Now()
	root, stats, err := bvh.Build(prims, pinfo, cfg, callbacks, arena.New())
	elapsed := time.Since(start)
	if err != nil {
		fmt.Printf("build failed: %v\n", err)
		return
	}

	r := root.(*treeNode)
	fmt.Printf("built in %v\n", elapsed)
	fmt.Printf("internal nodes: %d\n", stats.NodeCount)
	fmt.Printf("leaves:         %d\n", stats.LeafCount)
	fmt.Printf("max depth:      %d\n", stats.MaxDepth)
	fmt.Printf("root bounds:    %v\n", r.bounds)
}

func randomPrimitives(n int, seed int64) ([]bvh.PrimRef, bvh.PrimInfo) {
	rng := rand.New(rand.NewSource(seed))
	prims := make([]bvh.PrimRef, n)
	pinfo := bvh.NewPrimInfo()
	for i := range prims {
		x, y, z := rng.Float32(), rng.Float32(), rng.Float32()
		half := float32(0.0005)
		b := bvh.BBox{
			Lower: [3]float32{x - half, y - half, z - half},
			Upper: [3]float32{x + half, y + half, z + half},
		}
		prims[i] = bvh.PrimRef{Bounds: b, ID: uint32(i)}
		pinfo.Add(b)
	}
	pinfo.Begin, pinfo.End = 0, n
	return prims, pinfo
}
