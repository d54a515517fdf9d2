// SPDX-License-Identifier: MIT
package treeview

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"testing"

	"pgregory.net/rapid"
)

// drawForest grows a random forest of count nodes with random parentage &
// expansion, returning the nodes in creation order.
func drawForest(rt *rapid.T, ctx context.Context, f *Forest[int], count int) List[int] {
	nodes := make(List[int], 0, count)
	for i := 0; i < count; i++ {
		node, err := f.NewNode(
			ctx, i,
			WithID[int](fmt.Sprintf("n%03d", i)),
			WithExpanded[int](rapid.Bool().Draw(rt, "expanded")),
		)
		if err != nil {
			rt.Fatalf("NewNode() error = %v", err)
		}

		if len(nodes) == 0 || rapid.IntRange(0, 3).Draw(rt, "asRoot") == 0 {
			err = f.AddRoot(ctx, node)
		} else {
			parent := nodes[rapid.IntRange(0, len(nodes)-1).Draw(rt, "parent")]
			err = parent.AddChild(ctx, node)
		}
		if err != nil {
			rt.Fatalf("attach error = %v", err)
		}

		nodes = append(nodes, node)
	}

	return nodes
}

// ancestorsExpanded reports whether every strict ancestor of n is expanded.
func ancestorsExpanded(n *Node[int]) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if !p.Expanded() {
			return false
		}
	}

	return true
}

// attached reports whether n can be reached from the root list.
func attached[T any](f *Forest[T], n *Node[T]) bool {
	for {
		p := n.Parent()
		if p == nil {
			return n.IsRoot()
		}
		n = p
	}
}

func TestProjector_Project_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		f := New[int]()
		nodes := drawForest(rt, ctx, f, rapid.IntRange(1, 40).Draw(rt, "count"))

		p := NewProjector(f)
		visible, maxDepth := p.Project(ctx)

		seen := make(map[string]int, len(visible))
		for index, n := range visible {
			seen[n.ID()] = index
		}

		wantMax := 0
		for index, n := range visible {
			// Children follow their parent.
			if parent := n.Parent(); parent != nil {
				parentIndex, ok := seen[parent.ID()]
				if !ok || parentIndex >= index {
					rt.Fatalf("node %s at %d precedes its parent", n.ID(), index)
				}
				if n.Depth() != parent.Depth()+1 {
					rt.Fatalf("node %s depth %d under parent depth %d", n.ID(), n.Depth(), parent.Depth())
				}
			} else if n.Depth() != 0 {
				rt.Fatalf("root %s depth %d, want 0", n.ID(), n.Depth())
			}

			if n.Depth() > wantMax {
				wantMax = n.Depth()
			}
		}
		if maxDepth != wantMax {
			rt.Fatalf("maxDepth = %d, want %d", maxDepth, wantMax)
		}

		// A node is visible exactly when attached below expanded ancestors.
		for _, n := range nodes {
			want := attached(f, n) && ancestorsExpanded(n)
			if _, got := seen[n.ID()]; got != want {
				rt.Fatalf("node %s visible = %t, want %t", n.ID(), got, want)
			}
		}
	})
}

func TestProjector_ResolveReorder_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		f := New[int]()
		drawForest(rt, ctx, f, rapid.IntRange(1, 30).Draw(rt, "count"))

		p := NewProjector(f, WithCanMove(allowAll[int]))
		visible, _ := p.Project(ctx)

		oldIndex := rapid.IntRange(0, len(visible)-1).Draw(rt, "oldIndex")
		newIndex := rapid.IntRange(0, len(visible)).Draw(rt, "newIndex")

		before := append([]string(nil), visible.IDs()...)
		sort.Strings(before)
		sizeBefore := f.Size()

		if _, err := p.ResolveReorder(ctx, oldIndex, newIndex); err != nil {
			rt.Fatalf("ResolveReorder(%d, %d) error = %v", oldIndex, newIndex, err)
		}

		// No node appears or disappears.
		if f.Size() != sizeBefore {
			rt.Fatalf("Size() = %d, want %d", f.Size(), sizeBefore)
		}
		after := append([]string(nil), p.Visible().IDs()...)
		sort.Strings(after)
		if !reflect.DeepEqual(before, after) {
			rt.Fatalf("visible set changed: %v -> %v", before, after)
		}

		// Depths stay consistent & parent chains stay acyclic.
		for id, n := range f.nodes {
			parent := n.Parent()
			switch {
			case parent != nil && n.Depth() != parent.Depth()+1:
				rt.Fatalf("node %s depth %d under parent depth %d", id, n.Depth(), parent.Depth())
			case parent == nil && n.Depth() != 0:
				rt.Fatalf("node %s depth %d without parent", id, n.Depth())
			}

			for steps := 0; parent != nil; parent = parent.Parent() {
				if steps++; steps > f.Size() {
					rt.Fatalf("cycle through node %s", id)
				}
			}
		}
	})
}
