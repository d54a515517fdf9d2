// SPDX-License-Identifier: MIT
package treeview

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// TraverseChan defines a channel to communicate info between a Forest
// traversal operation & its caller.
type TraverseChan[T any] struct {
	node     *Node[T]
	err      error
	newPeers bool
}

const (
	traverseBufferSize = 10

	// findPoolSize bounds the match fan-out of [Forest.FindFunc].
	findPoolSize = 32
)

// ErrNoLeaves indicates a forest without attached terminal nodes.
var ErrNoLeaves = errors.New("no leaves found")

// Node retrieves the traversed node.
func (t TraverseChan[T]) Node() *Node[T] { return t.node }

// NewPeers reports whether the node opens a new traversal level.
func (t TraverseChan[T]) NewPeers() bool { return t.newPeers }

// Err retrieves a traversal error.
func (t TraverseChan[T]) Err() error { return t.err }

// Locate retrieves a registered node by identifier.
func (f *Forest[T]) Locate(_ context.Context, id string) (node *Node[T], err error) {
	node, ok := f.nodes[id]
	if !ok {
		err = fmt.Errorf("(%s) %w", id, ErrNotFound)
	}

	return
}

// Walk performs level-order traversal over the attached nodes, pushing them
// to its channel argument.
//
// A context.Context is used to terminate the walk operation.
func (f *Forest[T]) Walk(ctx context.Context, traverseChan chan TraverseChan[T]) {
	defer close(traverseChan)

	select {
	case <-ctx.Done():
		// Received context cancelation.
		traverseChan <- TraverseChan[T]{err: ctx.Err()}
		return
	default:
		queue := f.Roots()

		for len(queue) > 0 {
			qLen := len(queue)

			newPeers := true
			for ; qLen > 0; qLen-- {
				var front *Node[T]
				front, queue = queue[0], queue[1:]

				traverseChan <- TraverseChan[T]{node: front, newPeers: newPeers}
				newPeers = false

				queue = append(queue, front.Children()...)
			}
		}
	}
}

// FindFunc lists the attached nodes satisfying the predicate, ordered by
// identifier; match calls run on a bounded worker pool.
func (f *Forest[T]) FindFunc(ctx context.Context, match func(*Node[T]) bool) (found List[T], err error) {
	pool, err := ants.NewPool(findPoolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	found = make(List[T], 0)
	traverseChan := make(chan TraverseChan[T], traverseBufferSize)
	go f.Walk(ctx, traverseChan)

	for resl := range traverseChan {
		if resl.err != nil {
			err = resl.err
			continue
		}

		node := resl.node
		task := func() {
			defer wg.Done()
			if !match(node) {
				return
			}

			mu.Lock()
			found = append(found, node)
			mu.Unlock()
		}

		wg.Add(1)
		if pool.Submit(task) != nil {
			// Pool exhausted or released; fall through inline.
			task()
		}
	}
	wg.Wait()

	if err != nil {
		return nil, err
	}

	sort.Sort(&found)

	return found, ctx.Err()
}

// LeafNodes lists the attached terminal nodes.
func (f *Forest[T]) LeafNodes(ctx context.Context) (termNodes List[T], err error) {
	termNodes = make(List[T], 0)
	traverseChan := make(chan TraverseChan[T], traverseBufferSize)

	go f.Walk(ctx, traverseChan)

	for resl := range traverseChan {
		if err = resl.err; err != nil {
			return
		}

		if len(resl.node.children) < 1 {
			termNodes = append(termNodes, resl.node)
		}
	}

	if len(termNodes) < 1 {
		err = ErrNoLeaves
	}

	return
}

// Leaves lists the identifiers of the attached terminal nodes.
func (f *Forest[T]) Leaves(ctx context.Context) (termIDs []string, err error) {
	nodes, err := f.LeafNodes(ctx)
	if err != nil {
		return
	}

	termIDs = make([]string, len(nodes))
	for index := range nodes {
		termIDs[index] = nodes[index].id
	}

	return
}
