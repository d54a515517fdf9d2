// SPDX-License-Identifier: MIT
package treeview

import (
	"context"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

type (
	// nodeRecord is the wire form of one attached node.
	nodeRecord[T any] struct {
		ID          string `json:"id"`
		Parent      string `json:"parent,omitempty"`
		Data        T      `json:"data"`
		Expanded    bool   `json:"expanded,omitempty"`
		Reorderable bool   `json:"reorderable"`
	}

	// forestSnapshot is the wire form of a Forest: attached nodes in
	// pre-order, so every parent precedes its children & sibling order is
	// the record order.
	forestSnapshot[T any] struct {
		Version int             `json:"version"`
		Nodes   []nodeRecord[T] `json:"nodes"`
	}
)

// SnapshotVersion is the current snapshot wire format version.
const SnapshotVersion = 1

// Snapshot codec errors.
var (
	ErrSnapshotVersion = errors.New("unsupported snapshot version")
	ErrInvalidSnapshot = errors.New("invalid forest snapshot")
)

// MarshalJSON encodes the attached nodes, their payloads & expansion state;
// detached arena nodes are omitted. Implements [json.Marshaler].
func (f *Forest[T]) MarshalJSON() ([]byte, error) {
	snapshot := forestSnapshot[T]{
		Version: SnapshotVersion,
		Nodes:   make([]nodeRecord[T], 0, len(f.nodes)),
	}

	var walk func(n *Node[T])
	walk = func(n *Node[T]) {
		snapshot.Nodes = append(snapshot.Nodes, nodeRecord[T]{
			ID:          n.id,
			Parent:      n.parent,
			Data:        n.data,
			Expanded:    n.expanded,
			Reorderable: n.reorderable,
		})

		for _, id := range n.children {
			if child, ok := f.nodes[id]; ok {
				walk(child)
			}
		}
	}
	for _, id := range f.roots {
		if root, ok := f.nodes[id]; ok {
			walk(root)
		}
	}

	return json.Marshal(&snapshot)
}

// UnmarshalForest decodes a snapshot produced by [Forest.MarshalJSON] into a
// fresh Forest.
func UnmarshalForest[T any](ctx context.Context, data []byte, options ...Option[T]) (f *Forest[T], err error) {
	var snapshot forestSnapshot[T]
	if err = json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotVersion, snapshot.Version)
	}

	f = New(options...)
	for _, record := range snapshot.Nodes {
		var node *Node[T]
		node, err = f.NewNode(
			ctx, record.Data,
			WithID[T](record.ID),
			WithExpanded[T](record.Expanded),
			WithReorderable[T](record.Reorderable),
		)
		if err != nil {
			return nil, err
		}

		// Pre-order guarantees the parent is already registered.
		if record.Parent == "" {
			err = f.AddRoot(ctx, node)
		} else {
			var parent *Node[T]
			if parent, err = f.Locate(ctx, record.Parent); err != nil {
				return nil, err
			}
			err = parent.AddChild(ctx, node)
		}
		if err != nil {
			return nil, err
		}
	}

	return f, nil
}

// WriteSnapshot streams the forest snapshot to w.
func (f *Forest[T]) WriteSnapshot(w io.Writer) error {
	data, err := f.MarshalJSON()
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}

// ReadSnapshot decodes a forest snapshot from r.
func ReadSnapshot[T any](ctx context.Context, r io.Reader, options ...Option[T]) (*Forest[T], error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	return UnmarshalForest(ctx, data, options...)
}
