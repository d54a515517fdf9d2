// SPDX-License-Identifier: MIT
package treeview

import (
	"context"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// ExpansionState is a persistable delta of per-node expansion against a
// depth-based default: nodes above defaultDepth default to expanded, the
// rest to collapsed, & only deviations are recorded.
type ExpansionState struct {
	Version  int             `json:"version"`
	Expanded map[string]bool `json:"expanded"`
}

// ExpansionStateVersion is the current expansion state format version.
const ExpansionStateVersion = 1

// CaptureExpansion records the attached nodes whose expansion deviates from
// the depth-based default.
func (f *Forest[T]) CaptureExpansion(defaultDepth int) (state *ExpansionState) {
	state = &ExpansionState{
		Version:  ExpansionStateVersion,
		Expanded: make(map[string]bool),
	}

	var walk func(n *Node[T])
	walk = func(n *Node[T]) {
		if n.expanded != (n.depth < defaultDepth) {
			state.Expanded[n.id] = n.expanded
		}

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

	return
}

// ApplyExpansion resets the attached nodes to the depth-based default, then
// overlays the recorded deviations; identifiers unknown to the forest are
// ignored. Triggers a single rebuild request.
func (f *Forest[T]) ApplyExpansion(ctx context.Context, state *ExpansionState, defaultDepth int) error {
	if state != nil && state.Version != ExpansionStateVersion {
		return fmt.Errorf("%w: %d", ErrSnapshotVersion, state.Version)
	}

	var walk func(n *Node[T])
	walk = func(n *Node[T]) {
		expanded := n.depth < defaultDepth
		if state != nil {
			if deviation, ok := state.Expanded[n.id]; ok {
				expanded = deviation
			}
		}
		if n.expanded != expanded {
			n.expanded = expanded
			n.notify()
		}

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

	f.notifyStructure(ctx, nil)

	return nil
}

// Save streams the expansion state to w.
func (s *ExpansionState) Save(w io.Writer) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}

// LoadExpansionState decodes an expansion state from r.
func LoadExpansionState(r io.Reader) (state *ExpansionState, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}

	state = &ExpansionState{}
	if err = json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	if state.Expanded == nil {
		state.Expanded = make(map[string]bool)
	}

	return
}
