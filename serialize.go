// SPDX-License-Identifier: MIT
package treeview

import (
	"context"
	"strings"

	"github.com/youngchan1988/flexible-tree-view/lexer"
)

// Serialize transforms a Forest into the compact identifier format, e.g.
// `root,child),child2))` with a second root appended as `,root2)`.
//
// Only attached nodes serialize; expansion state & payloads do not, see
// [Forest.WriteSnapshot] for a lossless encoding.
func (f *Forest[T]) Serialize(ctx context.Context, options ...lexer.Option) (output string, err error) {
	// Materialized only for its configured markers.
	l := lexer.New(options...)

	serChan := make(chan string)
	go func() {
		for _, id := range f.roots {
			if root, ok := f.nodes[id]; ok {
				root.serialize(ctx, l.EndMarker(), serChan)
			}
		}
		close(serChan)
	}()

	fValue, fProceed := <-serChan
	if !fProceed {
		return
	}
	var buffer strings.Builder
	if _, err = buffer.WriteString(fValue); err != nil {
		// Invalidate serialization output.
		return
	}

	select {
	case <-ctx.Done():
		err = ctx.Err()
		return
	default:
		endMarker := string(l.EndMarker())
		for {
			value, proceed := <-serChan
			if !proceed {
				break
			}

			// The splitter precedes identifiers, never end markers.
			if value != endMarker {
				if _, err = buffer.WriteString(string(l.Splitter())); err != nil {
					return
				}
			}
			if _, err = buffer.WriteString(value); err != nil {
				// Invalidate serialization output.
				return
			}
		}

		output = buffer.String()
	}

	return
}

// serialize performs the serialization grunt work.
func (n *Node[T]) serialize(ctx context.Context, endMarker rune, serChan chan string) {
	serChan <- n.id

	select {
	case <-ctx.Done():
		// NOTE: context error captured in [Forest.Serialize].
		return
	default:
		for _, id := range n.children {
			if child, ok := n.f.nodes[id]; ok {
				child.serialize(ctx, endMarker, serChan)
			}
		}
	}
	serChan <- string(endMarker)
}
