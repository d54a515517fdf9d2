// SPDX-License-Identifier: MIT
package treeview

import (
	"context"
	"errors"
	"fmt"

	"github.com/youngchan1988/flexible-tree-view/lexer"
)

// Deserialization errors.
var (
	ErrInvalidSerializationSrc = errors.New("invalid serialization source")
	ErrExcessiveValues         = errors.New("the deserialization source has excessive values")
	ErrExcessiveEndMarkers     = errors.New("the deserialization source has excessive end markers")
)

// Deserialize transforms a serialized forest back into a Forest, resolving
// each identifier's payload through resolve (nil leaves zero payloads).
//
// The input arrives through [lexer.WithSource]; an invalid entry results in
// a truncated Forest.
func Deserialize[T any](ctx context.Context, resolve ResolveFunc[T], options ...lexer.Option) (f *Forest[T], err error) {
	select {
	case <-ctx.Done():
		err = ctx.Err()
		return
	default:
		l := lexer.New(options...)
		go l.Lex(ctx)

		f = New[T]()
		for {
			var end bool
			if end, err = parseNode(ctx, f, l, nil, resolve); err != nil {
				err = fmt.Errorf("%w: %v", ErrInvalidSerializationSrc, err)
				return
			}
			if end {
				break
			}
		}

		// Drain pending tokens; the counters are final once the lexer's
		// channel closes.
		for {
			if _, proceed := l.Item(); !proceed {
				break
			}
		}

		diff := l.ValueCounter() - l.EndCounter()
		switch {
		case diff > 0:
			// Excessive values.
			err = fmt.Errorf("%w: +%d", ErrExcessiveValues, diff)
		case diff < 0:
			// Excessive end markers.
			err = fmt.Errorf("%w: %s +%d", ErrExcessiveEndMarkers, string(l.EndMarker()), diff*-1)
		default:
			// Valid
		}
		if err != nil {
			return
		}

		l.Logger().Debugf("forest roots: %+v", f.roots)
	}

	return
}

// parseNode performs the deserialization grunt work: it consumes one token
// &, for an identifier, registers the node under parent (nil for a root)
// then recurses over its child list.
func parseNode[T any](ctx context.Context, f *Forest[T], l *lexer.Lexer, parent *Node[T], resolve ResolveFunc[T]) (end bool, err error) {
	select {
	case <-ctx.Done():
		end = true
		err = ctx.Err()
		return
	default:
		item, proceed := l.Item()
		if !proceed {
			end = true
			return
		}

		l.Logger().Debugf("lexed item: %+v", item)

		switch item.ID {
		case lexer.ItemEOF:
			end = true
			return
		case lexer.ItemError:
			// Stop input processing.
			end = true
			err = item.Err
			return
		case lexer.ItemEndMarker:
			end = true
			return
		case lexer.ItemSplitter:
			return
		}

		id := string(item.Val)
		var node *Node[T]
		if node, err = newResolvedNode(ctx, f, id, resolve); err != nil {
			return
		}
		if parent != nil {
			err = parent.AddChild(ctx, node)
		} else {
			err = f.AddRoot(ctx, node)
		}
		if err != nil {
			return
		}

		for {
			var endChildren bool
			if endChildren, err = parseNode(ctx, f, l, node, resolve); endChildren || err != nil {
				// End of this node's child list.
				return false, err
			}
		}
	}
}
