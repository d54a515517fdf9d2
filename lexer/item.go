// SPDX-License-Identifier: MIT
package lexer

type (
	// ItemID identifies the class of a lexed Item.
	ItemID int

	// Item holds one token scanned from a serialized forest.
	Item struct {
		Err error
		Val []byte // The value of this Item
		ID  ItemID // The type of this Item
	}
)

const (
	_             = iota // Consume 0 to start actual numbering at 1.
	ItemError            // Notify occurrence of an `error`.
	ItemSplitter         // Separates node identifiers.
	ItemEOF              // End of the input.
	ItemValue            // A node identifier.
	ItemEndMarker        // Terminates a node's child list.
)
