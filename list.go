// SPDX-License-Identifier: MIT
package treeview

// Len is the number of elements in the collection.
func (l *List[T]) Len() int { return len(*l) }

// Less reports whether the element with index i must sort before the element
// with index j.
func (l *List[T]) Less(i int, j int) bool { return (*l)[i].id < (*l)[j].id }

// Swap swaps the elements with indexes i and j.
func (l *List[T]) Swap(i int, j int) { (*l)[i], (*l)[j] = (*l)[j], (*l)[i] }

// IDs projects the list onto its node identifiers, preserving order.
func (l List[T]) IDs() (ids []string) {
	ids = make([]string, len(l))
	for index := range l {
		ids[index] = l[index].id
	}

	return
}

// Values projects the list onto its node payloads, preserving order.
func (l List[T]) Values() (values []T) {
	values = make([]T, len(l))
	for index := range l {
		values[index] = l[index].data
	}

	return
}

// Index reports the position of node in the list, -1 when absent.
func (l List[T]) Index(node *Node[T]) int {
	for index := range l {
		if l[index] == node {
			return index
		}
	}

	return -1
}
