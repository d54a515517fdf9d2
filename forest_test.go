// SPDX-License-Identifier: MIT
package treeview

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// recordingObserver counts structure notifications for assertions.
type recordingObserver[T any] struct {
	calls   int
	origins []*Node[T]
}

func (o *recordingObserver[T]) StructureChanged(_ context.Context, origin *Node[T]) {
	o.calls++
	o.origins = append(o.origins, origin)
}

// mustNode registers a node whose payload doubles as its identifier.
func mustNode(t *testing.T, f *Forest[string], id string, options ...NodeOption[string]) *Node[string] {
	t.Helper()

	node, err := f.NewNode(context.Background(), id, append(options, WithID[string](id))...)
	if err != nil {
		t.Fatalf("NewNode(%s) error = %v", id, err)
	}

	return node
}

func mustRoot(t *testing.T, f *Forest[string], node *Node[string]) {
	t.Helper()

	if err := f.AddRoot(context.Background(), node); err != nil {
		t.Fatalf("AddRoot(%s) error = %v", node.ID(), err)
	}
}

func mustChild(t *testing.T, parent, child *Node[string]) {
	t.Helper()

	if err := parent.AddChild(context.Background(), child); err != nil {
		t.Fatalf("AddChild(%s, %s) error = %v", parent.ID(), child.ID(), err)
	}
}

func TestNew(t *testing.T) {
	f := New[string]()

	if f.Size() != 0 {
		t.Errorf("New().Size() = %d, want 0", f.Size())
	}
	if len(f.Roots()) != 0 {
		t.Errorf("New().Roots() = %v, want empty", f.Roots().IDs())
	}
	if f.Config() == nil || f.Config().Logger == nil {
		t.Errorf("New().Config() = %+v, want default config", f.Config())
	}
}

func TestForest_AddRoot(t *testing.T) {
	ctx := context.Background()
	f, other := New[string](), New[string]()

	a, b := mustNode(t, f, "a"), mustNode(t, f, "b")
	foreign := mustNode(t, other, "foreign")

	if err := f.AddRoot(ctx, a); err != nil {
		t.Fatalf("AddRoot(a) error = %v", err)
	}
	if err := f.AddRoot(ctx, b); err != nil {
		t.Fatalf("AddRoot(b) error = %v", err)
	}

	if got, want := f.RootIDs(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("RootIDs() = %v, want %v", got, want)
	}

	if err := f.AddRoot(ctx, a); !errors.Is(err, ErrAlreadyRoot) {
		t.Errorf("AddRoot(a) again error = %v, want ErrAlreadyRoot", err)
	}
	if err := f.AddRoot(ctx, nil); !errors.Is(err, ErrNilNode) {
		t.Errorf("AddRoot(nil) error = %v, want ErrNilNode", err)
	}
	if err := f.AddRoot(ctx, foreign); !errors.Is(err, ErrForeignNode) {
		t.Errorf("AddRoot(foreign) error = %v, want ErrForeignNode", err)
	}
}

func TestForest_InsertRootAt(t *testing.T) {
	ctx := context.Background()
	f := New[string]()

	a, b, c := mustNode(t, f, "a"), mustNode(t, f, "b"), mustNode(t, f, "c")
	mustRoot(t, f, a)
	mustRoot(t, f, b)

	if err := f.InsertRootAt(ctx, 0, c); err != nil {
		t.Fatalf("InsertRootAt(0, c) error = %v", err)
	}
	if got, want := f.RootIDs(), []string{"c", "a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("RootIDs() = %v, want %v", got, want)
	}

	// A failed insert must leave an attached node where it was.
	child := mustNode(t, f, "child")
	mustChild(t, a, child)
	if err := f.InsertRootAt(ctx, 7, child); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("InsertRootAt(7, child) error = %v, want ErrInvalidIndex", err)
	}
	if child.Parent() != a {
		t.Errorf("child.Parent() = %v, want a after failed insert", child.Parent())
	}

	// Promoting a child detaches it from its parent.
	if err := f.InsertRootAt(ctx, 1, child); err != nil {
		t.Fatalf("InsertRootAt(1, child) error = %v", err)
	}
	if a.ChildCount() != 0 {
		t.Errorf("a.ChildCount() = %d, want 0 after promotion", a.ChildCount())
	}
	if got, want := f.RootIDs(), []string{"c", "child", "a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("RootIDs() = %v, want %v", got, want)
	}
	if child.Depth() != 0 {
		t.Errorf("child.Depth() = %d, want 0", child.Depth())
	}
}

func TestForest_RemoveRoot(t *testing.T) {
	ctx := context.Background()
	f := New[string]()

	a, b := mustNode(t, f, "a"), mustNode(t, f, "b")
	mustRoot(t, f, a)

	if err := f.RemoveRoot(ctx, a); err != nil {
		t.Fatalf("RemoveRoot(a) error = %v", err)
	}
	if len(f.RootIDs()) != 0 {
		t.Errorf("RootIDs() = %v, want empty", f.RootIDs())
	}
	if _, ok := f.Get("a"); !ok {
		t.Errorf("Get(a) missing, detached root must stay registered")
	}

	if err := f.RemoveRoot(ctx, b); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveRoot(b) error = %v, want ErrNotFound", err)
	}
}

func TestForest_Drop(t *testing.T) {
	ctx := context.Background()
	f := New[string]()

	root, child := mustNode(t, f, "root"), mustNode(t, f, "child")
	mustRoot(t, f, root)
	mustChild(t, root, child)

	if err := f.Drop(ctx, root); err != nil {
		t.Fatalf("Drop(root) error = %v", err)
	}

	if _, ok := f.Get("root"); ok {
		t.Errorf("Get(root) found, want dropped from the arena")
	}
	if child.Parent() != nil || child.Depth() != 0 {
		t.Errorf("child = parent %v depth %d, want orphaned", child.Parent(), child.Depth())
	}
	if _, ok := f.Get("child"); !ok {
		t.Errorf("Get(child) missing, orphan must stay registered")
	}

	if err := f.Drop(ctx, root); !errors.Is(err, ErrNotFound) {
		t.Errorf("Drop(root) again error = %v, want ErrNotFound", err)
	}
}

func TestForest_IsAncestor(t *testing.T) {
	f := New[string]()

	root, mid, leaf := mustNode(t, f, "root"), mustNode(t, f, "mid"), mustNode(t, f, "leaf")
	other := mustNode(t, f, "other")
	mustRoot(t, f, root)
	mustChild(t, root, mid)
	mustChild(t, mid, leaf)

	tests := []struct {
		name     string
		ancestor *Node[string]
		node     *Node[string]
		want     bool
	}{
		{"direct parent", root, mid, true},
		{"transitive", root, leaf, true},
		{"self", mid, mid, false},
		{"inverted", leaf, root, false},
		{"unrelated", other, leaf, false},
		{"nil ancestor", nil, leaf, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.IsAncestor(tt.ancestor, tt.node); got != tt.want {
				t.Errorf("IsAncestor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestForest_NewNode_DuplicateID(t *testing.T) {
	f := New[string]()

	mustNode(t, f, "a")
	if _, err := f.NewNode(context.Background(), "again", WithID[string]("a")); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("NewNode(duplicate) error = %v, want ErrDuplicateID", err)
	}
}

func TestForest_Locate(t *testing.T) {
	ctx := context.Background()
	f := New[string]()
	a := mustNode(t, f, "a")

	node, err := f.Locate(ctx, "a")
	if err != nil || node != a {
		t.Errorf("Locate(a) = %v, %v, want a, nil", node, err)
	}

	if _, err = f.Locate(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Locate(missing) error = %v, want ErrNotFound", err)
	}
}

func TestForest_FindFunc(t *testing.T) {
	ctx := context.Background()
	f := New[string]()

	root, b, c := mustNode(t, f, "root"), mustNode(t, f, "b"), mustNode(t, f, "c")
	mustNode(t, f, "detached")
	mustRoot(t, f, root)
	mustChild(t, root, b)
	mustChild(t, root, c)

	found, err := f.FindFunc(ctx, func(n *Node[string]) bool { return n.ID() != "root" })
	if err != nil {
		t.Fatalf("FindFunc() error = %v", err)
	}
	// Detached nodes are not searched; results sort by identifier.
	if got, want := found.IDs(), []string{"b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("FindFunc() = %v, want %v", got, want)
	}
}

func TestForest_Leaves(t *testing.T) {
	ctx := context.Background()
	f := New[string]()

	root, mid, leaf := mustNode(t, f, "root"), mustNode(t, f, "mid"), mustNode(t, f, "leaf")
	lone := mustNode(t, f, "lone")
	mustRoot(t, f, root)
	mustRoot(t, f, lone)
	mustChild(t, root, mid)
	mustChild(t, mid, leaf)

	leaves, err := f.Leaves(ctx)
	if err != nil {
		t.Fatalf("Leaves() error = %v", err)
	}
	if got, want := leaves, []string{"lone", "leaf"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Leaves() = %v, want %v", got, want)
	}

	empty := New[string]()
	if _, err = empty.Leaves(ctx); !errors.Is(err, ErrNoLeaves) {
		t.Errorf("Leaves() on empty forest error = %v, want ErrNoLeaves", err)
	}
}
