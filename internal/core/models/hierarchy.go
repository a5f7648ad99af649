package models

import "weak"

// tree is the traversal state shared by every object of one hierarchy.
// Structural changes requested while a traversal is running are queued and
// applied once the outermost traversal returns.
type tree struct {
	depth   int
	pending []func()
}

func newTree() *tree { return &tree{} }

func (t *tree) enter() { t.depth++ }

func (t *tree) leave() {
	t.depth--
	if t.depth > 0 {
		return
	}
	for len(t.pending) > 0 {
		ops := t.pending
		t.pending = nil
		for _, op := range ops {
			op()
		}
	}
}

func (t *tree) run(op func()) {
	if t.depth > 0 {
		t.pending = append(t.pending, op)
		return
	}
	op()
}

// Traversing reports whether a traversal of o's hierarchy is in progress.
func (o *GameObject) Traversing() bool { return o.tree.depth > 0 }

func (o *GameObject) attach(child *GameObject) {
	child.parent = weak.Make(o)
	o.children = append(o.children, child)
	child.setTree(o.tree)
}

func (o *GameObject) detach(child *GameObject) bool {
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			child.parent = weak.Pointer[GameObject]{}
			child.setTree(newTree())
			return true
		}
	}
	return false
}

func (o *GameObject) setTree(t *tree) {
	o.tree = t
	for _, c := range o.children {
		c.setTree(t)
	}
}

// AddChild attaches child, which must currently be a root. When a
// traversal is running the change is applied after it finishes.
func (o *GameObject) AddChild(child *GameObject) error {
	if child == nil {
		return ErrNilObject
	}
	if child.Parent() != nil {
		return ErrHasParent
	}
	if child == o || child.IsAncestorOf(o) {
		return ErrCycle
	}
	o.schedule(child, func() { o.attach(child) })
	return nil
}

// RemoveChild detaches child, making it a root of its own hierarchy.
func (o *GameObject) RemoveChild(child *GameObject) error {
	if child == nil {
		return ErrNilObject
	}
	if child.Parent() != o {
		return ErrNotAChild
	}
	o.schedule(child, func() { o.detach(child) })
	return nil
}

// SetParent moves o under parent, or makes o a root when parent is nil.
func (o *GameObject) SetParent(parent *GameObject) error {
	if parent == o || o.IsAncestorOf(parent) {
		return ErrCycle
	}
	old := o.Parent()
	if old == parent {
		return nil
	}
	o.schedule(parent, func() {
		if cur := o.Parent(); cur != nil {
			cur.detach(o)
		}
		if parent != nil {
			parent.attach(o)
		}
	})
	return nil
}

// Detach makes o a root.
func (o *GameObject) Detach() error {
	return o.SetParent(nil)
}

// schedule runs op now, or queues it on whichever involved hierarchy is
// being traversed.
func (o *GameObject) schedule(other *GameObject, op func()) {
	t := o.tree
	if t.depth == 0 && other != nil && other.tree.depth > 0 {
		t = other.tree
	}
	t.run(op)
}
