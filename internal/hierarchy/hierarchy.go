// Package hierarchy arranges the folders of a drive into a tree so that
// listings can be bounded by depth and entities can be given paths.
package hierarchy

import (
	"fmt"
	"math"
	"strings"

	"arfs-go/internal/arfs"
)

// Unlimited is a depth that includes every descendant.
const Unlimited = math.MaxInt

const noParent = -1

type node struct {
	id       arfs.EntityID
	parent   int
	linked   bool // the folder has a parent, even if it is outside this tree
	children []int
}

// Hierarchy is an immutable folder tree stored as an arena of nodes. A
// Hierarchy built from a sub-tree cannot compute paths.
type Hierarchy struct {
	folders map[arfs.EntityID]*arfs.FileOrFolder
	order   []arfs.EntityID
	nodes   []node
	index   map[arfs.EntityID]int
}

// New builds a hierarchy from folders in any order. When a folder id occurs
// more than once the first occurrence wins. Folders whose parent is not in
// the input become roots.
func New(folders []*arfs.FileOrFolder) *Hierarchy {
	h := &Hierarchy{
		folders: make(map[arfs.EntityID]*arfs.FileOrFolder, len(folders)),
		index:   make(map[arfs.EntityID]int, len(folders)),
	}
	for _, f := range folders {
		if _, ok := h.folders[f.EntityID]; ok {
			continue
		}
		h.folders[f.EntityID] = f
		h.order = append(h.order, f.EntityID)
	}

	visiting := make(map[arfs.EntityID]bool)
	for _, id := range h.order {
		h.link(id, visiting)
	}
	return h
}

// link adds the node for id after making sure its parent's node exists.
func (h *Hierarchy) link(id arfs.EntityID, visiting map[arfs.EntityID]bool) int {
	if i, ok := h.index[id]; ok {
		return i
	}
	visiting[id] = true
	defer delete(visiting, id)

	parentID := h.folders[id].ParentFolderID
	parent := noParent
	if _, ok := h.folders[parentID]; ok && !visiting[parentID] {
		parent = h.link(parentID, visiting)
	}

	i := len(h.nodes)
	h.nodes = append(h.nodes, node{id: id, parent: parent})
	h.index[id] = i
	if parent != noParent {
		h.nodes[i].linked = true
		h.nodes[parent].children = append(h.nodes[parent].children, i)
	}
	return i
}

// Root returns the root of the tree containing the first input folder.
func (h *Hierarchy) Root() (arfs.EntityID, bool) {
	r := h.root()
	if r == noParent {
		return "", false
	}
	return h.nodes[r].id, true
}

func (h *Hierarchy) root() int {
	if len(h.order) == 0 {
		return noParent
	}
	i := h.index[h.order[0]]
	for h.nodes[i].parent != noParent {
		i = h.nodes[i].parent
	}
	return i
}

// Folder returns the folder entity with id.
func (h *Hierarchy) Folder(id arfs.EntityID) (*arfs.FileOrFolder, bool) {
	f, ok := h.folders[id]
	return f, ok
}

// FolderIDs returns every folder id in input order.
func (h *Hierarchy) FolderIDs() []arfs.EntityID {
	out := make([]arfs.EntityID, len(h.order))
	copy(out, h.order)
	return out
}

// SubtreeOf returns the hierarchy rooted at id, keeping at most maxDepth
// levels of descendants.
func (h *Hierarchy) SubtreeOf(id arfs.EntityID, maxDepth int) (*Hierarchy, error) {
	start, ok := h.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", arfs.ErrFolderNotFound, id)
	}

	sub := &Hierarchy{
		folders: make(map[arfs.EntityID]*arfs.FileOrFolder),
		index:   make(map[arfs.EntityID]int),
	}
	var copyNode func(i, parent, depth int)
	copyNode = func(i, parent, depth int) {
		n := h.nodes[i]
		j := len(sub.nodes)
		sub.nodes = append(sub.nodes, node{id: n.id, parent: parent, linked: n.linked})
		sub.index[n.id] = j
		sub.folders[n.id] = h.folders[n.id]
		sub.order = append(sub.order, n.id)
		if parent != noParent {
			sub.nodes[parent].children = append(sub.nodes[parent].children, j)
		}
		if depth <= 0 {
			return
		}
		for _, c := range n.children {
			copyNode(c, j, depth-1)
		}
	}
	copyNode(start, noParent, maxDepth)
	return sub, nil
}

// FolderIDSubtree returns id followed by its descendants in pre-order,
// descending at most maxDepth levels. A depth of zero returns only id.
func (h *Hierarchy) FolderIDSubtree(id arfs.EntityID, maxDepth int) ([]arfs.EntityID, error) {
	start, ok := h.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", arfs.ErrFolderNotFound, id)
	}
	var out []arfs.EntityID
	var walk func(i, depth int)
	walk = func(i, depth int) {
		out = append(out, h.nodes[i].id)
		if depth <= 0 {
			return
		}
		for _, c := range h.nodes[i].children {
			walk(c, depth-1)
		}
	}
	walk(start, maxDepth)
	return out, nil
}

// PathTo returns the name path of folder id, e.g. "/Drive Root/Photos/".
func (h *Hierarchy) PathTo(id arfs.EntityID) (string, error) {
	return h.pathTo(id, func(f *arfs.FileOrFolder) string { return f.Name })
}

// EntityIDPathTo returns the path of folder id made of folder ids.
func (h *Hierarchy) EntityIDPathTo(id arfs.EntityID) (string, error) {
	return h.pathTo(id, func(f *arfs.FileOrFolder) string { return string(f.EntityID) })
}

// TxIDPathTo returns the path of folder id made of metadata transaction ids.
func (h *Hierarchy) TxIDPathTo(id arfs.EntityID) (string, error) {
	return h.pathTo(id, func(f *arfs.FileOrFolder) string { return string(f.TxID) })
}

func (h *Hierarchy) pathTo(id arfs.EntityID, segment func(*arfs.FileOrFolder) string) (string, error) {
	root := h.root()
	if root != noParent && h.nodes[root].linked {
		return "", arfs.ErrSubtreePaths
	}
	if id == arfs.RootFolderID {
		return "/", nil
	}
	i, ok := h.index[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", arfs.ErrFolderNotFound, id)
	}

	var segments []string
	for {
		segments = append(segments, segment(h.folders[h.nodes[i].id]))
		if i == root || h.nodes[i].parent == noParent {
			break
		}
		i = h.nodes[i].parent
	}
	if i != root {
		return "", fmt.Errorf("%w: %s", arfs.ErrDisjointHierarchy, id)
	}

	for l, r := 0, len(segments)-1; l < r; l, r = l+1, r-1 {
		segments[l], segments[r] = segments[r], segments[l]
	}
	return "/" + strings.Join(segments, "/") + "/", nil
}

// WithPaths decorates e with paths computed from its parent folder.
func (h *Hierarchy) WithPaths(e *arfs.FileOrFolder) (*arfs.WithPaths, error) {
	path, err := h.PathTo(e.ParentFolderID)
	if err != nil {
		return nil, err
	}
	txPath, err := h.TxIDPathTo(e.ParentFolderID)
	if err != nil {
		return nil, err
	}
	idPath, err := h.EntityIDPathTo(e.ParentFolderID)
	if err != nil {
		return nil, err
	}
	return &arfs.WithPaths{
		FileOrFolder: e,
		Path:         path + e.Name,
		TxIDPath:     txPath + string(e.TxID),
		EntityIDPath: idPath + string(e.EntityID),
	}, nil
}
