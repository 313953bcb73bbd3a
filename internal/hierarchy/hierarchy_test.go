package hierarchy

import (
	"errors"
	"slices"
	"testing"

	"arfs-go/internal/arfs"
)

const (
	rootID  arfs.EntityID = "00000000-0000-4000-8000-000000000001"
	photos  arfs.EntityID = "00000000-0000-4000-8000-000000000002"
	docs    arfs.EntityID = "00000000-0000-4000-8000-000000000003"
	summer  arfs.EntityID = "00000000-0000-4000-8000-000000000004"
	beach   arfs.EntityID = "00000000-0000-4000-8000-000000000005"
	orphan  arfs.EntityID = "00000000-0000-4000-8000-000000000006"
	missing arfs.EntityID = "00000000-0000-4000-8000-0000000000ff"
)

func folder(id, parent arfs.EntityID, name string) *arfs.FileOrFolder {
	return &arfs.FileOrFolder{
		Entity: arfs.Entity{
			Name:       name,
			EntityType: arfs.EntityTypeFolder,
			TxID:       arfs.Address("tx-" + name),
		},
		EntityID:       id,
		ParentFolderID: parent,
	}
}

// testTree is
//
//	Root
//	├── Photos
//	│   └── Summer
//	│       └── Beach
//	└── Docs
//
// given in an order where children precede their parents.
func testTree() []*arfs.FileOrFolder {
	return []*arfs.FileOrFolder{
		folder(beach, summer, "Beach"),
		folder(summer, photos, "Summer"),
		folder(photos, rootID, "Photos"),
		folder(docs, rootID, "Docs"),
		folder(rootID, arfs.RootFolderID, "Root"),
	}
}

func TestNew_Root(t *testing.T) {
	t.Parallel()

	h := New(testTree())
	got, ok := h.Root()
	if !ok || got != rootID {
		t.Errorf("Root() = %s, %v, want %s", got, ok, rootID)
	}
	if ids := h.FolderIDs(); len(ids) != 5 || ids[0] != beach {
		t.Errorf("FolderIDs() = %v", ids)
	}

	if _, ok := New(nil).Root(); ok {
		t.Error("Root() of empty hierarchy ok = true")
	}
}

func TestFolderIDSubtree(t *testing.T) {
	t.Parallel()
	h := New(testTree())

	tests := []struct {
		name  string
		id    arfs.EntityID
		depth int
		want  []arfs.EntityID
	}{
		{name: "depth 0", id: rootID, depth: 0, want: []arfs.EntityID{rootID}},
		{name: "depth 1", id: rootID, depth: 1, want: []arfs.EntityID{rootID, photos, docs}},
		{name: "depth 2", id: rootID, depth: 2, want: []arfs.EntityID{rootID, photos, summer, docs}},
		{name: "unlimited", id: rootID, depth: Unlimited, want: []arfs.EntityID{rootID, photos, summer, beach, docs}},
		{name: "inner folder", id: photos, depth: 1, want: []arfs.EntityID{photos, summer}},
		{name: "leaf", id: docs, depth: 5, want: []arfs.EntityID{docs}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.FolderIDSubtree(tt.id, tt.depth)
			if err != nil {
				t.Fatalf("FolderIDSubtree() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("FolderIDSubtree() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := h.FolderIDSubtree(missing, 1); !errors.Is(err, arfs.ErrFolderNotFound) {
		t.Errorf("FolderIDSubtree(missing) error = %v, want ErrFolderNotFound", err)
	}
}

func TestPaths(t *testing.T) {
	t.Parallel()
	h := New(testTree())

	tests := []struct {
		id       arfs.EntityID
		wantPath string
		wantTx   string
		wantIDs  string
	}{
		{id: arfs.RootFolderID, wantPath: "/", wantTx: "/", wantIDs: "/"},
		{id: rootID, wantPath: "/Root/", wantTx: "/tx-Root/", wantIDs: "/" + string(rootID) + "/"},
		{
			id:       beach,
			wantPath: "/Root/Photos/Summer/Beach/",
			wantTx:   "/tx-Root/tx-Photos/tx-Summer/tx-Beach/",
			wantIDs:  "/" + string(rootID) + "/" + string(photos) + "/" + string(summer) + "/" + string(beach) + "/",
		},
	}
	for _, tt := range tests {
		if got, err := h.PathTo(tt.id); err != nil || got != tt.wantPath {
			t.Errorf("PathTo(%s) = %q, %v, want %q", tt.id, got, err, tt.wantPath)
		}
		if got, err := h.TxIDPathTo(tt.id); err != nil || got != tt.wantTx {
			t.Errorf("TxIDPathTo(%s) = %q, %v, want %q", tt.id, got, err, tt.wantTx)
		}
		if got, err := h.EntityIDPathTo(tt.id); err != nil || got != tt.wantIDs {
			t.Errorf("EntityIDPathTo(%s) = %q, %v, want %q", tt.id, got, err, tt.wantIDs)
		}
	}

	if _, err := h.PathTo(missing); !errors.Is(err, arfs.ErrFolderNotFound) {
		t.Errorf("PathTo(missing) error = %v, want ErrFolderNotFound", err)
	}
}

func TestPaths_ChildExtendsParent(t *testing.T) {
	t.Parallel()
	h := New(testTree())

	for _, id := range []arfs.EntityID{photos, summer, beach, docs} {
		f, _ := h.Folder(id)
		parentPath, err := h.PathTo(f.ParentFolderID)
		if err != nil {
			t.Fatalf("PathTo(parent) error = %v", err)
		}
		got, _ := h.PathTo(id)
		if want := parentPath + f.Name + "/"; got != want {
			t.Errorf("PathTo(%s) = %q, want %q", f.Name, got, want)
		}
	}
}

func TestPaths_DisjointForest(t *testing.T) {
	t.Parallel()
	h := New(append(testTree(), folder(orphan, missing, "Lost")))

	if _, err := h.PathTo(orphan); !errors.Is(err, arfs.ErrDisjointHierarchy) {
		t.Errorf("PathTo(orphan) error = %v, want ErrDisjointHierarchy", err)
	}
}

func TestSubtreeOf(t *testing.T) {
	t.Parallel()
	h := New(testTree())

	sub, err := h.SubtreeOf(photos, 1)
	if err != nil {
		t.Fatalf("SubtreeOf() error = %v", err)
	}
	if got := sub.FolderIDs(); !slices.Equal(got, []arfs.EntityID{photos, summer}) {
		t.Errorf("FolderIDs() = %v", got)
	}
	if root, _ := sub.Root(); root != photos {
		t.Errorf("Root() = %s, want %s", root, photos)
	}
	if _, err := sub.PathTo(summer); !errors.Is(err, arfs.ErrSubtreePaths) {
		t.Errorf("PathTo() on sub-tree error = %v, want ErrSubtreePaths", err)
	}

	full, err := h.SubtreeOf(rootID, Unlimited)
	if err != nil {
		t.Fatalf("SubtreeOf(root) error = %v", err)
	}
	if got, err := full.PathTo(beach); err != nil || got != "/Root/Photos/Summer/Beach/" {
		t.Errorf("PathTo() on root sub-tree = %q, %v", got, err)
	}

	if _, err := h.SubtreeOf(missing, 1); !errors.Is(err, arfs.ErrFolderNotFound) {
		t.Errorf("SubtreeOf(missing) error = %v, want ErrFolderNotFound", err)
	}
}

func TestNew_ParentCycleDoesNotLoop(t *testing.T) {
	t.Parallel()

	a := folder(photos, docs, "A")
	b := folder(docs, photos, "B")
	h := New([]*arfs.FileOrFolder{a, b})
	if _, ok := h.Root(); !ok {
		t.Error("Root() ok = false")
	}
}

func TestWithPaths(t *testing.T) {
	t.Parallel()
	h := New(testTree())

	file := &arfs.FileOrFolder{
		Entity:         arfs.Entity{Name: "sand.jpg", EntityType: arfs.EntityTypeFile, TxID: "tx-sand"},
		EntityID:       orphan,
		ParentFolderID: beach,
	}
	wp, err := h.WithPaths(file)
	if err != nil {
		t.Fatalf("WithPaths() error = %v", err)
	}
	if wp.Path != "/Root/Photos/Summer/Beach/sand.jpg" {
		t.Errorf("Path = %q", wp.Path)
	}
	if wp.TxIDPath != "/tx-Root/tx-Photos/tx-Summer/tx-Beach/tx-sand" {
		t.Errorf("TxIDPath = %q", wp.TxIDPath)
	}

	root, _ := h.Folder(rootID)
	wp, err = h.WithPaths(root)
	if err != nil || wp.Path != "/Root" {
		t.Errorf("WithPaths(root) = %q, %v, want /Root", wp.Path, err)
	}
}
