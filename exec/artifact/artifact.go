// Package artifact models the file-like objects that can appear among a
// spawn's inputs: plain files, in-memory virtual inputs, tree artifacts and
// their children, archived tree representations, and filesets. The kind set is
// closed; expansion logic elsewhere dispatches on Kind.
package artifact

import (
	"fmt"
	"path"
	"strings"
)

// ActionInput is anything that can be staged into a spawn's sandbox: an
// artifact, a virtual input, or a raw path emitted by a fileset manifest.
type ActionInput interface {
	// ExecPath returns the input's path relative to the execution root, or an
	// absolute path for inputs that live outside it.
	ExecPath() string
}

// RootType distinguishes source roots from derived output roots.
type RootType int

const (
	SourceRoot RootType = iota
	OutputRoot
)

// Root is the directory an artifact's exec path descends from.
type Root struct {
	rootType RootType
	// execPathPrefix is the root's own exec path, e.g. "out" for a derived
	// root. Empty for source roots.
	execPathPrefix string
}

// NewSourceRoot returns the root for source artifacts.
func NewSourceRoot() Root {
	return Root{rootType: SourceRoot}
}

// NewOutputRoot returns a derived root whose outputs live under the given
// exec-root-relative prefix (e.g. "out").
func NewOutputRoot(execPathPrefix string) Root {
	return Root{rootType: OutputRoot, execPathPrefix: execPathPrefix}
}

func (r Root) IsSource() bool { return r.rootType == SourceRoot }

func (r Root) ExecPathPrefix() string { return r.execPathPrefix }

// Kind identifies an artifact variant.
type Kind int

const (
	// File is a single file (or, in non-strict runfiles mode, a directory) at
	// a concrete path.
	File Kind = iota
	// Tree is an output directory whose children are only known after the
	// producing action has run.
	Tree
	// TreeChild is a concrete leaf of a Tree artifact.
	TreeChild
	// ArchivedTree is a single-file archive representation of a Tree.
	ArchivedTree
	// Fileset is an artifact whose contents are an externally computed list
	// of symlink entries rather than real directory entries.
	Fileset
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Tree:
		return "tree"
	case TreeChild:
		return "tree_child"
	case ArchivedTree:
		return "archived_tree"
	case Fileset:
		return "fileset"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Artifact is an immutable identity for a build-produced or source file-like
// object, identified by its exec-root-relative path.
type Artifact struct {
	root     Root
	execPath string
	kind     Kind

	// parent is the owning Tree for TreeChild and ArchivedTree artifacts.
	parent *Artifact
	// treeRel is the parent-relative path of a TreeChild.
	treeRel string
}

// New returns a plain file artifact.
func New(root Root, execPath string) *Artifact {
	return &Artifact{root: root, execPath: execPath, kind: File}
}

// NewTree returns a tree artifact rooted at the given exec path.
func NewTree(root Root, execPath string) *Artifact {
	return &Artifact{root: root, execPath: execPath, kind: Tree}
}

// NewFileset returns a fileset artifact rooted at the given exec path.
func NewFileset(root Root, execPath string) *Artifact {
	return &Artifact{root: root, execPath: execPath, kind: Fileset}
}

// NewTreeChild returns the leaf of tree at the given tree-relative path.
func NewTreeChild(tree *Artifact, relPath string) *Artifact {
	return &Artifact{
		root:     tree.root,
		execPath: path.Join(tree.execPath, relPath),
		kind:     TreeChild,
		parent:   tree,
		treeRel:  relPath,
	}
}

// NewArchivedTree returns the single-file archive form of tree, stored at the
// given exec path.
func NewArchivedTree(tree *Artifact, execPath string) *Artifact {
	return &Artifact{root: tree.root, execPath: execPath, kind: ArchivedTree, parent: tree}
}

func (a *Artifact) ExecPath() string { return a.execPath }

func (a *Artifact) Root() Root { return a.root }

func (a *Artifact) Kind() Kind { return a.kind }

func (a *Artifact) IsTree() bool { return a.kind == Tree }

func (a *Artifact) IsFileset() bool { return a.kind == Fileset }

// Parent returns the owning tree of a TreeChild or ArchivedTree artifact, nil
// otherwise.
func (a *Artifact) Parent() *Artifact { return a.parent }

// TreeRelativePath returns a TreeChild's path relative to its parent tree.
func (a *Artifact) TreeRelativePath() string { return a.treeRel }

// RootRelativePath returns the exec path with the root's prefix stripped. This
// is the path an artifact occupies inside a runfiles workspace.
func (a *Artifact) RootRelativePath() string {
	if a.root.execPathPrefix == "" {
		return a.execPath
	}
	return strings.TrimPrefix(a.execPath, a.root.execPathPrefix+"/")
}

func (a *Artifact) String() string {
	return fmt.Sprintf("%s:%s", a.kind, a.execPath)
}

// VirtualInput is an in-memory input with no backing file.
type VirtualInput struct {
	execPath string
	content  []byte
}

// NewVirtualInput returns a virtual input with the given contents.
func NewVirtualInput(execPath string, content []byte) *VirtualInput {
	return &VirtualInput{execPath: execPath, content: content}
}

func (v *VirtualInput) ExecPath() string { return v.execPath }

func (v *VirtualInput) Content() []byte { return v.content }

// EmptyMarker is the shared empty virtual input staged to force a directory
// into existence, e.g. the workspace directory of an otherwise empty runfiles
// tree.
var EmptyMarker = &VirtualInput{}

// RawPath is an input addressed only by a filesystem path, with no artifact
// identity. Fileset manifest targets resolve to raw paths because they may
// point outside the exec root entirely.
type RawPath string

func (p RawPath) ExecPath() string { return string(p) }

// FileMetadata describes a declared input as known to the metadata cache.
type FileMetadata struct {
	IsDirectory bool
	Digest      string
	SizeBytes   int64
}

// FilesetSymlink is one entry of an externally computed fileset manifest.
type FilesetSymlink struct {
	// From is the symlink's path relative to the fileset root.
	From string
	// To is the symlink target. May be absolute or relative.
	To string
	// ContainingDir is the absolute directory the symlink was declared in.
	// Relative targets resolve against it, and absolute targets beneath it are
	// translated onto the local exec root.
	ContainingDir string
}

// RunfilesTree describes a symlink forest mimicking a runnable package's
// expected file layout.
type RunfilesTree struct {
	// ExecPath is the tree's mount point, e.g. "out/bin/foo.runfiles".
	ExecPath string
	// Workspace is the workspace directory name under the mount point.
	Workspace string
	// Artifacts maps workspace-relative paths to artifacts. A nil artifact
	// records a required absence and produces no mapping entry.
	Artifacts map[string]*Artifact
	// Symlinks are explicit symlinks, sharing the workspace-relative namespace
	// with Artifacts.
	Symlinks map[string]*Artifact
	// RootSymlinks are relative to the mount point itself, escaping the
	// workspace directory.
	RootSymlinks map[string]*Artifact
}

// NewRunfilesTree returns an empty runfiles tree mounted at execPath.
func NewRunfilesTree(execPath, workspace string) *RunfilesTree {
	return &RunfilesTree{
		ExecPath:     execPath,
		Workspace:    workspace,
		Artifacts:    make(map[string]*Artifact),
		Symlinks:     make(map[string]*Artifact),
		RootSymlinks: make(map[string]*Artifact),
	}
}

// AddArtifact registers an artifact at its root-relative path, the location it
// occupies inside the workspace.
func (t *RunfilesTree) AddArtifact(a *Artifact) *RunfilesTree {
	t.Artifacts[a.RootRelativePath()] = a
	return t
}

// AddSymlink registers an explicit symlink at a workspace-relative path.
func (t *RunfilesTree) AddSymlink(relPath string, a *Artifact) *RunfilesTree {
	t.Symlinks[relPath] = a
	return t
}

// AddRootSymlink registers a symlink relative to the mount point, outside the
// workspace directory.
func (t *RunfilesTree) AddRootSymlink(relPath string, a *Artifact) *RunfilesTree {
	t.RootSymlinks[relPath] = a
	return t
}

// IsEmpty reports whether the tree carries no artifacts or symlinks at all.
func (t *RunfilesTree) IsEmpty() bool {
	return len(t.Artifacts) == 0 && len(t.Symlinks) == 0 && len(t.RootSymlinks) == 0
}
