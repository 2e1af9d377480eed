// Package spawninput builds the per-spawn input mapping: the flattened set of
// sandbox-relative paths a spawn is allowed to see, combining ordinary inputs,
// expanded tree artifacts, runfiles trees, and fileset manifests.
//
// An Expander is configured once and is safe for concurrent use, provided each
// preparation call gets its own freshly created mapping and its own metadata
// cache handle. Within one call all work is synchronous.
package spawninput

import (
	"context"
	"path"
	"strings"

	"github.com/spawnkit-io/spawnkit/exec/artifact"
	"github.com/spawnkit-io/spawnkit/exec/fileset"
	"github.com/spawnkit-io/spawnkit/exec/spawn"
	"github.com/spawnkit-io/spawnkit/interfaces"
	"github.com/spawnkit-io/spawnkit/metrics"
	"github.com/spawnkit-io/spawnkit/util/log"
	"github.com/spawnkit-io/spawnkit/util/status"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	gstatus "google.golang.org/grpc/status"
)

// Expander flattens a spawn's inputs into a mapping from sandbox-relative path
// to resolved input.
type Expander struct {
	execRoot string
	strict   bool

	relativeSymlinks fileset.SymlinkBehavior
	// expandArchivedTreeArtifacts controls whether tree artifacts are expanded
	// to their child leaves. When false, a tree contributes a single entry:
	// its archived form if the oracle has one, else the tree itself.
	expandArchivedTreeArtifacts bool
}

// New returns an Expander with the default fileset policy (relative targets
// are an error) and tree children expanded individually. In strict mode,
// runfiles entries backed by directories are rejected.
func New(execRoot string, strict bool) *Expander {
	return NewWithOptions(execRoot, strict, fileset.ErrorRelativeSymlinks, true)
}

// NewWithOptions returns an Expander with an explicit relative-symlink policy
// and archived-tree-expansion setting.
func NewWithOptions(execRoot string, strict bool, relativeSymlinks fileset.SymlinkBehavior, expandArchivedTreeArtifacts bool) *Expander {
	return &Expander{
		execRoot:                    execRoot,
		strict:                      strict,
		relativeSymlinks:            relativeSymlinks,
		expandArchivedTreeArtifacts: expandArchivedTreeArtifacts,
	}
}

// InputMapping computes the full input mapping for one spawn: ordinary inputs
// first, then runfiles trees in declared order, then fileset manifests in
// declared order. A later insertion targeting an already-populated sandbox
// path wins.
//
// The returned mapping is freshly allocated per call and is never retained by
// the Expander.
func (e *Expander) InputMapping(sp *spawn.Spawn, x interfaces.ArtifactExpander, mapper interfaces.PathMapper, baseDir string, cache interfaces.InputMetadataCache) (m map[string]artifact.ActionInput, err error) {
	defer func() {
		metrics.SpawnInputExpansions.With(statusLabel(err)).Inc()
		if err == nil {
			metrics.SpawnInputMappingSize.Observe(float64(len(m)))
		}
	}()

	m = make(map[string]artifact.ActionInput)
	if err := e.addOrdinaryInputs(m, sp.Inputs, x, mapper, baseDir); err != nil {
		return nil, err
	}
	for _, rt := range sp.RunfilesTrees {
		if err := e.AddRunfiles(m, rt, cache, x, mapper, baseDir); err != nil {
			return nil, err
		}
	}
	if err := e.addFilesetManifests(sp.Filesets, m, mapper, baseDir); err != nil {
		return nil, err
	}
	return m, nil
}

// InputMappings computes one private mapping per spawn, preparing spawns in
// parallel. The metadata cache must tolerate concurrent reads; a pre-populated
// read-only cache does.
func (e *Expander) InputMappings(ctx context.Context, spawns []*spawn.Spawn, x interfaces.ArtifactExpander, mapper interfaces.PathMapper, baseDir string, cache interfaces.InputMetadataCache) ([]map[string]artifact.ActionInput, error) {
	mappings := make([]map[string]artifact.ActionInput, len(spawns))
	g, ctx := errgroup.WithContext(ctx)
	for i, sp := range spawns {
		i, sp := i, sp
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := e.InputMapping(sp, x, mapper, baseDir, cache)
			if err != nil {
				return err
			}
			mappings[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mappings, nil
}

func (e *Expander) addOrdinaryInputs(m map[string]artifact.ActionInput, inputs []artifact.ActionInput, x interfaces.ArtifactExpander, mapper interfaces.PathMapper, baseDir string) error {
	for _, input := range inputs {
		if a, ok := input.(*artifact.Artifact); ok {
			if a.IsTree() {
				mount := path.Join(baseDir, mapper.Map(a.ExecPath()))
				if err := e.addTree(m, mount, a, x); err != nil {
					return err
				}
				continue
			}
			if a.IsFileset() {
				// Resolved through the spawn's fileset mappings.
				continue
			}
		}
		addMapping(m, path.Join(baseDir, mapper.Map(input.ExecPath())), input)
	}
	return nil
}

// addTree adds a tree artifact's contribution under mount. The mount point has
// already been path-mapped; child paths are appended verbatim.
func (e *Expander) addTree(m map[string]artifact.ActionInput, mount string, tree *artifact.Artifact, x interfaces.ArtifactExpander) error {
	if archived := x.ArchivedTree(tree); archived != nil {
		addMapping(m, mount, archived)
		return nil
	}
	if !e.expandArchivedTreeArtifacts {
		addMapping(m, mount, tree)
		return nil
	}
	children, err := x.ExpandTree(tree)
	if err != nil {
		return status.WrapErrorf(err, "expand tree artifact %s", tree.ExecPath())
	}
	for _, child := range children {
		addMapping(m, path.Join(mount, child.TreeRelativePath()), child)
	}
	return nil
}

// AddRunfiles flattens one runfiles tree into the mapping. The tree's mount
// point is path-mapped once; every entry below it keeps its unmapped relative
// path. Entries are visited in sorted path order so that repeated invocations
// produce identical mappings.
func (e *Expander) AddRunfiles(m map[string]artifact.ActionInput, rt *artifact.RunfilesTree, cache interfaces.InputMetadataCache, x interfaces.ArtifactExpander, mapper interfaces.PathMapper, baseDir string) error {
	root := path.Join(baseDir, mapper.Map(rt.ExecPath))
	workspaceDir := path.Join(root, rt.Workspace)

	// Explicit symlinks share the workspace-relative namespace with artifact
	// mappings.
	merged := make(map[string]*artifact.Artifact, len(rt.Artifacts)+len(rt.Symlinks))
	for relPath, a := range rt.Artifacts {
		merged[relPath] = a
	}
	for relPath, a := range rt.Symlinks {
		merged[relPath] = a
	}

	for _, relPath := range sortedKeys(merged) {
		a := merged[relPath]
		if a == nil {
			// A required absence, not an error.
			continue
		}
		if err := e.addRunfilesInput(m, path.Join(workspaceDir, relPath), relPath, a, cache, x); err != nil {
			return err
		}
	}
	for _, relPath := range sortedKeys(rt.RootSymlinks) {
		a := rt.RootSymlinks[relPath]
		if a == nil {
			continue
		}
		if err := e.addRunfilesInput(m, path.Join(root, relPath), relPath, a, cache, x); err != nil {
			return err
		}
	}

	// A tree whose entries all live outside the workspace directory (e.g.
	// root symlinks only) still needs the workspace directory to exist.
	if !rt.IsEmpty() && !hasEntryUnder(m, workspaceDir) {
		addMapping(m, path.Join(workspaceDir, ".runfile"), artifact.EmptyMarker)
	}
	return nil
}

func (e *Expander) addRunfilesInput(m map[string]artifact.ActionInput, location, relPath string, a *artifact.Artifact, cache interfaces.InputMetadataCache, x interfaces.ArtifactExpander) error {
	switch {
	case a.IsTree():
		return e.addTree(m, location, a, x)
	case a.IsFileset():
		links, err := x.FilesetLinks(a)
		if err != nil {
			return status.WrapErrorf(err, "resolve fileset %s in runfiles", a.ExecPath())
		}
		return e.addFilesetManifest(m, location, links)
	}
	if e.strict {
		md, err := cache.Metadata(a)
		if err != nil {
			return status.WrapErrorf(err, "look up metadata for runfiles entry %s", relPath)
		}
		if md.IsDirectory {
			return status.InvalidArgumentErrorf("not a regular file: %s", relPath)
		}
	}
	addMapping(m, location, a)
	return nil
}

// AddFilesetManifests resolves each fileset's symlink entries into mapping
// entries under baseDir/<fileset exec path>/<entry path>. Filesets are
// processed in declared order, entries in manifest order; duplicate
// destinations resolve last-write-wins.
func (e *Expander) AddFilesetManifests(filesets []spawn.FilesetMapping, m map[string]artifact.ActionInput, baseDir string) error {
	return e.addFilesetManifests(filesets, m, interfaces.NoopPathMapper, baseDir)
}

func (e *Expander) addFilesetManifests(filesets []spawn.FilesetMapping, m map[string]artifact.ActionInput, mapper interfaces.PathMapper, baseDir string) error {
	for _, fm := range filesets {
		mount := path.Join(baseDir, mapper.Map(fm.Fileset.ExecPath()))
		if err := e.addFilesetManifest(m, mount, fm.Links); err != nil {
			return err
		}
	}
	return nil
}

func (e *Expander) addFilesetManifest(m map[string]artifact.ActionInput, mount string, links []artifact.FilesetSymlink) error {
	entries, err := fileset.Resolve(e.execRoot, links, e.relativeSymlinks)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		// Fileset targets may point outside the exec root, so they are staged
		// as raw paths with no artifact identity.
		addMapping(m, path.Join(mount, entry.From), artifact.RawPath(entry.Target))
	}
	return nil
}

// addMapping inserts an entry, last write wins. Two distinct inputs resolving
// to the same sandbox path is suspicious enough to count and log, but it is
// not an error.
func addMapping(m map[string]artifact.ActionInput, key string, input artifact.ActionInput) {
	if prev, ok := m[key]; ok && prev != input {
		metrics.InputMappingOverwrites.Inc()
		log.Debugf("input mapping overwrite at %q: %q replaces %q", key, input.ExecPath(), prev.ExecPath())
	}
	m[key] = input
}

func hasEntryUnder(m map[string]artifact.ActionInput, dir string) bool {
	prefix := dir + "/"
	for key := range m {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]*artifact.Artifact) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

func statusLabel(err error) map[string]string {
	return map[string]string{metrics.StatusLabel: gstatus.Code(err).String()}
}
