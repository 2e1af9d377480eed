// Package interfaces holds the narrow collaborator capabilities consumed by
// the input expansion code. Keeping them here lets the core stay free of
// build-graph, cache, and configuration knowledge, and lets tests substitute
// fakes per capability.
package interfaces

import (
	"github.com/spawnkit-io/spawnkit/exec/artifact"
)

// ArtifactExpander supplies expansion data for aggregate artifacts. An
// expander is only required to serve the artifacts it was configured with;
// asking it about anything else is a caller bug and surfaces as a hard
// failure, not a recoverable condition.
type ArtifactExpander interface {
	// ExpandTree returns the concrete child leaves of a tree artifact.
	ExpandTree(tree *artifact.Artifact) ([]*artifact.Artifact, error)

	// ArchivedTree returns the single-file archive form of a tree artifact,
	// or nil if no archived form exists for it.
	ArchivedTree(tree *artifact.Artifact) *artifact.Artifact

	// FilesetLinks returns the ordered symlink entries backing a fileset
	// artifact.
	FilesetLinks(fileset *artifact.Artifact) ([]artifact.FilesetSymlink, error)
}

// InputMetadataCache answers metadata queries for declared inputs. It is
// assumed to be fully populated before a preparation call begins; lookups do
// not block on I/O.
type InputMetadataCache interface {
	Metadata(input artifact.ActionInput) (*artifact.FileMetadata, error)
}

// PathMapper rewrites configuration-specific exec path segments so that
// logically identical spawns share cache keys across configurations. Mappers
// must be pure: same input, same output.
//
// A mapper is applied exactly once per subtree root; paths produced by
// expanding that root are built by appending the unmapped relative suffix to
// the mapped root.
type PathMapper interface {
	Map(execPath string) string
}

// PathMapperFunc adapts a function to the PathMapper interface.
type PathMapperFunc func(execPath string) string

func (f PathMapperFunc) Map(execPath string) string { return f(execPath) }

// NoopPathMapper leaves every path unchanged.
var NoopPathMapper PathMapper = PathMapperFunc(func(execPath string) string { return execPath })
