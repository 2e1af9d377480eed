// Package spawn defines the value type describing one subprocess invocation of
// a build action, as handed to the input expansion and execution layers.
package spawn

import (
	"github.com/spawnkit-io/spawnkit/exec/artifact"
)

// FilesetMapping pairs a fileset artifact with the manifest symlinks that
// define its contents.
type FilesetMapping struct {
	Fileset *artifact.Artifact
	Links   []artifact.FilesetSymlink
}

// Spawn is one subprocess invocation representing (part of) a build action's
// execution. It is a plain value: the action graph fills it in, the expansion
// and execution layers only read it.
type Spawn struct {
	// Arguments is the command line, argv[0] first.
	Arguments []string
	// Env is the subprocess environment.
	Env map[string]string
	// Platform carries the execution platform properties.
	Platform map[string]string

	// Inputs are the declared ordinary inputs, in declared order. Tree
	// artifacts are expanded to their children; fileset artifacts among the
	// inputs are resolved through Filesets instead.
	Inputs []artifact.ActionInput
	// Tools is the subset of Inputs that are tools. Only the execution log
	// cares about the distinction.
	Tools []artifact.ActionInput
	// RunfilesTrees are the runfiles trees attached to the spawn, in declared
	// order.
	RunfilesTrees []*artifact.RunfilesTree
	// Filesets are the fileset manifests attached to the spawn, in declared
	// order.
	Filesets []FilesetMapping

	// Outputs are the declared output paths.
	Outputs []string
}

// New returns a spawn running the given command line.
func New(arguments ...string) *Spawn {
	return &Spawn{Arguments: arguments}
}

// WithInputs appends ordinary inputs in declared order.
func (s *Spawn) WithInputs(inputs ...artifact.ActionInput) *Spawn {
	s.Inputs = append(s.Inputs, inputs...)
	return s
}

// WithTool appends an input and marks it as a tool.
func (s *Spawn) WithTool(input artifact.ActionInput) *Spawn {
	s.Inputs = append(s.Inputs, input)
	s.Tools = append(s.Tools, input)
	return s
}

// WithRunfilesTree attaches a runfiles tree.
func (s *Spawn) WithRunfilesTree(t *artifact.RunfilesTree) *Spawn {
	s.RunfilesTrees = append(s.RunfilesTrees, t)
	return s
}

// WithFileset attaches a fileset manifest.
func (s *Spawn) WithFileset(fs *artifact.Artifact, links []artifact.FilesetSymlink) *Spawn {
	s.Filesets = append(s.Filesets, FilesetMapping{Fileset: fs, Links: links})
	return s
}
