// Package spawnlog builds execution-log records from completed input mappings.
// The record schema is versioned independently of the expansion core; nothing
// in the core depends on this package.
package spawnlog

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/spawnkit-io/spawnkit/exec/artifact"
	"github.com/spawnkit-io/spawnkit/exec/spawn"
	"github.com/spawnkit-io/spawnkit/interfaces"
	"github.com/spawnkit-io/spawnkit/util/hash"
	"github.com/spawnkit-io/spawnkit/util/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// SchemaVersion identifies the record layout. Bump on incompatible changes.
const SchemaVersion = 1

// File is one resolved input or produced output.
type File struct {
	Path      string `json:"path"`
	Digest    string `json:"digest,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	IsTool    bool   `json:"is_tool,omitempty"`
}

// EnvVar is one environment variable of the executed command.
type EnvVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Timings carries per-phase wall times, in milliseconds.
type Timings struct {
	TotalMillis            int64 `json:"total_millis,omitempty"`
	ParseMillis            int64 `json:"parse_millis,omitempty"`
	NetworkMillis          int64 `json:"network_millis,omitempty"`
	FetchMillis            int64 `json:"fetch_millis,omitempty"`
	QueueMillis            int64 `json:"queue_millis,omitempty"`
	SetupMillis            int64 `json:"setup_millis,omitempty"`
	UploadMillis           int64 `json:"upload_millis,omitempty"`
	ExecutionMillis        int64 `json:"execution_millis,omitempty"`
	OutputProcessingMillis int64 `json:"output_processing_millis,omitempty"`
	RetryMillis            int64 `json:"retry_millis,omitempty"`
}

// Limits carries the input/output size and count caps in effect for the spawn.
type Limits struct {
	MaxInputCount  int64 `json:"max_input_count,omitempty"`
	MaxInputBytes  int64 `json:"max_input_bytes,omitempty"`
	MaxOutputCount int64 `json:"max_output_count,omitempty"`
	MaxOutputBytes int64 `json:"max_output_bytes,omitempty"`
}

// Record captures one executed spawn. Inputs and outputs are sorted
// lexicographically by path so that logs are comparable across runs.
type Record struct {
	SchemaVersion int `json:"schema_version"`

	CommandArgs []string          `json:"command_args,omitempty"`
	Env         []EnvVar          `json:"env,omitempty"`
	Platform    map[string]string `json:"platform,omitempty"`

	Inputs        []File   `json:"inputs,omitempty"`
	ListedOutputs []string `json:"listed_outputs,omitempty"`
	ActualOutputs []File   `json:"actual_outputs,omitempty"`

	Remotable      bool   `json:"remotable,omitempty"`
	Cacheable      bool   `json:"cacheable,omitempty"`
	RemoteCacheHit bool   `json:"remote_cache_hit,omitempty"`
	Runner         string `json:"runner,omitempty"`

	ExitCode int32  `json:"exit_code"`
	Status   string `json:"status,omitempty"`

	Timings Timings `json:"timings"`
	Limits  Limits  `json:"limits"`
}

// New seeds a record from a spawn and its completed input mapping. Digests and
// sizes come from the metadata cache where available; inputs without metadata
// (raw fileset targets, placeholders without content) are recorded by path
// alone.
func New(sp *spawn.Spawn, mapping map[string]artifact.ActionInput, cache interfaces.InputMetadataCache) *Record {
	tools := make(map[string]bool, len(sp.Tools))
	for _, tool := range sp.Tools {
		tools[tool.ExecPath()] = true
	}

	paths := maps.Keys(mapping)
	slices.Sort(paths)
	inputs := make([]File, 0, len(paths))
	for _, p := range paths {
		input := mapping[p]
		f := File{Path: p, IsTool: tools[input.ExecPath()]}
		switch in := input.(type) {
		case *artifact.VirtualInput:
			if content := in.Content(); len(content) > 0 {
				f.Digest = hash.Bytes(content)
				f.SizeBytes = int64(len(content))
			}
		default:
			if md, err := cache.Metadata(input); err == nil {
				f.Digest = md.Digest
				f.SizeBytes = md.SizeBytes
			} else {
				log.Debugf("no metadata for logged input %q: %s", p, err)
			}
		}
		inputs = append(inputs, f)
	}

	envNames := maps.Keys(sp.Env)
	slices.Sort(envNames)
	env := make([]EnvVar, 0, len(envNames))
	for _, name := range envNames {
		env = append(env, EnvVar{Name: name, Value: sp.Env[name]})
	}

	listed := slices.Clone(sp.Outputs)
	slices.Sort(listed)

	return &Record{
		SchemaVersion: SchemaVersion,
		CommandArgs:   sp.Arguments,
		Env:           env,
		Platform:      sp.Platform,
		Inputs:        inputs,
		ListedOutputs: listed,
	}
}

// Writer appends records to a stream as JSON lines. Safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// Write appends one record.
func (w *Writer) Write(r *Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(r)
}
