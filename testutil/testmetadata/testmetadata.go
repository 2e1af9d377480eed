// Package testmetadata provides an in-memory InputMetadataCache for tests.
package testmetadata

import (
	"github.com/spawnkit-io/spawnkit/exec/artifact"
	"github.com/spawnkit-io/spawnkit/util/status"
)

// Cache is a fake metadata cache. Tests register metadata for exactly the
// inputs a preparation call is expected to consult; any other lookup fails.
type Cache struct {
	metadata map[artifact.ActionInput]*artifact.FileMetadata
}

func NewCache() *Cache {
	return &Cache{metadata: make(map[artifact.ActionInput]*artifact.FileMetadata)}
}

// PutFile registers regular-file metadata for an input.
func (c *Cache) PutFile(input artifact.ActionInput, digest string, sizeBytes int64) {
	c.metadata[input] = &artifact.FileMetadata{Digest: digest, SizeBytes: sizeBytes}
}

// PutDirectory registers directory metadata for an input.
func (c *Cache) PutDirectory(input artifact.ActionInput) {
	c.metadata[input] = &artifact.FileMetadata{IsDirectory: true}
}

func (c *Cache) Metadata(input artifact.ActionInput) (*artifact.FileMetadata, error) {
	if md, ok := c.metadata[input]; ok {
		return md, nil
	}
	return nil, status.NotFoundErrorf("no metadata for %q", input.ExecPath())
}
