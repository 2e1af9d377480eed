package fileset_test

import (
	"testing"

	"github.com/spawnkit-io/spawnkit/exec/artifact"
	"github.com/spawnkit-io/spawnkit/exec/fileset"
	"github.com/spawnkit-io/spawnkit/util/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func link(from, to, containingDir string) artifact.FilesetSymlink {
	return artifact.FilesetSymlink{From: from, To: to, ContainingDir: containingDir}
}

func TestResolveAbsoluteTargets(t *testing.T) {
	entries, err := fileset.Resolve("/root", []artifact.FilesetSymlink{
		link("foo/bar", "/dir/file", "/root"),
		link("foo/baz", "/some", "/root"),
	}, fileset.ErrorRelativeSymlinks)

	require.NoError(t, err)
	assert.Equal(t, []fileset.Entry{
		{From: "foo/bar", Target: "/dir/file"},
		{From: "foo/baz", Target: "/some"},
	}, entries)
}

func TestResolveRebasesTargetsUnderContainingDirectory(t *testing.T) {
	// The manifest records targets against the exec root of the machine that
	// produced it; they must come back rooted at ours.
	entries, err := fileset.Resolve("/root", []artifact.FilesetSymlink{
		link("zizz", "/foo/fake_exec/xyz/zizz", "/foo/fake_exec/"),
		link("self", "/foo/fake_exec", "/foo/fake_exec/"),
	}, fileset.ErrorRelativeSymlinks)

	require.NoError(t, err)
	assert.Equal(t, []fileset.Entry{
		{From: "zizz", Target: "/root/xyz/zizz"},
		{From: "self", Target: "/root"},
	}, entries)
}

func TestResolveRelativeTargetPolicies(t *testing.T) {
	links := []artifact.FilesetSymlink{
		link("workspace/bar", "foo", "/root"),
		link("workspace/foo", "/root/bar", "/root"),
	}

	_, err := fileset.Resolve("/root", links, fileset.ErrorRelativeSymlinks)
	require.Error(t, err)
	assert.True(t, status.IsInvalidArgumentError(err))
	assert.Contains(t, status.Message(err), "fileset symlink workspace/bar is not absolute")

	entries, err := fileset.Resolve("/root", links, fileset.IgnoreRelativeSymlinks)
	require.NoError(t, err)
	assert.Equal(t, []fileset.Entry{
		{From: "workspace/foo", Target: "/root/bar"},
	}, entries)

	entries, err = fileset.Resolve("/root", links, fileset.ResolveRelativeSymlinks)
	require.NoError(t, err)
	assert.Equal(t, []fileset.Entry{
		{From: "workspace/bar", Target: "/root/foo"},
		{From: "workspace/foo", Target: "/root/bar"},
	}, entries)
}

func TestResolveErrorStopsAtFirstRelativeTarget(t *testing.T) {
	entries, err := fileset.Resolve("/root", []artifact.FilesetSymlink{
		link("a", "/ok", "/root"),
		link("b", "relative", "/root"),
		link("c", "/also/ok", "/root"),
	}, fileset.ErrorRelativeSymlinks)

	require.Error(t, err)
	assert.Contains(t, status.Message(err), "fileset symlink b is not absolute")
	assert.Nil(t, entries)
}

func TestResolveEmptyManifest(t *testing.T) {
	entries, err := fileset.Resolve("/root", nil, fileset.ErrorRelativeSymlinks)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSymlinkBehaviorString(t *testing.T) {
	assert.Equal(t, "error", fileset.ErrorRelativeSymlinks.String())
	assert.Equal(t, "ignore", fileset.IgnoreRelativeSymlinks.String())
	assert.Equal(t, "resolve", fileset.ResolveRelativeSymlinks.String())
}
