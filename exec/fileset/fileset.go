// Package fileset resolves externally computed symlink manifests into concrete
// path→target pairs, applying a fixed policy to entries with relative targets.
package fileset

import (
	"path"
	"strings"

	"github.com/spawnkit-io/spawnkit/exec/artifact"
	"github.com/spawnkit-io/spawnkit/util/status"
)

// SymlinkBehavior is the policy applied to manifest entries whose target is
// not an absolute path.
type SymlinkBehavior int

const (
	// ErrorRelativeSymlinks fails the resolution on the first relative target.
	ErrorRelativeSymlinks SymlinkBehavior = iota
	// IgnoreRelativeSymlinks drops entries with relative targets.
	IgnoreRelativeSymlinks
	// ResolveRelativeSymlinks resolves relative targets against the entry's
	// containing directory.
	ResolveRelativeSymlinks
)

func (b SymlinkBehavior) String() string {
	switch b {
	case ErrorRelativeSymlinks:
		return "error"
	case IgnoreRelativeSymlinks:
		return "ignore"
	case ResolveRelativeSymlinks:
		return "resolve"
	default:
		return "unknown"
	}
}

// Entry is one resolved manifest entry: a fileset-relative destination mapped
// to an absolute target path.
type Entry struct {
	From   string
	Target string
}

// Resolve applies the relative-symlink policy to a manifest's symlink entries,
// in declared order, and returns the surviving entries. Later entries sharing
// a From path supersede earlier ones once inserted into a mapping; callers
// relying on that must preserve the returned order.
//
// Targets that fall under their entry's containing directory are translated
// onto execRoot. Manifests are computed against the exec root of the machine
// that produced them, so this is what keeps resolved mappings identical when
// the manifest is replayed on a machine with a different exec root.
func Resolve(execRoot string, links []artifact.FilesetSymlink, behavior SymlinkBehavior) ([]Entry, error) {
	entries := make([]Entry, 0, len(links))
	for _, link := range links {
		target := link.To
		if !path.IsAbs(target) {
			switch behavior {
			case ErrorRelativeSymlinks:
				return nil, status.InvalidArgumentErrorf("fileset symlink %s is not absolute (points to %q)", link.From, link.To)
			case IgnoreRelativeSymlinks:
				continue
			case ResolveRelativeSymlinks:
				target = path.Join(link.ContainingDir, target)
			default:
				return nil, status.InternalErrorf("unknown relative symlink behavior %d", behavior)
			}
		}
		if rel, ok := pathUnder(target, link.ContainingDir); ok {
			target = path.Join(execRoot, rel)
		}
		entries = append(entries, Entry{From: link.From, Target: target})
	}
	return entries, nil
}

// pathUnder returns p's path relative to dir if p is dir or a descendant of
// it.
func pathUnder(p, dir string) (string, bool) {
	if dir == "" {
		return "", false
	}
	dir = strings.TrimSuffix(dir, "/")
	if p == dir {
		return "", true
	}
	if rest, ok := strings.CutPrefix(p, dir+"/"); ok {
		return rest, true
	}
	return "", false
}
