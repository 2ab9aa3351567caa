package rgssad

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/meigma/rgssad/internal/format"
	"github.com/meigma/rgssad/internal/rgsstype"
)

// Revision identifies the container layout by its header byte.
type Revision uint8

const (
	// RevisionUnknown is reported for header bytes this package cannot decode.
	RevisionUnknown Revision = 0

	// Revision1 is the layout of .rgssad and .rgss2a archives.
	Revision1 Revision = 1

	// Revision3 is the layout of .rgss3a archives.
	Revision3 Revision = 3
)

// String returns a short label such as "v1".
func (r Revision) String() string {
	switch r {
	case Revision1, Revision3:
		return fmt.Sprintf("v%d", uint8(r))
	default:
		return "unknown"
	}
}

// Engine is the engine generation an archive was made for, as implied by its
// file extension.
type Engine int

const (
	// EngineUnknown is reported for unrecognized extensions.
	EngineUnknown Engine = iota

	// EngineXP uses .rgssad archives.
	EngineXP

	// EngineVX uses .rgss2a archives.
	EngineVX

	// EngineVXAce uses .rgss3a archives.
	EngineVXAce
)

var engineExtensions = map[string]Engine{
	".rgssad": EngineXP,
	".rgss2a": EngineVX,
	".rgss3a": EngineVXAce,
}

// EngineFromPath classifies path by its extension, ignoring case.
// It performs no I/O.
func EngineFromPath(path string) (Engine, bool) {
	e, ok := engineExtensions[strings.ToLower(filepath.Ext(path))]
	return e, ok
}

// Revision returns the header revision archives of this engine carry.
func (e Engine) Revision() Revision {
	switch e {
	case EngineXP, EngineVX:
		return Revision1
	case EngineVXAce:
		return Revision3
	default:
		return RevisionUnknown
	}
}

// String returns the engine name.
func (e Engine) String() string {
	switch e {
	case EngineXP:
		return "XP"
	case EngineVX:
		return "VX"
	case EngineVXAce:
		return "VX Ace"
	default:
		return "unknown"
	}
}

// DetectRevision reads the header of r.
//
// ErrInvalidArchive is returned if the signature does not match. A valid
// signature followed by an unsupported revision byte yields RevisionUnknown
// and a nil error, so callers may try another detection scheme. r is
// rewound to offset 0 before DetectRevision returns.
func DetectRevision(r io.ReadSeeker) (Revision, error) {
	b, err := format.Probe(r)
	if err != nil {
		return RevisionUnknown, err
	}
	switch rev := Revision(b); rev {
	case Revision1, Revision3:
		return rev, nil
	default:
		return RevisionUnknown, nil
	}
}

// DetectRevisionStrict is like DetectRevision but reports an unsupported
// revision byte as ErrInvalidArchive.
func DetectRevisionStrict(r io.ReadSeeker) (Revision, error) {
	b, err := format.Probe(r)
	if err != nil {
		return RevisionUnknown, err
	}
	switch rev := Revision(b); rev {
	case Revision1, Revision3:
		return rev, nil
	default:
		return RevisionUnknown, fmt.Errorf("%w: unsupported revision %d", rgsstype.ErrInvalidArchive, b)
	}
}
