package assemble

import (
	"fmt"
	"os"

	"github.com/averden/modelget/internal/config"
	"github.com/averden/modelget/internal/logx"
	"github.com/averden/modelget/internal/store"
	"github.com/rs/zerolog"
)

// Error means a part was missing or unreadable at assembly time. The
// scheduler guarantees all parts are durable before assembly runs, so this
// signals a defect, not a condition to retry.
type Error struct {
	Index int
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("assembly failed at part %02d: %v", e.Index+1, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Assembler concatenates all parts, in ascending index order, into the
// final artifact file.
type Assembler struct {
	artifact config.Artifact
	store    *store.Store
	log      zerolog.Logger
}

func New(artifact config.Artifact, st *store.Store) *Assembler {
	return &Assembler{
		artifact: artifact,
		store:    st,
		log:      logx.With("assemble"),
	}
}

// Assemble writes the concatenation to a partial file and renames it into
// place, so a crash mid-assembly leaves no final file rather than a
// truncated one. Returns the final path. Part files are removed afterwards
// unless the artifact is configured to keep them.
func (a *Assembler) Assemble() (string, error) {
	finalPath := a.artifact.FinalPath()
	partialPath := finalPath + ".partial"
	out, err := os.Create(partialPath)
	if err != nil {
		return "", fmt.Errorf("error creating output file: %w", err)
	}
	var written int64
	for i := 0; i < a.artifact.PartCount; i++ {
		data, err := a.store.Read(i)
		if err != nil {
			out.Close()
			os.Remove(partialPath)
			return "", &Error{Index: i, Err: err}
		}
		if len(data) == 0 {
			out.Close()
			os.Remove(partialPath)
			return "", &Error{Index: i, Err: fmt.Errorf("part file is empty")}
		}
		n, err := out.Write(data)
		if err != nil {
			out.Close()
			os.Remove(partialPath)
			return "", fmt.Errorf("error writing output file: %w", err)
		}
		written += int64(n)
	}
	if err := out.Close(); err != nil {
		os.Remove(partialPath)
		return "", fmt.Errorf("error closing output file: %w", err)
	}
	if a.artifact.TotalSize > 0 && written != a.artifact.TotalSize {
		os.Remove(partialPath)
		return "", fmt.Errorf("size mismatch: expected %d bytes, wrote %d", a.artifact.TotalSize, written)
	}
	if err := os.Rename(partialPath, finalPath); err != nil {
		os.Remove(partialPath)
		return "", fmt.Errorf("error finalizing output file: %w", err)
	}
	a.log.Info().Str("op", "assemble/done").Msgf("assembled %s (%d bytes from %d parts)", finalPath, written, a.artifact.PartCount)
	if !a.artifact.KeepParts {
		if err := a.store.RemoveParts(); err != nil {
			// Final artifact is already in place; stale parts only cost disk.
			a.log.Warn().Str("op", "assemble/cleanup").Msgf("error removing part files: %v", err)
		}
	}
	return finalPath, nil
}
