package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/averden/modelget/internal/config"
	"github.com/averden/modelget/internal/logx"
	"github.com/rs/zerolog"
)

// Store persists individual part files under the artifact's data directory.
// Part files on disk are the entire resume mechanism: there is no manifest
// or journal beside them.
type Store struct {
	artifact config.Artifact
	log      zerolog.Logger
}

func New(artifact config.Artifact) (*Store, error) {
	if err := os.MkdirAll(artifact.PartsDir(), 0755); err != nil {
		return nil, fmt.Errorf("error creating parts directory: %w", err)
	}
	return &Store{
		artifact: artifact,
		log:      logx.With("store"),
	}, nil
}

func (s *Store) Exists(index int) bool {
	info, err := os.Stat(s.artifact.PartPath(index))
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Scan enumerates all part indices currently usable on disk. Unreadable,
// empty, undersized, or digest-mismatched files are treated as missing so
// they get re-fetched; the scan itself never fails on bad part content.
func (s *Store) Scan() (map[int]bool, error) {
	present := make(map[int]bool)
	for i := 0; i < s.artifact.PartCount; i++ {
		path := s.artifact.PartPath(i)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if !info.Mode().IsRegular() || info.Size() == 0 {
			s.log.Warn().Str("op", "store/scan").Msgf("ignoring unusable part file %s", path)
			continue
		}
		if s.artifact.PartSize > 0 && i < s.artifact.PartCount-1 && info.Size() != s.artifact.PartSize {
			s.log.Warn().Str("op", "store/scan").Msgf("part %02d has size %d, expected %d, will re-fetch", i+1, info.Size(), s.artifact.PartSize)
			continue
		}
		if digest := s.artifact.PartDigest(i); digest != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				s.log.Warn().Str("op", "store/scan").Msgf("error reading part %02d for verification: %v", i+1, err)
				continue
			}
			if !digestMatches(data, digest) {
				s.log.Warn().Str("op", "store/scan").Msgf("part %02d failed checksum, will re-fetch", i+1)
				continue
			}
		}
		present[i] = true
	}
	return present, nil
}

// Write persists one complete part. The bytes land in a temp file first and
// are renamed into place, so a crash never leaves a truncated part behind.
// Safe for concurrent calls on different indices; rewriting an index is
// last-write-wins.
func (s *Store) Write(index int, data []byte) error {
	path := s.artifact.PartPath(index)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("error writing part %02d: %w", index+1, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("error finalizing part %02d: %w", index+1, err)
	}
	s.log.Debug().Str("op", "store/write").Msgf("persisted part %02d (%d bytes)", index+1, len(data))
	return nil
}

func (s *Store) Read(index int) ([]byte, error) {
	data, err := os.ReadFile(s.artifact.PartPath(index))
	if err != nil {
		return nil, fmt.Errorf("error reading part %02d: %w", index+1, err)
	}
	return data, nil
}

func (s *Store) FinalExists() bool {
	info, err := os.Stat(s.artifact.FinalPath())
	return err == nil && info.Mode().IsRegular()
}

func (s *Store) FinalPath() string {
	return s.artifact.FinalPath()
}

// RemoveParts deletes all cached part files, leaving the final artifact (if
// any) untouched.
func (s *Store) RemoveParts() error {
	entries, err := os.ReadDir(s.artifact.PartsDir())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.artifact.PartsDir(), entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func digestMatches(data []byte, expected string) bool {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]) == expected
}
