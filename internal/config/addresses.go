package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PartName returns the 1-based, zero-padded part file name, e.g.
// "qwen3-1.7b-q4_0.part03". Padding is two digits; counts past 99 simply
// widen the number.
func (a Artifact) PartName(index int) string {
	return fmt.Sprintf("%s%02d", a.PartPrefix, index+1)
}

// PartURL returns the remote address for a part by 0-based index.
func (a Artifact) PartURL(index int) string {
	return strings.TrimSuffix(a.BaseURL, "/") + "/" + a.PartName(index)
}

// PartURLs returns all remote part addresses in index order.
func (a Artifact) PartURLs() []string {
	urls := make([]string, a.PartCount)
	for i := range urls {
		urls[i] = a.PartURL(i)
	}
	return urls
}

// PartPath returns the durable local path for a part by 0-based index.
func (a Artifact) PartPath(index int) string {
	return filepath.Join(a.PartsDir(), a.PartName(index))
}

func (a Artifact) PartsDir() string {
	return filepath.Join(a.DataDir, "parts")
}

// FinalPath is where the assembled artifact lands. Its existence is the only
// durable signal that the model is available.
func (a Artifact) FinalPath() string {
	return filepath.Join(a.DataDir, a.FileName)
}

// PartDigest returns the expected hex SHA-256 for a part, or "" when content
// verification is not configured.
func (a Artifact) PartDigest(index int) string {
	if len(a.SHA256) == 0 {
		return ""
	}
	return a.SHA256[index]
}
