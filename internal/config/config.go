package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Artifact describes one downloadable model file split into fixed-size parts
// on the remote store. Part numbers are 1-based in remote and local names;
// everything else in this module addresses parts by 0-based index.
type Artifact struct {
	BaseURL    string   `yaml:"base_url"`
	FileName   string   `yaml:"file_name"`
	PartPrefix string   `yaml:"part_prefix"`
	PartCount  int      `yaml:"part_count"`
	PartSize   int64    `yaml:"part_size,omitempty"`
	TotalSize  int64    `yaml:"total_size,omitempty"`
	SHA256     []string `yaml:"sha256,omitempty"`
	DataDir    string   `yaml:"data_dir,omitempty"`
	KeepParts  bool     `yaml:"keep_parts,omitempty"`
	Profile    string   `yaml:"profile,omitempty"` // AWS profile, s3 sources only
}

// InvalidURLError reports a malformed or unsupported artifact address. It is
// fatal: nothing retries a bad configuration.
type InvalidURLError struct {
	URL    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid artifact URL %q: %s", e.URL, e.Reason)
}

// Default returns the compiled-in artifact the app ships with.
func Default() Artifact {
	return Artifact{
		BaseURL:    "https://models.qwenchat.app/gguf",
		FileName:   "qwen3-1.7b-q4_0.gguf",
		PartPrefix: "qwen3-1.7b-q4_0.part",
		PartCount:  7,
		PartSize:   150 * 1024 * 1024,
		DataDir:    defaultDataDir(),
	}
}

// Load reads a YAML override file on top of the compiled-in defaults. Fields
// absent from the file keep their default values.
func Load(path string) (Artifact, error) {
	art := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("error reading artifact file: %w", err)
	}
	if err := yaml.Unmarshal(data, &art); err != nil {
		return Artifact{}, fmt.Errorf("error parsing artifact file: %w", err)
	}
	if err := art.Validate(); err != nil {
		return Artifact{}, err
	}
	return art, nil
}

func (a Artifact) Validate() error {
	if a.BaseURL == "" {
		return &InvalidURLError{URL: a.BaseURL, Reason: "empty base URL"}
	}
	parsed, err := url.Parse(a.BaseURL)
	if err != nil {
		return &InvalidURLError{URL: a.BaseURL, Reason: err.Error()}
	}
	switch parsed.Scheme {
	case "http", "https", "s3":
	default:
		return &InvalidURLError{URL: a.BaseURL, Reason: fmt.Sprintf("unsupported scheme: %s", parsed.Scheme)}
	}
	if parsed.Host == "" {
		return &InvalidURLError{URL: a.BaseURL, Reason: "missing host"}
	}
	if a.FileName == "" {
		return fmt.Errorf("artifact file name is required")
	}
	if a.PartPrefix == "" {
		return fmt.Errorf("artifact part prefix is required")
	}
	if a.PartCount < 1 {
		return fmt.Errorf("part count must be at least 1, got %d", a.PartCount)
	}
	if len(a.SHA256) > 0 && len(a.SHA256) != a.PartCount {
		return fmt.Errorf("sha256 list has %d entries for %d parts", len(a.SHA256), a.PartCount)
	}
	return nil
}

// IsS3 reports whether parts are fetched through the S3 API rather than
// plain HTTP GET.
func (a Artifact) IsS3() bool {
	return strings.HasPrefix(a.BaseURL, "s3://")
}

func defaultDataDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".", "modelget")
	}
	return filepath.Join(dir, "modelget")
}
