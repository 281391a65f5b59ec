package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArtifact() Artifact {
	return Artifact{
		BaseURL:    "https://models.example.com/gguf",
		FileName:   "model.gguf",
		PartPrefix: "model.part",
		PartCount:  7,
		DataDir:    "/data/models",
	}
}

func TestPartNaming(t *testing.T) {
	art := testArtifact()
	assert.Equal(t, "model.part01", art.PartName(0))
	assert.Equal(t, "model.part07", art.PartName(6))

	art.PartCount = 120
	assert.Equal(t, "model.part100", art.PartName(99))
}

func TestPartURLs(t *testing.T) {
	art := testArtifact()
	assert.Equal(t, "https://models.example.com/gguf/model.part01", art.PartURL(0))

	art.BaseURL = "https://models.example.com/gguf/"
	assert.Equal(t, "https://models.example.com/gguf/model.part03", art.PartURL(2))

	urls := art.PartURLs()
	require.Len(t, urls, 7)
	assert.Equal(t, art.PartURL(6), urls[6])
}

func TestLocalPaths(t *testing.T) {
	art := testArtifact()
	assert.Equal(t, filepath.Join("/data/models", "model.gguf"), art.FinalPath())
	assert.Equal(t, filepath.Join("/data/models", "parts", "model.part02"), art.PartPath(1))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Artifact)
		wantErr string
	}{
		{"valid", func(a *Artifact) {}, ""},
		{"s3 scheme ok", func(a *Artifact) { a.BaseURL = "s3://bucket/models" }, ""},
		{"empty base URL", func(a *Artifact) { a.BaseURL = "" }, "invalid artifact URL"},
		{"bad scheme", func(a *Artifact) { a.BaseURL = "ftp://models.example.com" }, "unsupported scheme"},
		{"zero parts", func(a *Artifact) { a.PartCount = 0 }, "part count"},
		{"missing file name", func(a *Artifact) { a.FileName = "" }, "file name"},
		{"digest count mismatch", func(a *Artifact) { a.SHA256 = []string{"ab"} }, "sha256"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			art := testArtifact()
			tt.mutate(&art)
			err := art.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateInvalidURLType(t *testing.T) {
	art := testArtifact()
	art.BaseURL = "ftp://somewhere"
	err := art.Validate()
	var urlErr *InvalidURLError
	require.ErrorAs(t, err, &urlErr)
	assert.Equal(t, "ftp://somewhere", urlErr.URL)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "artifact.yaml")
	content := `base_url: https://mirror.example.com/models
file_name: other.gguf
part_prefix: other.part
part_count: 3
keep_parts: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	art, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://mirror.example.com/models", art.BaseURL)
	assert.Equal(t, 3, art.PartCount)
	assert.True(t, art.KeepParts)
	// Defaults survive for fields the file omits.
	assert.Equal(t, Default().PartSize, art.PartSize)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "artifact.yaml")
	require.NoError(t, os.WriteFile(path, []byte("part_count: 0\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestPartDigest(t *testing.T) {
	art := testArtifact()
	assert.Equal(t, "", art.PartDigest(0))

	art.SHA256 = []string{"aa", "bb", "cc", "dd", "ee", "ff", "00"}
	assert.Equal(t, "cc", art.PartDigest(2))
}
