package feeds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryIsValid(t *testing.T) {
	reg := Default()
	require.NoError(t, reg.Validate())
	assert.NotEmpty(t, reg.Articles)
	assert.NotEmpty(t, reg.Videos)

	kinds := map[Kind]bool{}
	for _, d := range reg.Articles {
		kinds[d.Kind] = true
	}
	assert.True(t, kinds[KindMaine])
	assert.True(t, kinds[KindNational])
	assert.True(t, kinds[KindHealth])
}

func TestDescriptorIsNational(t *testing.T) {
	assert.True(t, Descriptor{Kind: KindNational}.IsNational())
	assert.True(t, Descriptor{Kind: KindHealth, National: true}.IsNational())
	assert.False(t, Descriptor{Kind: KindHealth}.IsNational())
	assert.False(t, Descriptor{Kind: KindMaine}.IsNational())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	data := `articles:
  - url: https://example.com/maine.xml
    source: Example Maine
    kind: maine
  - url: https://example.com/us.xml
    source: Example US
    kind: national
videos:
  - url: https://example.com/videos.xml
    source: Example TV
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	reg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, reg.Articles, 2)
	require.Len(t, reg.Videos, 1)

	assert.Equal(t, "Example Maine", reg.Articles[0].SourceName)
	assert.Equal(t, KindNational, reg.Articles[1].Kind)
	assert.Equal(t, KindBroadcast, reg.Videos[0].Kind)
}

func TestLoadRejectsInvalidKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	data := `articles:
  - url: https://example.com/a.xml
    source: A
    kind: sports
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid kind")
}

func TestLoadOrDefault(t *testing.T) {
	reg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, len(Default().Articles), len(reg.Articles))

	_, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
