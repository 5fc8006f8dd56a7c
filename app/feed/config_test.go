package feed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `channel:
  title: "Merged"
  link: "https://news.example.com"
  description: "All the news"
  language: "en-us"

settings:
  max_items: 25

sources:
  - url: "https://example.com/a.xml"
    title: "A"
  - url: "https://example.com/b.xml"
    title: "B"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfigCacheLoad(t *testing.T) {
	cache := NewConfigCache(writeConfig(t, validConfig))
	require.NoError(t, cache.Run())

	config, err := cache.Get()
	require.NoError(t, err)

	assert.Equal(t, "Merged", config.Channel.Title)
	assert.Equal(t, "en-us", config.Channel.Language)
	assert.Equal(t, 25, config.Settings.MaxItems)
	require.Len(t, config.Sources, 2)
	assert.Equal(t, "https://example.com/a.xml", config.Sources[0].URL)
	assert.Equal(t, "A", config.Sources[0].Title)
	assert.Equal(t, 2, cache.GetSourceCount())
}

func TestConfigCacheDefaults(t *testing.T) {
	cache := NewConfigCache(writeConfig(t, `channel:
  title: "Merged"
  link: "https://news.example.com"
  description: "All the news"
sources: []
`))
	require.NoError(t, cache.Run())

	config, err := cache.Get()
	require.NoError(t, err)
	assert.Equal(t, 100, config.Settings.MaxItems, "max_items defaults when omitted")
}

func TestConfigCacheValidation(t *testing.T) {
	cases := map[string]string{
		"missing channel title": `channel:
  link: "https://news.example.com"
  description: "d"
`,
		"missing source title": `channel:
  title: "t"
  link: "https://news.example.com"
  description: "d"
sources:
  - url: "https://example.com/a.xml"
`,
		"missing source url": `channel:
  title: "t"
  link: "https://news.example.com"
  description: "d"
sources:
  - title: "A"
`,
		"negative max items": `channel:
  title: "t"
  link: "https://news.example.com"
  description: "d"
settings:
  max_items: -1
`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			cache := NewConfigCache(writeConfig(t, content))
			assert.Error(t, cache.Run())
		})
	}
}

func TestConfigCacheReloadKeepsOldOnFailure(t *testing.T) {
	path := writeConfig(t, validConfig)

	cache := NewConfigCache(path)
	require.NoError(t, cache.Run())

	require.NoError(t, os.WriteFile(path, []byte("channel: {}\n"), 0o644))

	_, err := cache.Reload()
	assert.Error(t, err)

	config, err := cache.Get()
	require.NoError(t, err)
	assert.Equal(t, "Merged", config.Channel.Title, "a failed reload must not clobber the cached config")
}

func TestConfigCacheMissingFile(t *testing.T) {
	cache := NewConfigCache(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, cache.Run())

	_, err := cache.Get()
	assert.Error(t, err)
}
