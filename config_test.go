package scrollfriend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ghetzel/go-scrollfriend/scroll"
	"github.com/ghetzel/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	assert := require.New(t)
	config := DefaultConfig()

	assert.Equal(scroll.Vertical, config.Scroll.Direction)
	assert.Equal(`.flz-scroll-anchor`, config.Anchor.AnchorsSelector)
	assert.Equal(`#home`, config.Anchor.HomeTarget)
	assert.Equal(6, config.Demo.Sections)
	assert.Equal(`:19223`, config.Server.Address)
	assert.Equal(`1280,800`, config.Browser.WindowSize)
}

func TestParseConfig(t *testing.T) {
	assert := require.New(t)

	config, err := ParseConfig([]byte(`
[scroll]
direction = "horizontal"
offset = -40.0

[scroll.intersection]
threshold = [0.25, 0.75]
root_margin = "10px"

[anchor]
anchors_selector = "nav a"
no_history = true

[demo]
sections = 3

[server]
address = "127.0.0.1:9000"
watch = [".section", "#footer"]
`))

	assert.NoError(err)
	assert.Equal(scroll.Horizontal, config.Scroll.Direction)
	assert.Equal(-40.0, config.Scroll.Offset)
	assert.Equal([]float64{0.25, 0.75}, config.Scroll.Intersection.Threshold)
	assert.Equal(`10px`, config.Scroll.Intersection.RootMargin)
	assert.Equal(`nav a`, config.Anchor.AnchorsSelector)
	assert.True(config.Anchor.NoHistory)
	assert.Equal(`#home`, config.Anchor.HomeTarget)
	assert.Equal(3, config.Demo.Sections)
	assert.Equal(12, config.Demo.SectionRows)
	assert.Equal(`127.0.0.1:9000`, config.Server.Address)
	assert.Equal([]string{`.section`, `#footer`}, config.Server.Watch)

	_, err = ParseConfig([]byte(`[scroll]
direction = "diagonal"`))
	assert.Error(err)

	_, err = ParseConfig([]byte(`[scroll`))
	assert.Error(err)
}

func TestLoadConfig(t *testing.T) {
	assert := require.New(t)

	config, err := LoadConfig(``)
	assert.NoError(err)
	assert.Equal(`:19223`, config.Server.Address)

	path := filepath.Join(t.TempDir(), `scrollfriend.toml`)
	assert.NoError(os.WriteFile(path, []byte("[browser]\ndebug = true\n"), 0644))

	config, err = LoadConfig(path)
	assert.NoError(err)
	assert.True(config.Browser.Debug)

	_, err = LoadConfig(filepath.Join(t.TempDir(), `missing.toml`))
	assert.Error(err)
}
