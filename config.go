package scrollfriend

import (
	"fmt"
	"os"

	defaults "github.com/ghetzel/go-defaults"
	"github.com/ghetzel/go-scrollfriend/plugins/anchor"
	"github.com/ghetzel/go-scrollfriend/scroll"
	"github.com/ghetzel/go-scrollfriend/term"
	"github.com/ghetzel/go-stockutil/log"
	"github.com/ghetzel/go-stockutil/pathutil"
	"github.com/pelletier/go-toml/v2"
)

type BrowserConfig struct {
	Executable          string `json:"executable" toml:"executable"`
	RemoteAddress       string `json:"remote_address" toml:"remote_address"`
	RemoteDebuggingPort int    `json:"remote_debugging_port" toml:"remote_debugging_port"`
	Debug               bool   `json:"debug" toml:"debug"`
	WindowSize          string `json:"window_size" toml:"window_size" default:"1280,800"`
}

type ServerConfig struct {
	Address string   `json:"address" toml:"address" default:":19223"`
	Watch   []string `json:"watch" toml:"watch"`
}

// Config holds the settings shared by every scrollfriend command, usually read from
// a TOML file.  Command line flags take precedence over it.
type Config struct {
	Scroll  scroll.Options `json:"scroll" toml:"scroll"`
	Anchor  anchor.Options `json:"anchor" toml:"anchor"`
	Demo    term.Options   `json:"demo" toml:"demo"`
	Browser BrowserConfig  `json:"browser" toml:"browser"`
	Server  ServerConfig   `json:"server" toml:"server"`
}

func DefaultConfig() *Config {
	config := new(Config)
	defaults.SetDefaults(config)
	return config
}

// Parse a TOML document into a Config, filling in defaults for anything it omits.
func ParseConfig(data []byte) (*Config, error) {
	config := new(Config)

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("invalid config: %v", err)
	}

	defaults.SetDefaults(config)

	if !config.Scroll.Direction.IsValid() {
		return nil, fmt.Errorf("invalid config: unknown scroll direction %q", config.Scroll.Direction)
	}

	return config, nil
}

// Load the config file at path.  An empty path yields the default config.
func LoadConfig(path string) (*Config, error) {
	if path == `` {
		return DefaultConfig(), nil
	}

	if expanded, err := pathutil.ExpandUser(path); err == nil {
		path = expanded
	} else {
		return nil, err
	}

	if data, err := os.ReadFile(path); err == nil {
		log.Debugf("[config] loaded %v", path)
		return ParseConfig(data)
	} else {
		return nil, err
	}
}
