// Package config handles iescript.toml workspace configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the workspace configuration file.
const FileName = "iescript.toml"

// Config represents an iescript.toml file.
type Config struct {
	Game      Game      `toml:"game"`
	Paths     Paths     `toml:"paths"`
	Resources Resources `toml:"resources"`
	Text      Text      `toml:"text"`

	// Dir is the directory containing the iescript.toml file (set at load time).
	Dir string `toml:"-"`
}

// Game selects the engine variant.
type Game struct {
	Variant string `toml:"variant"`
	// Profiles is a YAML file with custom game profiles.
	Profiles string `toml:"profiles"`
}

// Paths locates the game data. Relative paths are relative to Dir.
type Paths struct {
	IDS         string `toml:"ids"`
	Override    string `toml:"override"`
	Game        string `toml:"game"`
	Strings     string `toml:"strings"`
	Titles      string `toml:"titles"`
	ScriptNames string `toml:"script_names"`
	Cache       string `toml:"cache"`
}

// Resources configures the resource index.
type Resources struct {
	Globs []string `toml:"globs"`
}

// Text configures script file reading and writing.
type Text struct {
	Encoding string `toml:"encoding"`
	// Key is the hex-encoded key of obfuscated scripts.
	Key string `toml:"key"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Game: Game{Variant: "bg2"},
		Paths: Paths{
			IDS:      ".",
			Override: "override",
			Cache:    filepath.Join(".iescript", "index.db"),
		},
		Text: Text{Encoding: "auto"},
	}
}

// Load parses the iescript.toml file in dir. Unset fields keep their defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	return LoadFile(path)
}

// LoadFile parses a configuration file at an explicit path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find an iescript.toml file. It
// returns the defaults, rooted at startDir, when there is none.
func FindAndLoad(startDir string) (*Config, error) {
	start, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	dir := start
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			c := Default()
			c.Dir = start
			return c, nil
		}
		dir = parent
	}
}

// Resolve returns p relative to the configuration directory. Empty paths stay empty.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}
