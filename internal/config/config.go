// Package config locates the JDK tools and the classpath used for reflection.
//
// Settings come from a jbind.toml file (found by walking up from the working
// directory), then the JAVA_HOME and CLASSPATH environment variables, then
// command-line flags, each layer overriding the previous one.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "jbind.toml"

// DefaultTimeout bounds a single javap invocation.
const DefaultTimeout = 30 * time.Second

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds reflection settings.
type Config struct {
	// JavaHome is the JDK root; javap is run from JavaHome/bin. When empty,
	// javap is looked up on PATH.
	JavaHome string `toml:"java-home" validate:"omitempty,dir"`
	// Classpath is passed to javap with -cp when non-empty.
	Classpath string `toml:"classpath"`
	// TimeoutText is the raw `timeout` value, e.g. "10s".
	TimeoutText string `toml:"timeout"`

	// Timeout bounds each tool invocation; zero disables the limit.
	Timeout time.Duration `toml:"-" validate:"gte=0"`
	// Dir is the directory containing the loaded file, if any.
	Dir string `toml:"-"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{Timeout: DefaultTimeout}
}

// Load parses jbind.toml from dir.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: parse error in %s: %w", path, err)
	}
	if c.Dir, err = filepath.Abs(dir); err != nil {
		return nil, fmt.Errorf("config: cannot resolve path %s: %w", dir, err)
	}
	if c.TimeoutText != "" {
		if c.Timeout, err = time.ParseDuration(c.TimeoutText); err != nil {
			return nil, fmt.Errorf("config: invalid timeout in %s: %w", path, err)
		}
	}
	if c.JavaHome != "" && !filepath.IsAbs(c.JavaHome) {
		c.JavaHome = filepath.Join(c.Dir, c.JavaHome)
	}
	return c, nil
}

// FindAndLoad walks up from startDir looking for jbind.toml and loads the
// first one found. Without a file it returns Default().
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		_, err := os.Stat(filepath.Join(dir, FileName))
		if err == nil {
			return Load(dir)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: %w", err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// ApplyEnv overlays JAVA_HOME and CLASSPATH as reported by getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("JAVA_HOME"); v != "" {
		c.JavaHome = v
	}
	if v := getenv("CLASSPATH"); v != "" {
		c.Classpath = v
	}
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// BinPath returns the path of a JDK tool.
func (c *Config) BinPath(tool string) string {
	if c.JavaHome == "" {
		return tool
	}
	return filepath.Join(c.JavaHome, "bin", tool)
}
