package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the project configuration file.
const FileName = ".shaiscan.yaml"

// Config represents the configuration for the scanner
type Config struct {
	// Packages whose name-only warnings are suppressed. Exact infected
	// version matches are always reported.
	IgnorePackages []string `yaml:"ignorePackages"`

	// Extra known-bad entries merged into the built-in list
	KnownBadList string `yaml:"knownBadList"`

	// Remote endpoints used by the github and npm commands
	Registries struct {
		Npm       string `yaml:"npm"`
		GitHubAPI string `yaml:"githubAPI"`
		GitHubRaw string `yaml:"githubRaw"`
	} `yaml:"registries"`

	// Output configuration
	Output struct {
		Format string `yaml:"format"` // text, json, sarif
		File   string `yaml:"file"`   // Output file path (stdout if empty)
	} `yaml:"output"`

	// Timeout for remote requests, in seconds
	Timeout int `yaml:"timeout"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	config := &Config{
		IgnorePackages: []string{},
		Timeout:        30,
	}

	config.Registries.Npm = "https://registry.npmjs.org"
	config.Registries.GitHubAPI = "https://api.github.com"
	config.Registries.GitHubRaw = "https://raw.githubusercontent.com"

	config.Output.Format = "text"

	return config
}

// LoadConfig loads the configuration from the specified file path.
// If no path is provided, it looks for .shaiscan.yaml in the current directory.
// An explicitly named file must exist.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	explicit := configPath != ""
	if !explicit {
		configPath = FileName
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("config file %s not found", configPath)
		}
		return config, nil
	}

	if err := readInto(configPath, config); err != nil {
		return nil, err
	}
	return config, nil
}

// FindAndLoadConfig searches for a config file in the project directory and its parents
func FindAndLoadConfig(projectPath string) (*Config, error) {
	config := DefaultConfig()

	currentDir, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, fmt.Errorf("error resolving %s: %w", projectPath, err)
	}
	for {
		configPath := filepath.Join(currentDir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			if err := readInto(configPath, config); err != nil {
				return nil, err
			}
			return config, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return config, nil
}

func readInto(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	if err := config.validate(); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}

	// Relative list paths are resolved against the config file's directory
	if config.KnownBadList != "" && !filepath.IsAbs(config.KnownBadList) {
		config.KnownBadList = filepath.Join(filepath.Dir(path), config.KnownBadList)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Output.Format {
	case "text", "json", "sarif":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", c.Timeout)
	}
	return nil
}

// IsPackageIgnored reports whether warnings for packageName are suppressed.
func (c *Config) IsPackageIgnored(packageName string) bool {
	for _, ignoredPackage := range c.IgnorePackages {
		if ignoredPackage == packageName {
			return true
		}
	}
	return false
}

// RequestTimeout returns the configured timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}
