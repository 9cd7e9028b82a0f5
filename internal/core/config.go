package core

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/julien-sobczak/the-studydeck/pkg/text"
	"github.com/pelletier/go-toml/v2"
)

// How many parent directories to traverse before considering a directory as not a study deck
const maxDepth = 10

// Default .study/config content
const DefaultConfig = `
[core]
extensions=["md", "markdown"]

[content]
lessons="lessons"
assets="subject-assets"
figures="figures.yaml"

[server]
addr="localhost:4173"

[extract]
command="python3"
script="scripts/extract_pdf.py"
timeout="2m"
output="subject-assets/extracted"
`

// Default .studyignore content
const DefaultIgnore = `
build/
README.md
`

var (
	// Lazy-load configuration and ensure a single read
	configOnce      sync.Once
	configSingleton *Config
)

// Note: Fields must be public for toml package to unmarshall
type ConfigFile struct {
	Core    ConfigCore
	Content ConfigContent
	Server  ConfigServer
	Extract ConfigExtract
}
type ConfigCore struct {
	Extensions []string
}
type ConfigContent struct {
	// Directories and files relative to the root directory
	Lessons string
	Assets  string
	Figures string
}
type ConfigServer struct {
	Addr string
}
type ConfigExtract struct {
	Command string
	Script  string
	Timeout string
	Output  string
}

// SupportExtension checks if the given file extension must be considered.
func (f *ConfigFile) SupportExtension(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".") // ".md" => "md"
	for _, extension := range f.Core.Extensions {
		if strings.EqualFold(strings.TrimPrefix(extension, "."), ext) { // case-insensitive
			return true
		}
	}
	return false
}

// ExtractTimeout returns the maximum duration of a single extraction.
func (f *ConfigFile) ExtractTimeout() time.Duration {
	if f.Extract.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(f.Extract.Timeout)
	if err != nil {
		return 0
	}
	return d
}

type IgnoreFile struct {
	Entries GlobPaths
}

// MustExcludeFile tests if a relative path must be skipped when walking the content.
func (i *IgnoreFile) MustExcludeFile(path string, dir bool) bool {
	path = strings.Trim(filepath.ToSlash(path), "/")
	if dir {
		path += "/"
	}
	return i.Entries.Match(path)
}

type GlobPath string

func (g GlobPath) Negate() bool {
	return strings.HasPrefix(string(g), "!")
}

func (g GlobPath) Expr() string {
	return strings.TrimPrefix(string(g), "!")
}

// Match tests a given path. NB: Directories must have a trailing /.
func (g GlobPath) Match(path string) bool {
	// The Go standard library doesn't support the same Git syntax (ex: ** is missing).
	// Compare https://git-scm.com/docs/gitignore with https://go.dev/src/path/filepath/match.go

	if runtime.GOOS == "windows" {
		path = filepath.ToSlash(path)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	expr := g.Expr()
	leadingSlash := strings.HasPrefix(expr, "/")
	trailingSlash := strings.HasSuffix(expr, "/")
	// Ex: "build/" => `/build/.*?` to match "build/index.html" but not "mybuild/"
	if !leadingSlash {
		expr = "/" + expr
	}
	if trailingSlash {
		expr = expr + "**/"
	}

	parts := strings.Split(expr, "**/")
	var partsPatterns []string
	for _, part := range parts {
		subparts := strings.Split(part, "*")
		for i, subpart := range subparts {
			subparts[i] = regexp.QuoteMeta(subpart)
		}
		partsPatterns = append(partsPatterns, strings.Join(subparts, "[^/]*?")) // * => [^/]*
	}
	pattern := strings.Join(partsPatterns, ".*?") // ** => .*?

	if leadingSlash {
		pattern = "^" + pattern
	}

	rePattern, err := regexp.Compile(pattern)
	if err != nil {
		CurrentLogger().Warnf("Invalid glob pattern %q: %v", g, err)
		return false
	}

	return rePattern.MatchString(path)
}

type GlobPaths []GlobPath

// Match tests if a file path satisfies the conditions.
func (g GlobPaths) Match(path string) bool {
	foundMatch := false
	for _, entry := range g {
		if entry.Match(path) {
			if entry.Negate() {
				// An exclusion matched, the file must no longer be included.
				return false
			}
			foundMatch = true
		}
	}
	return foundMatch
}

/* Main config */

type Config struct {
	// Absolute top directory containing the .study sub-directory
	RootDirectory string

	// .study/config content
	ConfigFile ConfigFile

	// .studyignore content
	IgnoreFile IgnoreFile
}

func CurrentConfig() *Config {
	configOnce.Do(func() {
		var err error
		configSingleton, err = ReadConfigFromDirectory(currentHome())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to read current configuration: %v\n", err)
			os.Exit(1)
		}
		if configSingleton == nil {
			fmt.Fprintln(os.Stderr, "fatal: not a StudyDeck directory (or any of the parent directories): .study")
			os.Exit(1)
		}
	})
	return configSingleton
}

// LessonsDir returns the absolute path of the directory containing the lessons.
func (c *Config) LessonsDir() string {
	return c.resolve(c.ConfigFile.Content.Lessons)
}

// AssetsDir returns the absolute path of the directory containing the subject assets.
func (c *Config) AssetsDir() string {
	return c.resolve(c.ConfigFile.Content.Assets)
}

// FiguresFile returns the absolute path of the figure catalog.
func (c *Config) FiguresFile() string {
	return c.resolve(c.ConfigFile.Content.Figures)
}

// ExtractScript returns the absolute path of the extraction script.
func (c *Config) ExtractScript() string {
	return c.resolve(c.ConfigFile.Extract.Script)
}

// ExtractOutputDir returns the absolute path where extracted images are written.
func (c *Config) ExtractOutputDir() string {
	return c.resolve(c.ConfigFile.Extract.Output)
}

// Check validates the configuration.
func (c *Config) Check() error {
	if len(c.ConfigFile.Core.Extensions) == 0 {
		return errors.New("invalid configuration: no lesson extensions in core.extensions")
	}
	if c.ConfigFile.Extract.Timeout != "" {
		if _, err := time.ParseDuration(c.ConfigFile.Extract.Timeout); err != nil {
			return fmt.Errorf("invalid configuration: extract.timeout %q: %w", c.ConfigFile.Extract.Timeout, err)
		}
	}
	if stat, err := os.Stat(c.LessonsDir()); err != nil || !stat.IsDir() {
		return fmt.Errorf("invalid configuration: missing lessons directory %q", c.ConfigFile.Content.Lessons)
	}
	return nil
}

// ExcludeLesson tests if a path relative to the lessons directory is listed in .studyignore.
func (c *Config) ExcludeLesson(relativePath string, dir bool) bool {
	path, err := filepath.Rel(c.RootDirectory, filepath.Join(c.LessonsDir(), relativePath))
	if err != nil {
		return false
	}
	return c.IgnoreFile.MustExcludeFile(path, dir)
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.RootDirectory, path)
}

func currentHome() string {
	// Supports overriding the root directory mainly for testing purposes. Ex:
	//
	//   $ env STUDY_HOME=./examples go run ./cmd/study serve
	if path, ok := os.LookupEnv("STUDY_HOME"); ok {
		abspath, err := filepath.Abs(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to evaluate $STUDY_HOME")
			os.Exit(1)
		}
		if _, err := os.Stat(abspath); os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "Path in $STUDY_HOME undefined")
			os.Exit(1)
		}
		return abspath
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to determine current directory: %v\n", err)
		os.Exit(1)
	}
	return cwd
}

// ReadConfigFromDirectory loads the configuration by searching for a .study directory in the given directory
// or any parent directories. A nil configuration is returned when no directory is found.
func ReadConfigFromDirectory(path string) (*Config, error) {
	rootPath := path
	i := 0 // Safeguard to not go up too far
	for {
		i++
		if i > maxDepth {
			return nil, nil
		}
		studyPath := filepath.Join(rootPath, ".study")
		_, err := os.Stat(studyPath)
		if os.IsNotExist(err) {
			parent := filepath.Dir(rootPath)
			if parent == rootPath {
				// Root directory detected
				return nil, nil
			}
			rootPath = parent
		} else if err != nil {
			return nil, fmt.Errorf("error while searching for configuration directory: %w", err)
		} else {
			break
		}
	}

	// Check for .study/config
	configPath := filepath.Join(rootPath, ".study", "config")
	_, err := os.Stat(configPath)
	var configFile *ConfigFile
	if os.IsNotExist(err) {
		configFile, err = parseConfigFile(DefaultConfig)
		if err != nil {
			return nil, fmt.Errorf("default configuration is broken: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to check for .study/config file: %w", err)
	} else {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read .study/config file: %w", err)
		}
		configFile, err = parseConfigFile(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse .study/config file: %w", err)
		}
	}

	// Check for .studyignore
	ignorePath := filepath.Join(rootPath, ".studyignore")
	_, err = os.Stat(ignorePath)
	var ignoreFile *IgnoreFile
	if os.IsNotExist(err) {
		ignoreFile = parseIgnoreFile(DefaultIgnore)
	} else if err != nil {
		return nil, fmt.Errorf("failed to check for .studyignore file: %w", err)
	} else {
		content, err := os.ReadFile(ignorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read .studyignore file: %w", err)
		}
		ignoreFile = parseIgnoreFile(string(content))
	}

	return &Config{
		RootDirectory: rootPath,
		ConfigFile:    *configFile,
		IgnoreFile:    *ignoreFile,
	}, nil
}

// parseConfigFile decodes the TOML content. Missing settings default to DefaultConfig values.
func parseConfigFile(content string) (*ConfigFile, error) {
	result, err := decodeConfigFile(content)
	if err != nil {
		return nil, err
	}
	if content == DefaultConfig {
		return result, nil
	}
	defaults, err := decodeConfigFile(DefaultConfig)
	if err != nil {
		return nil, err
	}
	result.applyDefaults(defaults)
	return result, nil
}

func decodeConfigFile(content string) (*ConfigFile, error) {
	d := toml.NewDecoder(strings.NewReader(content))
	d.DisallowUnknownFields()
	var result ConfigFile
	err := d.Decode(&result)
	return &result, err
}

func (f *ConfigFile) applyDefaults(defaults *ConfigFile) {
	if len(f.Core.Extensions) == 0 {
		f.Core.Extensions = defaults.Core.Extensions
	}
	defaultString(&f.Content.Lessons, defaults.Content.Lessons)
	defaultString(&f.Content.Assets, defaults.Content.Assets)
	defaultString(&f.Content.Figures, defaults.Content.Figures)
	defaultString(&f.Server.Addr, defaults.Server.Addr)
	defaultString(&f.Extract.Command, defaults.Extract.Command)
	defaultString(&f.Extract.Script, defaults.Extract.Script)
	defaultString(&f.Extract.Timeout, defaults.Extract.Timeout)
	defaultString(&f.Extract.Output, defaults.Extract.Output)
}

func defaultString(value *string, defaultValue string) {
	if *value == "" {
		*value = defaultValue
	}
}

func parseIgnoreFile(content string) *IgnoreFile {
	var result IgnoreFile
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if text.IsBlank(line) {
			// ignore blank line
			continue
		}
		if strings.HasPrefix(line, "#") {
			// ignore comment
			continue
		}
		result.Entries = append(result.Entries, GlobPath(line))
	}
	return &result
}

// InitConfigFromDirectory creates the .study configuration directory with default files including .studyignore.
func InitConfigFromDirectory(path string) (*Config, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	currentConfig, err := ReadConfigFromDirectory(path)
	if err != nil {
		return nil, err
	}
	if currentConfig != nil {
		// Do not override current configuration
		return nil, fmt.Errorf("current configuration detected in %s", currentConfig.RootDirectory)
	}

	studyPath := filepath.Join(path, ".study")
	if err := os.Mkdir(studyPath, 0755); err != nil {
		return nil, err
	}

	configPath := filepath.Join(studyPath, "config")
	if err := os.WriteFile(configPath, []byte(DefaultConfig), 0644); err != nil {
		return nil, err
	}

	defaults, err := parseConfigFile(DefaultConfig)
	if err != nil {
		return nil, err
	}
	for _, dir := range []string{defaults.Content.Lessons, defaults.Content.Assets} {
		if err := os.MkdirAll(filepath.Join(path, dir), 0755); err != nil {
			return nil, err
		}
	}

	ignorePath := filepath.Join(path, ".studyignore")
	_, err = os.Stat(ignorePath)
	if os.IsNotExist(err) { // Do not override existing file!
		if err := os.WriteFile(ignorePath, []byte(DefaultIgnore), 0644); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	// Reread configuration
	return ReadConfigFromDirectory(path)
}
