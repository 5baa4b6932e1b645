// ABOUTME: Settings loading with global + project config merge and environment overrides
// ABOUTME: JSON files under ~/.nlsh and .nlsh; NLSH_* variables win over both

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Defaults applied by WithDefaults.
const (
	DefaultCacheCapacity       = 100
	DefaultShellTimeoutMs      = 30_000
	DefaultSimilarityThreshold = 0.8
	DefaultFuzzyWeight         = 0.8
)

// FuzzySettings configures approximate keyword matching.
type FuzzySettings struct {
	Enabled             bool    `json:"enabled,omitempty"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`
	Weight              float64 `json:"weight,omitempty"`
}

// Settings holds the merged configuration.
type Settings struct {
	Model          string        `json:"model,omitempty"`
	BaseURL        string        `json:"base_url,omitempty"`
	APIKey         string        `json:"api_key,omitempty"`
	Temperature    float64       `json:"temperature,omitempty"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	Fuzzy          FuzzySettings `json:"fuzzy"`
	CacheCapacity  int           `json:"cache_capacity,omitempty"`
	ShellTimeoutMs int           `json:"shell_timeout_ms,omitempty"`
	IntentsFiles   []string      `json:"intents_files,omitempty"` // extra YAML intent libraries
}

// Load reads and merges global and project-local settings, then applies
// environment overrides and defaults. Project settings override global ones.
func Load(projectRoot string) (*Settings, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return LoadWithHome(projectRoot, home)
}

// LoadWithHome is Load with an explicit home directory.
func LoadWithHome(projectRoot, home string) (*Settings, error) {
	global, err := loadFile(filepath.Join(GlobalDirIn(home), "config.json"))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading global config: %w", err)
	}

	project, err := loadFile(ProjectConfigFile(projectRoot))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	s := merge(global, project)
	ResolveEnvVars(s)
	if err := applyEnv(s, os.LookupEnv); err != nil {
		return nil, err
	}
	return s.WithDefaults(), nil
}

// loadFile reads Settings from a JSON file. Relative intents_files entries
// are resolved against the file's directory. Returns zero Settings if the
// file does not exist.
func loadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Settings{}, err
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i, f := range s.IntentsFiles {
		f = expandEnv(f)
		s.IntentsFiles[i] = f
		if !filepath.IsAbs(f) {
			s.IntentsFiles[i] = filepath.Join(dir, f)
		}
	}
	return &s, nil
}

// merge overlays project settings onto global settings. Non-zero project
// values override; intent libraries accumulate, global first.
func merge(global, project *Settings) *Settings {
	if global == nil {
		global = &Settings{}
	}
	if project == nil {
		return global
	}

	result := *global
	result.IntentsFiles = append([]string(nil), global.IntentsFiles...)

	if project.Model != "" {
		result.Model = project.Model
	}
	if project.BaseURL != "" {
		result.BaseURL = project.BaseURL
	}
	if project.APIKey != "" {
		result.APIKey = project.APIKey
	}
	if project.Temperature != 0 {
		result.Temperature = project.Temperature
	}
	if project.MaxTokens != 0 {
		result.MaxTokens = project.MaxTokens
	}
	if project.Fuzzy.Enabled {
		result.Fuzzy.Enabled = true
	}
	if project.Fuzzy.SimilarityThreshold != 0 {
		result.Fuzzy.SimilarityThreshold = project.Fuzzy.SimilarityThreshold
	}
	if project.Fuzzy.Weight != 0 {
		result.Fuzzy.Weight = project.Fuzzy.Weight
	}
	if project.CacheCapacity != 0 {
		result.CacheCapacity = project.CacheCapacity
	}
	if project.ShellTimeoutMs != 0 {
		result.ShellTimeoutMs = project.ShellTimeoutMs
	}
	result.IntentsFiles = append(result.IntentsFiles, project.IntentsFiles...)

	return &result
}

// applyEnv applies NLSH_* overrides. OPENAI_API_KEY fills the key only
// when nothing else set it.
func applyEnv(s *Settings, lookup func(string) (string, bool)) error {
	if v, ok := lookup("NLSH_MODEL"); ok && v != "" {
		s.Model = v
	}
	if v, ok := lookup("NLSH_BASE_URL"); ok && v != "" {
		s.BaseURL = v
	}
	if v, ok := lookup("NLSH_API_KEY"); ok && v != "" {
		s.APIKey = v
	}
	if s.APIKey == "" {
		if v, ok := lookup("OPENAI_API_KEY"); ok {
			s.APIKey = v
		}
	}
	if v, ok := lookup("NLSH_FUZZY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("NLSH_FUZZY: %w", err)
		}
		s.Fuzzy.Enabled = b
	}
	return nil
}

// WithDefaults returns a copy with zero-valued tunables set to defaults.
func (s Settings) WithDefaults() *Settings {
	if s.CacheCapacity <= 0 {
		s.CacheCapacity = DefaultCacheCapacity
	}
	if s.ShellTimeoutMs <= 0 {
		s.ShellTimeoutMs = DefaultShellTimeoutMs
	}
	if s.Fuzzy.SimilarityThreshold <= 0 {
		s.Fuzzy.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if s.Fuzzy.Weight <= 0 {
		s.Fuzzy.Weight = DefaultFuzzyWeight
	}
	return &s
}

// ShellTimeout returns the command timeout as a duration.
func (s *Settings) ShellTimeout() time.Duration {
	return time.Duration(s.ShellTimeoutMs) * time.Millisecond
}

// LLMConfigured reports whether an LLM endpoint can be reached: either an
// API key is set or a custom base URL (e.g. a local server) is configured.
func (s *Settings) LLMConfigured() bool {
	return s.APIKey != "" || s.BaseURL != ""
}
