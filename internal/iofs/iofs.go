// Package iofs prepares the on-disk layout of the application: the
// config, cache, checkpoint and log directories, the default config
// file, and the default LLM prompt templates.
package iofs

import (
	"os"
	"path/filepath"

	"github.com/gnames/taxfinder/pkg/config"
	"github.com/gnames/taxfinder/pkg/templates"
)

// EnsureDirs creates the application directories under homeDir.
func EnsureDirs(homeDir string) error {
	dirs := []string{
		config.ConfigDir(homeDir),
		config.CacheDir(homeDir),
		config.CheckpointDir(homeDir),
		config.LogDir(homeDir),
		PromptsDir(homeDir),
	}
	for _, v := range dirs {
		if err := touchDir(v); err != nil {
			return err
		}
	}
	return nil
}

// PromptsDir returns the directory holding LLM prompt templates.
func PromptsDir(homeDir string) string {
	return filepath.Join(config.ConfigDir(homeDir), "prompts")
}

// ExtractorPromptPath returns the default extractor prompt location.
func ExtractorPromptPath(homeDir string) string {
	return filepath.Join(PromptsDir(homeDir), "llm_extractor.txt")
}

// EnricherPromptPath returns the default enricher prompt location.
func EnricherPromptPath(homeDir string) string {
	return filepath.Join(PromptsDir(homeDir), "llm_enricher.txt")
}

func touchDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return CreateDirError(dir, err)
	}

	return nil
}

// EnsureConfigFile writes the default taxfinder.yaml unless one exists.
func EnsureConfigFile(homeDir string) error {
	configPath := config.ConfigFilePath(homeDir)

	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	err := os.WriteFile(configPath, []byte(templates.ConfigYAML), 0644)
	if err != nil {
		return CopyFileError(configPath, err)
	}

	return nil
}

// EnsurePromptFiles writes the default LLM prompts unless they exist.
// Users edit these in place; existing files are never overwritten.
func EnsurePromptFiles(homeDir string) error {
	prompts := map[string]string{
		ExtractorPromptPath(homeDir): templates.ExtractorPrompt,
		EnricherPromptPath(homeDir):  templates.EnricherPrompt,
	}
	for path, content := range prompts {
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return CopyFileError(path, err)
		}
	}
	return nil
}

// ReadPrompt loads a prompt template from path; an empty path falls
// back to the given default template.
func ReadPrompt(path, fallback string) (string, error) {
	if path == "" {
		return fallback, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", ReadFileError(path, err)
	}
	return string(content), nil
}
