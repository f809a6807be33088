package models

import (
	"fmt"
	"regexp"
	"strings"
)

// ModelType identifies the provider whose suggestions an overlay holds.
// The known providers are listed below; any other well-formed identifier is
// accepted so overlays written by a provider added later stay readable.
type ModelType string

const (
	ModelOpenAI   ModelType = "openai"
	ModelDeepSeek ModelType = "deepseek"
	ModelGemini   ModelType = "gemini"
	ModelOllama   ModelType = "ollama"
)

var knownModels = []ModelType{ModelOpenAI, ModelDeepSeek, ModelGemini, ModelOllama}

var modelTypePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._:-]{0,63}$`)

// KnownModels returns the built-in provider identifiers.
func KnownModels() []ModelType {
	out := make([]ModelType, len(knownModels))
	copy(out, knownModels)
	return out
}

// ParseModelType normalizes s and checks that it is a usable identifier.
func ParseModelType(s string) (ModelType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if norm == "" {
		return "", fmt.Errorf("model type is empty")
	}
	if !modelTypePattern.MatchString(norm) {
		return "", fmt.Errorf("invalid model type %q", s)
	}
	return ModelType(norm), nil
}

// Known reports whether m is one of the built-in providers.
func (m ModelType) Known() bool {
	for _, k := range knownModels {
		if m == k {
			return true
		}
	}
	return false
}

func (m ModelType) String() string { return string(m) }
