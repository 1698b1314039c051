package security

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Rule is a named whitelist check: a character-class pattern plus a hard
// length bound. Rules are defined once per input class and never mutated.
type Rule struct {
	Class     string
	Pattern   *regexp.Regexp
	MaxLength int
}

// Length bounds per input class.
const (
	MaxModelNameLength   = 200
	MaxPackageNameLength = 100
	MaxFilenameLength    = 128
	MaxPromptLength      = 5000
)

var (
	modelNameRule = Rule{
		Class:     "model name",
		Pattern:   regexp.MustCompile(`^[A-Za-z0-9:._-]+$`),
		MaxLength: MaxModelNameLength,
	}
	packageNameRule = Rule{
		Class:     "package name",
		Pattern:   regexp.MustCompile(`^[A-Za-z0-9_-]+$`),
		MaxLength: MaxPackageNameLength,
	}
	promptRule = Rule{
		Class:     "prompt",
		Pattern:   regexp.MustCompile(`^[A-Za-z0-9 .,!?;:'"()-]+$`),
		MaxLength: MaxPromptLength,
	}
)

// allowedProviders is the closed provider set. Extending it means adding a
// compiled adapter, not accepting a new name at runtime.
var allowedProviders = map[string]struct{}{
	"ollama": {},
	"gemini": {},
	"openai": {},
	"local":  {},
}

// allowedFilenames are accepted verbatim regardless of extension.
var allowedFilenames = map[string]struct{}{
	"config.json":  {},
	"model.bin":    {},
	"history.json": {},
	"state.yaml":   {},
}

// allowedExtensions are accepted for any otherwise-clean filename.
var allowedExtensions = map[string]struct{}{
	".bin":  {},
	".json": {},
	".txt":  {},
	".yaml": {},
}

// CheckRule verifies input against rule. It performs no I/O and never
// panics; malformed input yields a *ValidationError.
func CheckRule(input string, rule Rule) error {
	if input == "" {
		return &ValidationError{Class: rule.Class, Reason: "empty"}
	}
	if strings.ContainsRune(input, 0) {
		return &ValidationError{Class: rule.Class, Reason: "contains NUL byte"}
	}
	if len(input) > rule.MaxLength {
		return &ValidationError{
			Class:  rule.Class,
			Reason: fmt.Sprintf("length %d exceeds maximum %d", len(input), rule.MaxLength),
		}
	}
	if !rule.Pattern.MatchString(input) {
		return &ValidationError{Class: rule.Class, Reason: "contains disallowed characters"}
	}
	return nil
}

// CheckModelName validates a model name or full model identifier string.
func CheckModelName(name string) error {
	return CheckRule(name, modelNameRule)
}

// CheckPackageName validates a bare program/package name.
func CheckPackageName(name string) error {
	return CheckRule(name, packageNameRule)
}

// CheckPrompt validates user prompt text. Whitespace-only prompts are
// rejected even though every character is individually allowed.
func CheckPrompt(prompt string) error {
	if err := CheckRule(prompt, promptRule); err != nil {
		return err
	}
	if strings.TrimSpace(prompt) == "" {
		return &ValidationError{Class: promptRule.Class, Reason: "blank"}
	}
	return nil
}

// CheckProvider verifies membership in the closed provider set.
func CheckProvider(provider string) error {
	if provider == "" {
		return &ValidationError{Class: "provider", Reason: "empty"}
	}
	if _, ok := allowedProviders[strings.ToLower(provider)]; !ok {
		return &ValidationError{
			Class:  "provider",
			Reason: fmt.Sprintf("%q is not a supported backend", provider),
		}
	}
	return nil
}

// Providers returns the allowed provider names, usable by callers that need
// to enumerate the set (sorted order is not guaranteed).
func Providers() []string {
	out := make([]string, 0, len(allowedProviders))
	for p := range allowedProviders {
		out = append(out, p)
	}
	return out
}

// CheckFilename validates a bare filename: it must be its own base name,
// carry no separators or parent segments, and either match the fixed
// filename allow-list exactly or use an allow-listed extension.
func CheckFilename(name string) error {
	if name == "" {
		return &ValidationError{Class: "filename", Reason: "empty"}
	}
	if strings.ContainsRune(name, 0) {
		return &ValidationError{Class: "filename", Reason: "contains NUL byte"}
	}
	if len(name) > MaxFilenameLength {
		return &ValidationError{
			Class:  "filename",
			Reason: fmt.Sprintf("length %d exceeds maximum %d", len(name), MaxFilenameLength),
		}
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return &ValidationError{Class: "filename", Reason: "not a bare filename"}
	}
	if strings.Contains(name, "..") {
		return &ValidationError{Class: "filename", Reason: "contains parent segment"}
	}
	if name == "." {
		return &ValidationError{Class: "filename", Reason: "not a bare filename"}
	}
	if _, ok := allowedFilenames[name]; ok {
		return nil
	}
	if _, ok := allowedExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		return nil
	}
	return &ValidationError{Class: "filename", Reason: "neither allow-listed name nor allow-listed extension"}
}
