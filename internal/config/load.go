// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// DefaultFileNames are searched, in order, in the current directory when no
// explicit policy path is given.
var DefaultFileNames = []string{"vetgate.yaml", ".vetgate.yaml"}

// ConfigurationError reports an unusable policy. It is fatal: the run aborts
// before any step executes.
type ConfigurationError struct {
	Path  string
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.Path != "" {
		b.WriteString(" in " + e.Path)
	}
	if e.Field != "" {
		b.WriteString(": " + e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func fieldErr(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Err: fmt.Errorf(format, args...)}
}

// Load builds the run policy. Search order: pathOverride, then the
// DefaultFileNames in the current directory, then defaults only. File values
// win per key and nested tables merge recursively.
func Load(pathOverride string) (*Policy, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("resolving working directory: %w", err)}
	}
	return LoadFrom(wd, pathOverride)
}

// LoadFrom is Load with an explicit working directory.
func LoadFrom(wd, pathOverride string) (*Policy, error) {
	path, err := locate(wd, pathOverride)
	if err != nil {
		return nil, err
	}

	merged, err := toMap(Defaults())
	if err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("rendering defaults: %w", err)}
	}

	baseDir := wd
	if path != "" {
		src, err := readFile(path)
		if err != nil {
			return nil, err
		}
		deepMerge(merged, src)
		baseDir = filepath.Dir(path)
	}

	p, err := decode(merged)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}
	p.source = path

	if err := p.resolvePaths(baseDir); err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}
	if err := p.Validate(); err != nil {
		var ce *ConfigurationError
		if errors.As(err, &ce) && ce.Path == "" {
			ce.Path = path
		}
		return nil, err
	}
	return p, nil
}

func locate(wd, override string) (string, error) {
	if override != "" {
		path := override
		if !filepath.IsAbs(path) {
			path = filepath.Join(wd, path)
		}
		info, err := os.Stat(path)
		if err != nil {
			return "", &ConfigurationError{Path: path, Err: fmt.Errorf("policy file not readable: %w", err)}
		}
		if info.IsDir() {
			return "", &ConfigurationError{Path: path, Err: errors.New("policy path is a directory")}
		}
		return filepath.Clean(path), nil
	}
	for _, name := range DefaultFileNames {
		path := filepath.Join(wd, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", nil
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: policy path is chosen by the caller
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: fmt.Errorf("reading policy: %w", err)}
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &ConfigurationError{Path: path, Err: fmt.Errorf("parsing policy: %w", err)}
	}
	if len(node.Content) == 0 {
		return map[string]any{}, nil
	}
	if node.Content[0].Kind != yaml.MappingNode {
		return nil, &ConfigurationError{Path: path, Err: errors.New("policy must be a mapping at the top level")}
	}
	// Type errors are reported against the user's file, before merging
	// renumbers every line.
	if err := checkNode(node.Content[0], reflect.TypeOf(Policy{}), ""); err != nil {
		var ce *ConfigurationError
		if errors.As(err, &ce) {
			ce.Path = path
			return nil, ce
		}
		return nil, &ConfigurationError{Path: path, Err: err}
	}
	var scratch Policy
	if err := node.Decode(&scratch); err != nil {
		return nil, &ConfigurationError{Path: path, Err: fmt.Errorf("decoding policy: %w", err)}
	}
	var src map[string]any
	if err := node.Decode(&src); err != nil {
		return nil, &ConfigurationError{Path: path, Err: fmt.Errorf("parsing policy: %w", err)}
	}
	if src == nil {
		src = map[string]any{}
	}
	return src, nil
}

func toMap(p *Policy) (map[string]any, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decode(m map[string]any) (*Policy, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("re-encoding merged policy: %w", err)
	}
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding policy: %w", err)
	}
	return &p, nil
}

// deepMerge copies src into dst. Nested maps are merged recursively; any
// other value (lists included) replaces the destination value.
func deepMerge(dst, src map[string]any) {
	for key, value := range src {
		srcMap, ok := value.(map[string]any)
		if !ok {
			dst[key] = value
			continue
		}
		if existing, ok := dst[key]; ok {
			if existingMap, ok := existing.(map[string]any); ok {
				deepMerge(existingMap, srcMap)
				continue
			}
		}
		newMap := map[string]any{}
		deepMerge(newMap, srcMap)
		dst[key] = newMap
	}
}

func (p *Policy) resolvePaths(baseDir string) error {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", baseDir, err)
	}
	for i, root := range p.AllowedRoots {
		p.AllowedRoots[i] = absolutize(absBase, root)
	}
	for name, path := range p.ToolPaths {
		p.ToolPaths[name] = absolutize(absBase, path)
	}
	// Bare command names are looked up at run time; path-like commands are
	// anchored to the policy file like every other path.
	for cat, spec := range p.Tools {
		if strings.ContainsRune(spec.Command, '/') || strings.ContainsRune(spec.Command, filepath.Separator) {
			spec.Command = absolutize(absBase, spec.Command)
			p.Tools[cat] = spec
		}
	}
	return nil
}

func absolutize(base, path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	return filepath.Clean(path)
}

// Validate checks every field against its domain.
func (p *Policy) Validate() error {
	if len(p.Steps) == 0 {
		return fieldErr("steps", "step list must not be empty")
	}
	known := make(map[string]bool)
	for _, s := range DefaultSteps() {
		known[s] = true
	}
	seen := make(map[string]bool, len(p.Steps))
	for _, s := range p.Steps {
		if !known[s] {
			return fieldErr("steps", "unknown step %q", s)
		}
		if seen[s] {
			return fieldErr("steps", "step %q listed more than once", s)
		}
		seen[s] = true
	}

	if !p.Audit.FailThreshold.Valid() {
		return fieldErr("audit.fail_threshold", "invalid severity %q", p.Audit.FailThreshold)
	}
	if !p.Audit.DefaultSeverity.Valid() {
		return fieldErr("audit.default_severity", "invalid severity %q", p.Audit.DefaultSeverity)
	}

	if p.ToolTimeoutSeconds <= 0 {
		return fieldErr("tool_timeout_seconds", "must be > 0, got %d", p.ToolTimeoutSeconds)
	}

	c := p.Completion
	switch c.Provider {
	case "ollama", "openai":
	default:
		return fieldErr("completion.provider", "unsupported provider %q (must be ollama or openai)", c.Provider)
	}
	if c.TimeoutSeconds <= 0 {
		return fieldErr("completion.timeout_seconds", "must be > 0, got %d", c.TimeoutSeconds)
	}
	if c.MaxAttempts < 1 {
		return fieldErr("completion.max_attempts", "must be >= 1, got %d", c.MaxAttempts)
	}
	if c.RetryDelaySeconds < 0 {
		return fieldErr("completion.retry_delay_seconds", "must be >= 0, got %d", c.RetryDelaySeconds)
	}

	if strings.TrimSpace(p.Environment.Dir) == "" {
		return fieldErr("environment.dir", "must not be empty")
	}
	if strings.TrimSpace(p.Environment.Python) == "" {
		return fieldErr("environment.python", "must not be empty")
	}

	for _, cat := range ToolCategories() {
		if strings.TrimSpace(p.Tools[cat].Command) == "" {
			return fieldErr("tools."+cat+".command", "must not be empty")
		}
	}
	for name, path := range p.ToolPaths {
		if !filepath.IsAbs(path) {
			return fieldErr("tool_paths."+name, "path %q is not absolute", path)
		}
	}
	for _, root := range p.AllowedRoots {
		if !filepath.IsAbs(root) {
			return fieldErr("allowed_roots", "path %q is not absolute", root)
		}
	}

	if p.TestsDir == "" || filepath.IsAbs(p.TestsDir) || escapes(p.TestsDir) {
		return fieldErr("tests_dir", "must be a relative path inside the project, got %q", p.TestsDir)
	}

	for field, src := range map[string]string{
		"prompts.test_generation": p.Prompts.TestGeneration,
		"prompts.review":          p.Prompts.Review,
		"commit_message":          p.CommitMessage,
	} {
		if strings.TrimSpace(src) == "" {
			return fieldErr(field, "must not be empty")
		}
		if _, err := template.New(field).Option("missingkey=error").Parse(src); err != nil {
			return fieldErr(field, "invalid template: %w", err)
		}
	}

	switch p.Report.Format {
	case "json", "text":
	default:
		return fieldErr("report.format", "must be json or text, got %q", p.Report.Format)
	}
	if p.Report.MaxFieldLength <= 0 {
		return fieldErr("report.max_field_length", "must be > 0, got %d", p.Report.MaxFieldLength)
	}
	return nil
}

func escapes(rel string) bool {
	clean := filepath.Clean(rel)
	return clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator))
}
