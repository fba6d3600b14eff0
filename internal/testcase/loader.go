package testcase

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mcptest/internal/cleanup"
	"mcptest/internal/validate"
	"mcptest/pkg/logging"
)

// Suite is one YAML suite file: a named group of test cases plus globals
// available to placeholder injection across the whole run.
type Suite struct {
	Group   string                 `yaml:"group"`
	Globals map[string]interface{} `yaml:"globals,omitempty"`
	Cases   []CaseSpec             `yaml:"cases"`
}

// CaseSpec is the YAML form of a test case.
type CaseSpec struct {
	Name         string                 `yaml:"name"`
	Tool         string                 `yaml:"tool"`
	Params       map[string]interface{} `yaml:"params,omitempty"`
	Dependencies []string               `yaml:"dependencies,omitempty"`
	Timeout      time.Duration          `yaml:"timeout,omitempty"`
	Validators   []ValidatorSpec        `yaml:"validators,omitempty"`
	Cleanups     []CleanupSpec          `yaml:"cleanups,omitempty"`
}

// ValidatorSpec is the YAML form of a validator. Type selects the
// implementation: "contains_text" or "state".
type ValidatorSpec struct {
	Type         string                 `yaml:"type"`
	Text         string                 `yaml:"text,omitempty"`
	Operation    string                 `yaml:"operation,omitempty"`
	Params       map[string]interface{} `yaml:"params,omitempty"`
	ExpectedKeys []string               `yaml:"expected_keys,omitempty"`
	ExpectAbsent bool                   `yaml:"expect_absent,omitempty"`
}

// CleanupSpec is the YAML form of a state cleanup.
type CleanupSpec struct {
	Operation     string                 `yaml:"operation"`
	Params        map[string]interface{} `yaml:"params,omitempty"`
	ResponseField string                 `yaml:"response_field,omitempty"`
	TargetParam   string                 `yaml:"target_param,omitempty"`
	ParamIsList   bool                   `yaml:"param_is_list,omitempty"`
}

// Loader reads suite files and turns them into registered test cases.
type Loader struct {
	debug bool
}

// NewLoader creates a suite loader.
func NewLoader(debug bool) *Loader {
	return &Loader{debug: debug}
}

// Load reads suites from path, which may be a single YAML file or a
// directory walked recursively for .yaml/.yml files. Returned suites keep
// file-walk order, which is lexical and therefore stable.
func (l *Loader) Load(path string) ([]Suite, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("suite path does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat suite path: %w", err)
	}

	var suites []Suite
	if info.IsDir() {
		suites, err = l.loadFromDirectory(path)
	} else {
		var suite Suite
		suite, err = l.loadFromFile(path)
		suites = append(suites, suite)
	}
	if err != nil {
		return nil, err
	}

	if l.debug {
		logging.Debug("Loader", "loaded %d suites from %s", len(suites), path)
		for _, s := range suites {
			logging.Debug("Loader", "  suite %s: %d cases", s.Group, len(s.Cases))
		}
	}
	return suites, nil
}

func (l *Loader) loadFromDirectory(dirPath string) ([]Suite, error) {
	var suites []Suite

	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAMLFile(path) {
			return nil
		}
		suite, err := l.loadFromFile(path)
		if err != nil {
			return err
		}
		suites = append(suites, suite)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dirPath, err)
	}
	return suites, nil
}

func (l *Loader) loadFromFile(filePath string) (Suite, error) {
	var suite Suite

	content, err := os.ReadFile(filePath)
	if err != nil {
		return suite, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}
	if err := yaml.Unmarshal(content, &suite); err != nil {
		return suite, fmt.Errorf("failed to parse YAML in %s: %w", filePath, err)
	}
	if err := validateSuite(suite); err != nil {
		return suite, fmt.Errorf("invalid suite in %s: %w", filePath, err)
	}
	return suite, nil
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func validateSuite(suite Suite) error {
	if suite.Group == "" {
		return fmt.Errorf("suite group is required")
	}
	if len(suite.Cases) == 0 {
		return fmt.Errorf("suite must have at least one case")
	}
	for i, c := range suite.Cases {
		if err := validateCase(c); err != nil {
			return fmt.Errorf("case %d: %w", i+1, err)
		}
	}
	return nil
}

func validateCase(c CaseSpec) error {
	if c.Name == "" {
		return fmt.Errorf("case name is required")
	}
	if c.Tool == "" {
		return fmt.Errorf("case tool is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("case timeout cannot be negative")
	}
	for i, v := range c.Validators {
		if err := validateValidatorSpec(v); err != nil {
			return fmt.Errorf("validator %d: %w", i+1, err)
		}
	}
	for i, cl := range c.Cleanups {
		if cl.Operation == "" {
			return fmt.Errorf("cleanup %d: operation is required", i+1)
		}
		if cl.ResponseField != "" && cl.TargetParam == "" {
			return fmt.Errorf("cleanup %d: response_field requires target_param", i+1)
		}
	}
	return nil
}

func validateValidatorSpec(v ValidatorSpec) error {
	switch v.Type {
	case "contains_text":
		if v.Text == "" {
			return fmt.Errorf("contains_text validator requires text")
		}
	case "state":
		if v.Operation == "" {
			return fmt.Errorf("state validator requires operation")
		}
		if !v.ExpectAbsent && len(v.ExpectedKeys) == 0 {
			return fmt.Errorf("state validator requires expected_keys or expect_absent")
		}
	case "":
		return fmt.Errorf("validator type is required")
	default:
		return fmt.Errorf("unknown validator type %q", v.Type)
	}
	return nil
}

// Build converts suites into test cases and registers them. Every case takes
// its group from its suite; globals from all suites are merged, later files
// overriding earlier ones on key conflict.
func Build(suites []Suite, registry *Registry) (map[string]interface{}, error) {
	globals := make(map[string]interface{})
	for _, suite := range suites {
		for k, v := range suite.Globals {
			globals[k] = v
		}
		for _, spec := range suite.Cases {
			tc := buildCase(suite.Group, spec)
			if err := registry.Register(tc); err != nil {
				return nil, err
			}
		}
	}
	return globals, nil
}

func buildCase(group string, spec CaseSpec) *TestCase {
	tc := &TestCase{
		Name:         spec.Name,
		Tool:         spec.Tool,
		Params:       spec.Params,
		Group:        group,
		Dependencies: spec.Dependencies,
		Timeout:      spec.Timeout,
	}
	for _, v := range spec.Validators {
		tc.Validators = append(tc.Validators, buildValidator(v))
	}
	for _, c := range spec.Cleanups {
		tc.Cleanups = append(tc.Cleanups, buildCleanup(c))
	}
	return tc
}

func buildValidator(spec ValidatorSpec) validate.Validator {
	switch spec.Type {
	case "contains_text":
		return validate.NewContainsText(spec.Text)
	case "state":
		if spec.ExpectAbsent {
			return validate.NewAbsenceValidator(spec.Operation, spec.Params)
		}
		return validate.NewStateValidator(spec.Operation, spec.Params, spec.ExpectedKeys)
	}
	// unreachable after validateValidatorSpec
	return nil
}

func buildCleanup(spec CleanupSpec) cleanup.Cleanup {
	c := cleanup.NewStateCleanup(spec.Operation, spec.Params)
	if spec.ResponseField != "" {
		c = c.WithResponseField(spec.ResponseField, spec.TargetParam, spec.ParamIsList)
	}
	return c
}
