package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Engine resolves `{{dependency.path.to.value}}` placeholders in test case
// params against the recorded responses of dependency test cases. The first
// path segment names the dependency; the remainder walks its decoded response
// with dot keys and `[n]` list indexing. A string response segment that holds
// JSON is decoded transparently, mirroring how tool servers nest JSON text
// inside MCP content.
type Engine struct {
	// Pattern to match placeholders like {{ create_job.Name }}
	placeholderPattern *regexp.Regexp
	tokenPattern       *regexp.Regexp
}

// New creates a new injection engine.
func New() *Engine {
	return &Engine{
		placeholderPattern: regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`),
		tokenPattern:       regexp.MustCompile(`\w+|\[\d+\]`),
	}
}

// Replace resolves all placeholders in value using responses, which maps
// dependency test names to their decoded responses.
func (e *Engine) Replace(value interface{}, responses map[string]interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return e.replaceString(v, responses)
	case map[string]interface{}:
		return e.replaceMap(v, responses)
	case []interface{}:
		return e.replaceSlice(v, responses)
	default:
		// Non-templatable types are returned as-is
		return value, nil
	}
}

// replaceString resolves placeholders in a single string. A string that is
// exactly one placeholder resolves to the typed value; otherwise placeholders
// are stringified in place.
func (e *Engine) replaceString(s string, responses map[string]interface{}) (interface{}, error) {
	matches := e.placeholderPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	if whole := e.placeholderPattern.FindStringSubmatch(s); whole != nil && whole[0] == strings.TrimSpace(s) {
		return e.resolvePath(whole[1], responses)
	}

	result := s
	for _, match := range matches {
		resolved, err := e.resolvePath(match[1], responses)
		if err != nil {
			return nil, err
		}
		result = strings.Replace(result, match[0], stringify(resolved), 1)
	}
	return result, nil
}

func (e *Engine) replaceMap(m map[string]interface{}, responses map[string]interface{}) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	for key, value := range m {
		replaced, err := e.Replace(value, responses)
		if err != nil {
			return nil, fmt.Errorf("error in key '%s': %w", key, err)
		}
		result[key] = replaced
	}
	return result, nil
}

func (e *Engine) replaceSlice(s []interface{}, responses map[string]interface{}) ([]interface{}, error) {
	result := make([]interface{}, len(s))
	for i, value := range s {
		replaced, err := e.Replace(value, responses)
		if err != nil {
			return nil, fmt.Errorf("error at index %d: %w", i, err)
		}
		result[i] = replaced
	}
	return result, nil
}

// resolvePath walks a dotted path, where the first token names a dependency
// and the rest select into its response.
func (e *Engine) resolvePath(path string, responses map[string]interface{}) (interface{}, error) {
	tokens := e.tokenPattern.FindAllString(path, -1)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty placeholder path")
	}

	depName := tokens[0]
	value, exists := responses[depName]
	if !exists {
		return nil, fmt.Errorf("missing response for dependency: %s", depName)
	}

	return ExtractPath(value, tokens[1:])
}

// ExtractPath walks a decoded value along the given tokens: plain tokens are
// map keys, `[n]` tokens index lists. A string encountered mid-path must hold
// JSON and is decoded before the walk continues.
func ExtractPath(value interface{}, tokens []string) (interface{}, error) {
	for _, token := range tokens {
		if strings.HasPrefix(token, "[") {
			index := 0
			if _, err := fmt.Sscanf(token, "[%d]", &index); err != nil {
				return nil, fmt.Errorf("invalid index token %q", token)
			}
			list, ok := value.([]interface{})
			if !ok {
				return nil, fmt.Errorf("expected list at %s, got %T", token, value)
			}
			if index < 0 || index >= len(list) {
				return nil, fmt.Errorf("index %s out of range (len %d)", token, len(list))
			}
			value = list[index]
			continue
		}

		if s, ok := value.(string); ok {
			var decoded interface{}
			if err := json.Unmarshal([]byte(s), &decoded); err != nil {
				return nil, fmt.Errorf("expected JSON string at '%s' but failed to parse", token)
			}
			value = decoded
		}

		m, ok := value.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("cannot find key '%s' in %T", token, value)
		}
		next, exists := m[token]
		if !exists {
			return nil, fmt.Errorf("cannot find key '%s'", token)
		}
		value = next
	}
	return value, nil
}

// ExtractVariables returns the dependency names referenced by placeholders in
// value, for pre-run validation of injectable params.
func (e *Engine) ExtractVariables(value interface{}) []string {
	deps := make(map[string]bool)
	e.extractRecursive(value, deps)

	result := make([]string, 0, len(deps))
	for name := range deps {
		result = append(result, name)
	}
	return result
}

func (e *Engine) extractRecursive(value interface{}, deps map[string]bool) {
	switch v := value.(type) {
	case string:
		for _, match := range e.placeholderPattern.FindAllStringSubmatch(v, -1) {
			tokens := e.tokenPattern.FindAllString(match[1], -1)
			if len(tokens) > 0 {
				deps[tokens[0]] = true
			}
		}
	case map[string]interface{}:
		for _, val := range v {
			e.extractRecursive(val, deps)
		}
	case []interface{}:
		for _, val := range v {
			e.extractRecursive(val, deps)
		}
	}
}

func stringify(v interface{}) string {
	switch r := v.(type) {
	case string:
		return r
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", r)
	}
}
