package validate

import (
	"context"
	"fmt"
	"strings"
)

// ContainsText passes when the stringified tool response contains the
// configured substring. Matching is case-sensitive and exact.
type ContainsText struct {
	Expected string
}

// NewContainsText returns a text-containment validator.
func NewContainsText(expected string) *ContainsText {
	return &ContainsText{Expected: expected}
}

// Description implements Validator.
func (v *ContainsText) Description() string {
	return fmt.Sprintf("response contains %q", v.Expected)
}

// Evaluate implements Validator.
func (v *ContainsText) Evaluate(_ context.Context, target Target) Outcome {
	outcome := Outcome{Description: v.Description()}

	if target.Response == nil {
		outcome.Message = "no response recorded"
		return outcome
	}

	text := target.Response.Text()
	if !strings.Contains(text, v.Expected) {
		outcome.Message = fmt.Sprintf("expected string %q not found in response", v.Expected)
		return outcome
	}

	outcome.Passed = true
	outcome.Message = fmt.Sprintf("found expected string %q", v.Expected)
	return outcome
}
