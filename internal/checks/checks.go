package checks

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/noah-isme/pyquest-go-api/internal/models"
)

// Result is the outcome of one assertion against a single execution.
type Result struct {
	ID          string `json:"id,omitempty"`
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
	Expected    string `json:"expected,omitempty"`
	Actual      string `json:"actual,omitempty"`
	Message     string `json:"message,omitempty"`
}

// EvaluateAll runs every assertion against the same execution and reports
// whether all of them passed.
func EvaluateAll(source, stdout, stderr string, specs []models.TestSpec) ([]Result, bool) {
	results := make([]Result, 0, len(specs))
	allPassed := true
	for _, spec := range specs {
		result := Evaluate(source, stdout, stderr, spec)
		if !result.Passed {
			allPassed = false
		}
		results = append(results, result)
	}
	return results, allPassed
}

// Evaluate checks one assertion. All checks are textual: variable and list
// assertions pattern-match literal assignments in the source rather than
// inspecting a live object graph. A variable bound without a literal
// assignment (unpacking, loops) is therefore not detected.
func Evaluate(source, stdout, stderr string, spec models.TestSpec) Result {
	// A crashed execution fails every assertion.
	if stderr != "" && stdout == "" {
		return Result{
			ID:          spec.ID,
			Description: spec.Description,
			Passed:      false,
			Actual:      "Execution error",
			Message:     stderr,
		}
	}

	switch spec.Kind {
	case models.TestKindOutput:
		return checkOutput(stdout, spec)
	case models.TestKindVariableExists:
		return checkVariableExists(source, spec)
	case models.TestKindVariableType:
		return checkVariableType(source, spec)
	case models.TestKindVariableValue:
		return checkVariableValue(source, spec)
	case models.TestKindFunctionCall:
		return checkFunctionCall(stdout, spec)
	case models.TestKindListContains:
		return checkListContains(source, spec)
	case models.TestKindListLength:
		return checkListLength(source, spec)
	default:
		return Result{
			ID:          spec.ID,
			Description: spec.Description,
			Passed:      false,
			Message:     fmt.Sprintf("unknown test type: %s", spec.Kind),
		}
	}
}

func checkOutput(stdout string, spec models.TestSpec) Result {
	expected := strings.TrimSpace(spec.ExpectedString())
	actual := strings.TrimSpace(stdout)
	return Result{
		ID:          spec.ID,
		Description: spec.Description,
		Passed:      actual == expected,
		Expected:    expected,
		Actual:      actual,
	}
}

func checkVariableExists(source string, spec models.TestSpec) Result {
	pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(spec.Variable) + `\s*=`)
	found := pattern.MatchString(source)

	actual := "Not found"
	if found {
		actual = "Found"
	}

	return Result{
		ID:          spec.ID,
		Description: spec.Description,
		Passed:      found,
		Expected:    fmt.Sprintf("Variable '%s' should exist", spec.Variable),
		Actual:      actual,
	}
}

var (
	intLiteral   = regexp.MustCompile(`^\d+$`)
	floatLiteral = regexp.MustCompile(`^\d+\.\d+$`)
)

func checkVariableType(source string, spec models.TestSpec) Result {
	value, ok := lastAssignment(source, spec.Variable)
	if !ok {
		return Result{
			ID:          spec.ID,
			Description: spec.Description,
			Passed:      false,
			Expected:    spec.ExpectedType,
			Actual:      "Variable not found",
		}
	}

	actualType := inferLiteralType(value)
	return Result{
		ID:          spec.ID,
		Description: spec.Description,
		Passed:      actualType == spec.ExpectedType,
		Expected:    spec.ExpectedType,
		Actual:      actualType,
	}
}

func inferLiteralType(value string) string {
	switch {
	case len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'')):
		return "str"
	case intLiteral.MatchString(value):
		return "int"
	case floatLiteral.MatchString(value):
		return "float"
	case strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]"):
		return "list"
	case strings.HasPrefix(value, "{") && strings.HasSuffix(value, "}"):
		return "dict"
	default:
		return "unknown"
	}
}

func checkVariableValue(source string, spec models.TestSpec) Result {
	expected := spec.ExpectedString()

	value, ok := lastAssignment(source, spec.Variable)
	if !ok {
		return Result{
			ID:          spec.ID,
			Description: spec.Description,
			Passed:      false,
			Expected:    expected,
			Actual:      "Variable not found",
		}
	}

	// The literal may carry either quote style around a string expectation.
	passed := value == expected ||
		value == `"`+expected+`"` ||
		value == `'`+expected+`'`

	return Result{
		ID:          spec.ID,
		Description: spec.Description,
		Passed:      passed,
		Expected:    expected,
		Actual:      value,
	}
}

func checkFunctionCall(stdout string, spec models.TestSpec) Result {
	expected := strings.TrimSpace(spec.ExpectedString())

	passed := false
	for _, line := range strings.Split(stdout, "\n") {
		if strings.TrimSpace(line) == expected {
			passed = true
			break
		}
	}

	return Result{
		ID:          spec.ID,
		Description: spec.Description,
		Passed:      passed,
		Expected:    expected,
		Actual:      stdout,
	}
}

func checkListContains(source string, spec models.TestSpec) Result {
	expected := spec.ExpectedString()

	content, ok := listLiteral(source, spec.Variable)
	if !ok {
		return Result{
			ID:          spec.ID,
			Description: spec.Description,
			Passed:      false,
			Expected:    expected,
			Actual:      "List not found",
		}
	}

	encoded, _ := json.Marshal(expected)
	contains := strings.Contains(content, string(encoded)) ||
		strings.Contains(content, `'`+expected+`'`) ||
		strings.Contains(content, `"`+expected+`"`) ||
		containsBareItem(content, expected)

	return Result{
		ID:          spec.ID,
		Description: spec.Description,
		Passed:      contains,
		Expected:    fmt.Sprintf("List should contain %s", expected),
		Actual:      content,
	}
}

func containsBareItem(content, expected string) bool {
	for _, item := range strings.Split(content, ",") {
		if strings.TrimSpace(item) == expected {
			return true
		}
	}
	return false
}

func checkListLength(source string, spec models.TestSpec) Result {
	expectedLength, err := spec.ExpectedInt()
	if err != nil {
		return Result{
			ID:          spec.ID,
			Description: spec.Description,
			Passed:      false,
			Message:     err.Error(),
		}
	}

	content, ok := listLiteral(source, spec.Variable)
	if !ok {
		return Result{
			ID:          spec.ID,
			Description: spec.Description,
			Passed:      false,
			Expected:    fmt.Sprintf("%d", expectedLength),
			Actual:      "List not found",
		}
	}

	length := 0
	for _, item := range strings.Split(content, ",") {
		if strings.TrimSpace(item) != "" {
			length++
		}
	}

	return Result{
		ID:          spec.ID,
		Description: spec.Description,
		Passed:      length == expectedLength,
		Expected:    fmt.Sprintf("%d", expectedLength),
		Actual:      fmt.Sprintf("%d", length),
	}
}

// lastAssignment finds the final literal assignment to name in the source.
func lastAssignment(source, name string) (string, bool) {
	pattern := regexp.MustCompile(`(?m)\b` + regexp.QuoteMeta(name) + `\s*=\s*(.+)$`)
	matches := pattern.FindAllStringSubmatch(source, -1)
	if len(matches) == 0 {
		return "", false
	}
	return strings.TrimSpace(matches[len(matches)-1][1]), true
}

// listLiteral extracts the bracketed literal assigned to name, if any.
func listLiteral(source, name string) (string, bool) {
	pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*=\s*\[([^\]]*)\]`)
	match := pattern.FindStringSubmatch(source)
	if match == nil {
		return "", false
	}
	return match[1], true
}
