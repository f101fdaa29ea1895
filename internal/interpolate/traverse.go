package interpolate

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/sirupsen/logrus"
)

var (
	embeddedExpr = regexp.MustCompile(`\$\{([^}]*)\}`)
	// {{ name }} placeholders, as written in older custom node templates
	placeholderExpr = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)
)

// ConvertPlaceholders rewrites {{ name }} placeholders into ${ .name }
// expressions. Anything beyond a bare field name is left untouched.
func ConvertPlaceholders(s string) string {
	return placeholderExpr.ReplaceAllString(s, "$${ .$1 }")
}

// IsStrictExpr reports whether s is exactly one ${ ... } expression.
func IsStrictExpr(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") &&
		strings.Count(s, "${") == 1
}

// SanitizeExpr strips the ${ } wrapper from a strict expression.
func SanitizeExpr(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "${")
	s = strings.TrimSuffix(s, "}")
	return strings.TrimSpace(s)
}

func NewTraverse(node any, input any, variables map[string]any) (any, error) {
	return traverseAndEvaluate(node, input, variables)
}

// RenderJSON parses templateText as JSON, evaluates every ${ ... } jq
// expression found in its string values against input and returns the
// re-encoded document.
func RenderJSON(templateText string, input any, variables map[string]any) ([]byte, error) {
	var document any
	if err := json.Unmarshal([]byte(templateText), &document); err != nil {
		return nil, fmt.Errorf("template is not valid JSON: %w", err)
	}

	// gojq only understands plain JSON values
	normalized, err := normalize(input)
	if err != nil {
		return nil, err
	}

	rendered, err := traverseAndEvaluate(document, normalized, variables)
	if err != nil {
		return nil, err
	}

	return json.Marshal(rendered)
}

func normalize(input any) (any, error) {
	if input == nil {
		return nil, nil
	}
	data, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template input: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode template input: %w", err)
	}
	return out, nil
}

func traverseAndEvaluate(node any, input any, variables map[string]any) (any, error) {
	switch v := node.(type) {
	case map[string]any:
		for key, value := range v {
			evaluatedValue, err := traverseAndEvaluate(value, input, variables)
			if err != nil {

				logrus.WithFields(logrus.Fields{
					"key": key,
				}).WithError(err).Error("Failed to evaluate expression in map")

				return nil, err
			}
			v[key] = evaluatedValue
		}
		return v, nil

	case []any:
		for i, value := range v {
			evaluatedValue, err := traverseAndEvaluate(value, input, variables)
			if err != nil {
				return nil, err
			}
			v[i] = evaluatedValue
		}
		return v, nil

	case string:

		if IsStrictExpr(v) {
			return evaluateJQExpression(SanitizeExpr(v), input, variables)
		}

		if strings.Contains(v, "${") {
			return evaluateEmbedded(v, input, variables)
		}
		return v, nil

	default:
		return v, nil
	}
}

// evaluateEmbedded replaces each ${ ... } inside a longer string with the
// text form of its result.
func evaluateEmbedded(s string, input any, variables map[string]any) (string, error) {
	var firstErr error

	result := embeddedExpr.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}
		value, err := evaluateJQExpression(SanitizeExpr(match), input, variables)
		if err != nil {
			firstErr = err
			return match
		}
		switch t := value.(type) {
		case nil:
			return ""
		case string:
			return t
		default:
			encoded, err := json.Marshal(t)
			if err != nil {
				firstErr = err
				return match
			}
			return string(encoded)
		}
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// evaluateJQExpression evaluates a jq expression against a given JSON input
func evaluateJQExpression(expression string, input any, variables map[string]any) (any, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jq expression: %s, error: %w", expression, err)
	}

	names, values := getVariableNamesAndValues(variables)

	code, err := gojq.Compile(query, gojq.WithVariables(names))
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %s, error: %w", expression, err)
	}

	iter := code.Run(input, values...)
	result, ok := iter.Next()
	if !ok {
		return nil, errors.New("no result from jq evaluation")
	}

	if errVal, isErr := result.(error); isErr {
		return nil, fmt.Errorf("jq evaluation error: %w", errVal)
	}

	return result, nil
}

// getVariableNamesAndValues constructs two slices, where 'names[i]' matches 'values[i]'.
func getVariableNamesAndValues(vars map[string]any) ([]string, []any) {
	names := make([]string, 0, len(vars))
	values := make([]any, 0, len(vars))

	for k, v := range vars {
		names = append(names, k)
		values = append(values, v)
	}
	return names, values
}
