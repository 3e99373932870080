package mcp

import (
	"fmt"
	"regexp"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Severity grades a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding from the metadata lint pass, shown next to the
// tool in the tools panel.
type Issue struct {
	Severity Severity
	Field    string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Field, i.Message)
}

const (
	maxNameLength        = 64
	maxDescriptionLength = 1024
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateTool lints one tool's metadata. Findings never block use of
// the tool; they exist so server authors see schema problems before a
// model trips over them.
func ValidateTool(tool mcptypes.Tool) []Issue {
	var issues []Issue

	switch {
	case tool.Name == "":
		issues = append(issues, Issue{SeverityError, "name", "tool name is empty"})
	case len(tool.Name) > maxNameLength:
		issues = append(issues, Issue{SeverityError, "name",
			fmt.Sprintf("tool name exceeds %d characters", maxNameLength)})
	case !namePattern.MatchString(tool.Name):
		issues = append(issues, Issue{SeverityError, "name",
			"tool name must contain only letters, digits, underscores, and hyphens"})
	}

	switch {
	case tool.Description == "":
		issues = append(issues, Issue{SeverityWarning, "description",
			"tool has no description; models pick tools by description"})
	case len(tool.Description) > maxDescriptionLength:
		issues = append(issues, Issue{SeverityWarning, "description",
			fmt.Sprintf("description exceeds %d characters", maxDescriptionLength)})
	}

	issues = append(issues, validateSchema(tool.InputSchema)...)
	issues = append(issues, validateAnnotations(tool.Annotations)...)

	return issues
}

// ValidateCatalog lints every tool plus catalog-level rules (name
// uniqueness, which the caller relies on as a join key).
func ValidateCatalog(tools []mcptypes.Tool) map[string][]Issue {
	result := make(map[string][]Issue, len(tools))
	seen := make(map[string]int)

	for _, tool := range tools {
		result[tool.Name] = ValidateTool(tool)
		seen[tool.Name]++
	}

	for name, count := range seen {
		if count > 1 {
			result[name] = append(result[name], Issue{SeverityError, "name",
				fmt.Sprintf("tool name appears %d times in the catalog", count)})
		}
	}

	return result
}

func validateSchema(schema mcptypes.ToolInputSchema) []Issue {
	var issues []Issue

	if schema.Type != "" && schema.Type != "object" {
		issues = append(issues, Issue{SeverityWarning, "inputSchema.type",
			fmt.Sprintf("input schema type is %q; tool inputs are object-shaped", schema.Type)})
	}

	for propName, propValue := range schema.Properties {
		propMap, ok := propValue.(map[string]any)
		if !ok {
			issues = append(issues, Issue{SeverityWarning, "inputSchema.properties." + propName,
				"property definition is not an object"})
			continue
		}
		if _, hasType := propMap["type"]; !hasType {
			if _, hasAnyOf := propMap["anyOf"]; !hasAnyOf {
				issues = append(issues, Issue{SeverityWarning, "inputSchema.properties." + propName,
					"property declares no type"})
			}
		}
	}

	for _, required := range schema.Required {
		if _, ok := schema.Properties[required]; !ok {
			issues = append(issues, Issue{SeverityError, "inputSchema.required",
				fmt.Sprintf("required property %q is not declared in properties", required)})
		}
	}

	return issues
}

func validateAnnotations(ann mcptypes.ToolAnnotation) []Issue {
	var issues []Issue

	if ann.ReadOnlyHint != nil && ann.DestructiveHint != nil &&
		*ann.ReadOnlyHint && *ann.DestructiveHint {
		issues = append(issues, Issue{SeverityWarning, "annotations",
			"readOnlyHint and destructiveHint are both true"})
	}

	return issues
}

// IssueCounts tallies findings by severity for panel summaries.
func IssueCounts(issues []Issue) (errors, warnings int) {
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}
	return errors, warnings
}
