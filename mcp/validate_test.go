package mcp

import (
	"strings"
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

func boolPtr(v bool) *bool { return &v }

func validTool() mcptypes.Tool {
	return mcptypes.Tool{
		Name:        "get_weather",
		Description: "Returns the current weather for a city",
		InputSchema: mcptypes.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"city": map[string]any{"type": "string"},
			},
			Required: []string{"city"},
		},
	}
}

func findIssue(issues []Issue, field string) (Issue, bool) {
	for _, issue := range issues {
		if issue.Field == field {
			return issue, true
		}
	}
	return Issue{}, false
}

func TestValidateTool(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(tool *mcptypes.Tool)
		validate func(t *testing.T, issues []Issue)
	}{
		{
			name:   "clean tool has no findings",
			mutate: func(tool *mcptypes.Tool) {},
			validate: func(t *testing.T, issues []Issue) {
				if len(issues) != 0 {
					t.Errorf("expected no issues, got %v", issues)
				}
			},
		},
		{
			name:   "empty name is an error",
			mutate: func(tool *mcptypes.Tool) { tool.Name = "" },
			validate: func(t *testing.T, issues []Issue) {
				issue, ok := findIssue(issues, "name")
				if !ok || issue.Severity != SeverityError {
					t.Errorf("expected name error, got %v", issues)
				}
			},
		},
		{
			name:   "overlong name is an error",
			mutate: func(tool *mcptypes.Tool) { tool.Name = strings.Repeat("a", 65) },
			validate: func(t *testing.T, issues []Issue) {
				issue, ok := findIssue(issues, "name")
				if !ok || issue.Severity != SeverityError {
					t.Errorf("expected name error, got %v", issues)
				}
			},
		},
		{
			name:   "name with spaces is an error",
			mutate: func(tool *mcptypes.Tool) { tool.Name = "get weather" },
			validate: func(t *testing.T, issues []Issue) {
				issue, ok := findIssue(issues, "name")
				if !ok || issue.Severity != SeverityError {
					t.Errorf("expected name error, got %v", issues)
				}
			},
		},
		{
			name:   "hyphens and underscores are allowed",
			mutate: func(tool *mcptypes.Tool) { tool.Name = "get-weather_v2" },
			validate: func(t *testing.T, issues []Issue) {
				if _, ok := findIssue(issues, "name"); ok {
					t.Errorf("unexpected name finding: %v", issues)
				}
			},
		},
		{
			name:   "missing description is a warning",
			mutate: func(tool *mcptypes.Tool) { tool.Description = "" },
			validate: func(t *testing.T, issues []Issue) {
				issue, ok := findIssue(issues, "description")
				if !ok || issue.Severity != SeverityWarning {
					t.Errorf("expected description warning, got %v", issues)
				}
			},
		},
		{
			name:   "overlong description is a warning",
			mutate: func(tool *mcptypes.Tool) { tool.Description = strings.Repeat("x", 1025) },
			validate: func(t *testing.T, issues []Issue) {
				issue, ok := findIssue(issues, "description")
				if !ok || issue.Severity != SeverityWarning {
					t.Errorf("expected description warning, got %v", issues)
				}
			},
		},
		{
			name:   "non-object schema type is a warning",
			mutate: func(tool *mcptypes.Tool) { tool.InputSchema.Type = "array" },
			validate: func(t *testing.T, issues []Issue) {
				issue, ok := findIssue(issues, "inputSchema.type")
				if !ok || issue.Severity != SeverityWarning {
					t.Errorf("expected schema type warning, got %v", issues)
				}
			},
		},
		{
			name: "property without a type is a warning",
			mutate: func(tool *mcptypes.Tool) {
				tool.InputSchema.Properties["units"] = map[string]any{"description": "metric or imperial"}
			},
			validate: func(t *testing.T, issues []Issue) {
				issue, ok := findIssue(issues, "inputSchema.properties.units")
				if !ok || issue.Severity != SeverityWarning {
					t.Errorf("expected property warning, got %v", issues)
				}
			},
		},
		{
			name: "property with anyOf needs no type",
			mutate: func(tool *mcptypes.Tool) {
				tool.InputSchema.Properties["units"] = map[string]any{
					"anyOf": []any{map[string]any{"type": "string"}},
				}
			},
			validate: func(t *testing.T, issues []Issue) {
				if _, ok := findIssue(issues, "inputSchema.properties.units"); ok {
					t.Errorf("unexpected property finding: %v", issues)
				}
			},
		},
		{
			name: "non-object property definition is a warning",
			mutate: func(tool *mcptypes.Tool) {
				tool.InputSchema.Properties["bad"] = "string"
			},
			validate: func(t *testing.T, issues []Issue) {
				issue, ok := findIssue(issues, "inputSchema.properties.bad")
				if !ok || issue.Severity != SeverityWarning {
					t.Errorf("expected property warning, got %v", issues)
				}
			},
		},
		{
			name: "required name missing from properties is an error",
			mutate: func(tool *mcptypes.Tool) {
				tool.InputSchema.Required = append(tool.InputSchema.Required, "ghost")
			},
			validate: func(t *testing.T, issues []Issue) {
				issue, ok := findIssue(issues, "inputSchema.required")
				if !ok || issue.Severity != SeverityError {
					t.Errorf("expected required error, got %v", issues)
				}
			},
		},
		{
			name: "contradictory annotations are a warning",
			mutate: func(tool *mcptypes.Tool) {
				tool.Annotations = mcptypes.ToolAnnotation{
					ReadOnlyHint:    boolPtr(true),
					DestructiveHint: boolPtr(true),
				}
			},
			validate: func(t *testing.T, issues []Issue) {
				issue, ok := findIssue(issues, "annotations")
				if !ok || issue.Severity != SeverityWarning {
					t.Errorf("expected annotation warning, got %v", issues)
				}
			},
		},
		{
			name: "read-only alone is fine",
			mutate: func(tool *mcptypes.Tool) {
				tool.Annotations = mcptypes.ToolAnnotation{ReadOnlyHint: boolPtr(true)}
			},
			validate: func(t *testing.T, issues []Issue) {
				if len(issues) != 0 {
					t.Errorf("expected no issues, got %v", issues)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := validTool()
			tt.mutate(&tool)
			tt.validate(t, ValidateTool(tool))
		})
	}
}

func TestValidateCatalogDuplicateNames(t *testing.T) {
	first := validTool()
	second := validTool()
	second.Description = "A second tool wearing the same name"

	result := ValidateCatalog([]mcptypes.Tool{first, second})

	issues := result["get_weather"]
	issue, ok := findIssue(issues, "name")
	if !ok || issue.Severity != SeverityError {
		t.Fatalf("expected duplicate name error, got %v", issues)
	}
	if !strings.Contains(issue.Message, "2 times") {
		t.Errorf("expected occurrence count in message, got %q", issue.Message)
	}
}

func TestValidateCatalogKeysEveryTool(t *testing.T) {
	tools := []mcptypes.Tool{validTool(), {Name: "broken name"}}

	result := ValidateCatalog(tools)

	if len(result) != 2 {
		t.Fatalf("expected an entry per tool, got %d", len(result))
	}
	if len(result["get_weather"]) != 0 {
		t.Errorf("clean tool should have no findings: %v", result["get_weather"])
	}
	if len(result["broken name"]) == 0 {
		t.Errorf("broken tool should have findings")
	}
}

func TestIssueCounts(t *testing.T) {
	issues := []Issue{
		{Severity: SeverityError, Field: "name"},
		{Severity: SeverityWarning, Field: "description"},
		{Severity: SeverityWarning, Field: "annotations"},
	}

	errs, warns := IssueCounts(issues)
	if errs != 1 || warns != 2 {
		t.Errorf("expected 1 error and 2 warnings, got %d and %d", errs, warns)
	}
}
