package ui

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// argForm is a set of labeled text inputs for tool arguments. Used by
// both the direct invoke form and the approval modal's edit mode.
type argForm struct {
	labels   []string
	required map[string]bool
	inputs   []textinput.Model
	focusIdx int
}

// newArgFormFromSchema builds one input per schema property, prefilled
// from args where present. Properties sort alphabetically so the form
// is stable across refreshes.
func newArgFormFromSchema(tool *mcptypes.Tool, args map[string]any) argForm {
	form := argForm{required: map[string]bool{}}

	if tool != nil {
		for _, name := range tool.InputSchema.Required {
			form.required[name] = true
		}
		for name := range tool.InputSchema.Properties {
			form.labels = append(form.labels, name)
		}
	}

	// Arguments outside the declared schema still get a field; servers
	// with loose schemas and models both produce them
	for name := range args {
		declared := false
		if tool != nil {
			_, declared = tool.InputSchema.Properties[name]
		}
		if !declared {
			form.labels = append(form.labels, name)
		}
	}
	sort.Strings(form.labels)
	form.labels = dedupe(form.labels)

	for i, name := range form.labels {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 0
		ti.Width = 50
		if v, ok := args[name]; ok {
			ti.SetValue(encodeFieldValue(v))
		}
		if i == 0 {
			ti.Focus()
		}
		form.inputs = append(form.inputs, ti)
	}

	return form
}

func dedupe(names []string) []string {
	out := names[:0]
	for i, n := range names {
		if i == 0 || names[i-1] != n {
			out = append(out, n)
		}
	}
	return out
}

// collect parses the fields back into an argument map. Values that
// parse as JSON keep their type (numbers, booleans, arrays, objects);
// everything else stays a string. Empty optional fields are omitted.
func (f argForm) collect() map[string]any {
	args := map[string]any{}
	for i, name := range f.labels {
		raw := f.inputs[i].Value()
		if raw == "" && !f.required[name] {
			continue
		}
		args[name] = decodeFieldValue(raw)
	}
	return args
}

func (f argForm) focusNext() argForm {
	return f.focus(f.focusIdx + 1)
}

func (f argForm) focusPrev() argForm {
	return f.focus(f.focusIdx - 1)
}

func (f argForm) focus(idx int) argForm {
	if len(f.inputs) == 0 {
		return f
	}
	idx = (idx + len(f.inputs)) % len(f.inputs)
	for i := range f.inputs {
		if i == idx {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	f.focusIdx = idx
	return f
}

func (f argForm) update(msg tea.Msg) (argForm, tea.Cmd) {
	if len(f.inputs) == 0 {
		return f, nil
	}
	var cmd tea.Cmd
	f.inputs[f.focusIdx], cmd = f.inputs[f.focusIdx].Update(msg)
	return f, cmd
}

// renderLines renders one "name: <input>" line per field, the focused
// one highlighted.
func (f argForm) renderLines() []string {
	var lines []string
	for i, name := range f.labels {
		label := name
		if f.required[name] {
			label += "*"
		}
		if i == f.focusIdx {
			label = SelectedStyle.Render(label)
		} else {
			label = DimStyle.Render(label)
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", label, f.inputs[i].View()))
	}
	return lines
}

func encodeFieldValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func decodeFieldValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
