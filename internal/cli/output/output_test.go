package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type sample struct {
	Token  string   `json:"token" yaml:"token"`
	IDs    []string `json:"documentIds" yaml:"documentIds"`
	Count  int      `json:"count" yaml:"count"`
	Hidden string   `json:"hidden" table:"-"`
}

type listing []string

func (l listing) Table() *Table {
	t := &Table{Headers: []string{"#", "ID"}}
	for i, id := range l {
		t.AddRow(strings.Repeat("*", i+1), id)
	}
	return t
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatYAML} {
		if _, ok := NewFormatter(f).(FormatterFunc); !ok {
			t.Errorf("%s should give an encoder", f)
		}
	}
	if _, ok := NewFormatter(FormatTable).(*TableFormatter); !ok {
		t.Error("table should give TableFormatter")
	}
}

func TestFormat_JSON(t *testing.T) {
	var buf bytes.Buffer
	in := sample{Token: "c:abc", IDs: []string{"a", "b"}, Count: 2}
	if err := NewFormatter(FormatJSON).Format(&buf, in); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var out sample
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if out.Token != "c:abc" || len(out.IDs) != 2 {
		t.Errorf("decoded = %+v", out)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("JSON output should be indented")
	}
}

func TestFormat_YAML(t *testing.T) {
	var buf bytes.Buffer
	in := sample{Token: "s:xyz", IDs: []string{"a"}, Count: 1}
	if err := NewFormatter(FormatYAML).Format(&buf, in); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	if !strings.Contains(buf.String(), "token: s:xyz") {
		t.Errorf("output = %q", buf.String())
	}
	var out sample
	if err := yaml.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if out.Count != 1 {
		t.Errorf("Count = %d, want 1", out.Count)
	}
}

func TestTableFormatter(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		contains []string
		absent   []string
	}{
		{
			name:     "struct",
			data:     &sample{Token: "c:abc", IDs: []string{"a", "b"}, Hidden: "secret"},
			contains: []string{"FIELD", "token", "c:abc", "documentIds", "a,b"},
			absent:   []string{"secret", "hidden"},
		},
		{
			name:     "empty fields",
			data:     sample{},
			contains: []string{"token", "-"},
		},
		{
			name:     "tabular",
			data:     listing{"x", "y"},
			contains: []string{"#", "ID", "**", "y"},
		},
		{
			name:     "table",
			data:     &Table{Headers: []string{"A"}, Rows: [][]string{{"1"}}},
			contains: []string{"A", "1"},
		},
		{
			name:     "scalar",
			data:     "plain",
			contains: []string{"plain"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&TableFormatter{}).Format(&buf, tt.data); err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			out := buf.String()
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestTable_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	table := &Table{Headers: []string{"NAME", "VALUE"}}
	table.AddRow("a", "1")

	if err := table.RenderWithOptions(&buf, true); err != nil {
		t.Fatalf("RenderWithOptions() error = %v", err)
	}
	if strings.Contains(buf.String(), "NAME") {
		t.Error("headers should be omitted")
	}

	buf.Reset()
	table.Render(&buf)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if strings.Index(lines[0], "VALUE") != strings.Index(lines[1], "1") {
		t.Error("columns should be aligned")
	}
}
