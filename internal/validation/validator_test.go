package validation

import (
	"strings"
	"testing"
)

func TestStringArg_Valid(t *testing.T) {
	res := StringArg("stringToAppend", "  ## New Section  ")

	if !res.Valid {
		t.Fatalf("StringArg() Valid = false, message: %s", res.Message)
	}
	if res.Cleaned != "## New Section" {
		t.Errorf("Cleaned = %q, want trimmed value", res.Cleaned)
	}
	if res.OriginalLength != len("  ## New Section  ") {
		t.Errorf("OriginalLength = %d, want %d", res.OriginalLength, len("  ## New Section  "))
	}
	if res.InputType != "string" {
		t.Errorf("InputType = %q, want string", res.InputType)
	}
}

func TestStringArg_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		value       any
		wantMessage string
		wantType    string
	}{
		{"nil value", nil, "stringToAppend is required", "null"},
		{"number", float64(42), "stringToAppend must be a string, got number", "number"},
		{"boolean", true, "stringToAppend must be a string, got boolean", "boolean"},
		{"array", []any{"a"}, "stringToAppend must be a string, got array", "array"},
		{"object", map[string]any{}, "stringToAppend must be a string, got object", "object"},
		{"empty string", "", "stringToAppend cannot be empty or whitespace-only", "string"},
		{"whitespace only", "   \n\t  ", "stringToAppend cannot be empty or whitespace-only", "string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := StringArg("stringToAppend", tt.value)
			if res.Valid {
				t.Fatal("StringArg() Valid = true, want false")
			}
			if res.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", res.Message, tt.wantMessage)
			}
			if res.InputType != tt.wantType {
				t.Errorf("InputType = %q, want %q", res.InputType, tt.wantType)
			}
		})
	}
}

func TestStringArg_LengthBoundary(t *testing.T) {
	// Exactly the maximum length succeeds
	exact := strings.Repeat("a", MaxStringLength)
	if res := StringArg("stringToAppend", exact); !res.Valid {
		t.Errorf("StringArg() rejected input of exactly %d characters: %s", MaxStringLength, res.Message)
	}

	// One over fails, reporting the actual length
	over := strings.Repeat("a", MaxStringLength+1)
	res := StringArg("stringToAppend", over)
	if res.Valid {
		t.Fatal("StringArg() accepted input over the maximum length")
	}
	if !strings.Contains(res.Message, "10001") {
		t.Errorf("Message = %q, want actual length reported", res.Message)
	}

	// Trimming happens before the length check
	padded := strings.Repeat("a", MaxStringLength) + "   "
	if res := StringArg("stringToAppend", padded); !res.Valid {
		t.Errorf("StringArg() rejected input that trims to the maximum length: %s", res.Message)
	}
}

func TestStringArg_LengthCountsCharactersNotBytes(t *testing.T) {
	// "é" is two bytes; the maximum applies to characters, so this is
	// twice MaxStringLength in bytes and still valid.
	multibyte := strings.Repeat("é", MaxStringLength)
	if res := StringArg("stringToAppend", multibyte); !res.Valid {
		t.Errorf("StringArg() rejected %d multi-byte characters: %s", MaxStringLength, res.Message)
	}

	over := strings.Repeat("é", MaxStringLength+1)
	res := StringArg("stringToAppend", over)
	if res.Valid {
		t.Fatal("StringArg() accepted input over the maximum character count")
	}
	if !strings.Contains(res.Message, "10001") {
		t.Errorf("Message = %q, want character count reported", res.Message)
	}
}

func TestStringArg_Denylist(t *testing.T) {
	blocked := []string{
		"<script>alert(1)</script>",
		"<SCRIPT SRC=//x.example>",
		"some text </script> more",
		"click javascript:alert(1)",
		"JAVASCRIPT:void(0)",
		"vbscript:msgbox",
		"data:text/html;base64,PHNjcmlwdD4=",
		`<img onerror=alert(1)>`,
		`<div ONCLICK = "x()">`,
	}

	for _, input := range blocked {
		if res := StringArg("stringToAppend", input); res.Valid {
			t.Errorf("StringArg(%q) accepted, want rejected by content filter", input)
		}
	}

	allowed := []string{
		"## New Section\n\nNew content here",
		"The description mentions scripts in prose",
		"Use the onclick pattern described above", // no assignment, not an attribute
		"data: text/html is discussed",
	}

	for _, input := range allowed {
		if res := StringArg("stringToAppend", input); !res.Valid {
			t.Errorf("StringArg(%q) rejected (%s), want accepted", input, res.Message)
		}
	}
}
