package tui

import "testing"

func TestParseAttachCommand(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantPath string
		wantOK   bool
	}{
		{"simple", "/attach notes.pdf", "notes.pdf", true},
		{"extra spaces", "/attach   ./slides/unit1.pptx", "./slides/unit1.pptx", true},
		{"no path", "/attach", "", false},
		{"only spaces", "/attach   ", "", false},
		{"not a command", "please attach this", "", false},
		{"plain text", "hello", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := parseAttachCommand(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if path != tt.wantPath {
				t.Errorf("path = %q, want %q", path, tt.wantPath)
			}
		})
	}
}
