package cli

import (
	"strings"
	"testing"
)

var styleFuncs = []struct {
	name  string
	fn    func(string) string
	input string
}{
	{"Error", Error, "error text"},
	{"Warning", Warning, "warning text"},
	{"Note", Note, "note text"},
	{"Help", Help, "run migral lock"},
	{"Success", Success, "applied"},
	{"Info", Info, "3 nodes pending"},
	{"Code", Code, "E3001"},
	{"LineNum", LineNum, "42"},
	{"Pointer", Pointer, "^^^^"},
	{"Source", Source, "type: char"},
	{"FilePath", FilePath, "migrations/country/0001_initial.yaml"},
	{"Progress", Progress, "50%"},
	{"Done", Done, "done"},
	{"Failed", Failed, "failed"},
	{"Header", Header, "NODE"},
	{"Dim", Dim, "muted"},
	{"Highlight", Highlight, "contact.0001_initial"},
}

func TestStyleFuncs_PlainModePassthrough(t *testing.T) {
	original := defaultCfg
	t.Cleanup(func() { defaultCfg = original })
	SetDefault(&Config{Mode: ModePlain})

	for _, tt := range styleFuncs {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.input); got != tt.input {
				t.Errorf("%s(%q) = %q, want input unchanged", tt.name, tt.input, got)
			}
		})
	}
}

func TestStyleFuncs_TTYModeKeepsText(t *testing.T) {
	original := defaultCfg
	t.Cleanup(func() { defaultCfg = original })
	SetDefault(&Config{Mode: ModeTTY})

	// lipgloss may strip colors when the test process has no real TTY,
	// so only the text content is asserted.
	for _, tt := range styleFuncs {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.input); !strings.Contains(got, tt.input) {
				t.Errorf("%s(%q) = %q, text lost", tt.name, tt.input, got)
			}
		})
	}
}

func TestPipe(t *testing.T) {
	original := defaultCfg
	t.Cleanup(func() { defaultCfg = original })

	SetDefault(&Config{Mode: ModePlain})
	if got := Pipe(); got != "|" {
		t.Errorf("Pipe() plain = %q, want %q", got, "|")
	}

	SetDefault(&Config{Mode: ModeTTY})
	if got := Pipe(); !strings.Contains(got, "|") {
		t.Errorf("Pipe() tty = %q, want pipe character", got)
	}
}

func TestStyleFuncs_EmptyInput(t *testing.T) {
	original := defaultCfg
	t.Cleanup(func() { defaultCfg = original })
	SetDefault(&Config{Mode: ModePlain})

	if got := Error(""); got != "" {
		t.Errorf("Error(\"\") = %q, want empty", got)
	}
}
