package merr

import (
	"errors"
	"strings"
	"testing"
)

// -----------------------------------------------------------------------------
// Constructor Tests
// -----------------------------------------------------------------------------

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    Code
		message string
	}{
		{
			name:    "schema error",
			code:    ErrDuplicateModel,
			message: "model already exists",
		},
		{
			name:    "validation error",
			code:    ErrInvalidIdentifier,
			message: "identifier is not valid",
		},
		{
			name:    "planning error",
			code:    ErrCyclicDependency,
			message: "dependency cycle detected",
		},
		{
			name:    "definition error",
			code:    ErrDefinitionParse,
			message: "definition file is malformed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message)
			if err == nil {
				t.Fatal("expected non-nil error")
			}
			if err.GetCode() != tt.code {
				t.Errorf("code = %v, want %v", err.GetCode(), tt.code)
			}
			if err.GetMessage() != tt.message {
				t.Errorf("message = %v, want %v", err.GetMessage(), tt.message)
			}
			if err.GetCause() != nil {
				t.Error("expected nil cause for New()")
			}
			if err.GetStack() == "" {
				t.Error("expected stack trace to be captured")
			}
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("wrap existing error", func(t *testing.T) {
		cause := errors.New("underlying error")
		err := Wrap(ErrLedgerQuery, cause, "failed to query history")

		if err.GetCode() != ErrLedgerQuery {
			t.Errorf("code = %v, want %v", err.GetCode(), ErrLedgerQuery)
		}
		if err.GetCause() != cause {
			t.Error("cause should be the wrapped error")
		}
		if !errors.Is(err, cause) {
			t.Error("errors.Is should find the wrapped cause")
		}
	})

	t.Run("wrap nil error behaves like New", func(t *testing.T) {
		err := Wrap(ErrUnknownModel, nil, "model error")

		if err.GetCode() != ErrUnknownModel {
			t.Errorf("code = %v, want %v", err.GetCode(), ErrUnknownModel)
		}
		if err.GetCause() != nil {
			t.Error("expected nil cause")
		}
	})
}

// -----------------------------------------------------------------------------
// Formatting and Context Tests
// -----------------------------------------------------------------------------

func TestErrorFormat(t *testing.T) {
	err := New(ErrUnknownField, "field does not exist").
		WithModel("contact", "communication").
		WithField("medum").
		WithHelp("did you mean 'medium'?")

	got := err.Error()
	for _, want := range []string{
		"[E1004] field does not exist",
		"model: contact.communication",
		"field: medum",
		"did you mean 'medium'?",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() missing %q in:\n%s", want, got)
		}
	}
}

func TestErrorContextDeterministic(t *testing.T) {
	mk := func() string {
		return New(ErrApplyFailed, "apply failed").
			WithNode("users", "0002_add_portfolio").
			WithOpIndex(3).
			With("kind", "AddField").
			Error()
	}

	first := mk()
	for i := 0; i < 10; i++ {
		if got := mk(); got != first {
			t.Fatalf("Error() output not deterministic:\n%s\nvs\n%s", got, first)
		}
	}
}

func TestWithModelNoNamespace(t *testing.T) {
	err := New(ErrUnknownModel, "model does not exist").WithModel("", "figure")
	if got := err.GetContext()["model"]; got != "figure" {
		t.Errorf("model context = %v, want %q", got, "figure")
	}
}

// -----------------------------------------------------------------------------
// Matching Tests
// -----------------------------------------------------------------------------

func TestIsMatchesByCode(t *testing.T) {
	err := New(ErrCyclicDependency, "cycle between nodes").
		WithNode("event", "0003_event_types")

	if !errors.Is(err, New(ErrCyclicDependency, "")) {
		t.Error("errors.Is should match by code")
	}
	if errors.Is(err, New(ErrMissingDep, "")) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestHasCode(t *testing.T) {
	err := New(ErrDuplicateField, "field already exists")
	if !HasCode(err, ErrDuplicateField) {
		t.Error("HasCode should report true for matching code")
	}
	if HasCode(err, ErrDuplicateModel) {
		t.Error("HasCode should report false for other codes")
	}
	if HasCode(errors.New("plain"), ErrDuplicateField) {
		t.Error("HasCode should report false for non-merr errors")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(ErrMissingDep, "")); got != ErrMissingDep {
		t.Errorf("CodeOf = %v, want %v", got, ErrMissingDep)
	}
	if got := CodeOf(errors.New("plain")); got != ErrInternal {
		t.Errorf("CodeOf(plain) = %v, want %v", got, ErrInternal)
	}
}

// -----------------------------------------------------------------------------
// Fuzzy Suggestion Tests
// -----------------------------------------------------------------------------

func TestFindClosestMatch(t *testing.T) {
	options := []string{"organization", "contact", "communication", "country"}

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"contct", "contact", true},
		{"comunication", "communication", true},
		{"country", "country", true},
		{"zzzzzzzzzz", "", false},
	}

	for _, tt := range tests {
		got, ok := FindClosestMatch(tt.input, options)
		if ok != tt.ok || got != tt.want {
			t.Errorf("FindClosestMatch(%q) = (%q, %v), want (%q, %v)",
				tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFindClosestMatch_ShortInputs(t *testing.T) {
	tests := []struct {
		input string
		opts  []string
		want  string
		ok    bool
	}{
		// Short names keep a tighter distance bound.
		{"nme", []string{"name", "email"}, "name", true},
		{"cat", []string{"count"}, "", false},
		{"id", []string{"uuid"}, "uuid", true},
		{"id", []string{"node"}, "", false},
	}

	for _, tt := range tests {
		got, ok := FindClosestMatch(tt.input, tt.opts)
		if ok != tt.ok || got != tt.want {
			t.Errorf("FindClosestMatch(%q) = (%q, %v), want (%q, %v)",
				tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSuggestSimilar(t *testing.T) {
	got := SuggestSimilar("designaton", []string{"designation", "job_title"})
	if got != "did you mean 'designation'?" {
		t.Errorf("SuggestSimilar = %q", got)
	}
	if got := SuggestSimilar("xyzzy", []string{"designation"}); got != "" {
		t.Errorf("SuggestSimilar for unrelated input = %q, want empty", got)
	}
}
