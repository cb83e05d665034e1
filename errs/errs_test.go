package errs

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("boom")
	err := New("sim", CodeLifecycle,
		WithMessage("cannot setup game instance - already set up"),
		WithField("state", "running"),
		WithCause(cause))

	text := err.Error()
	for _, want := range []string{"component=sim", "code=lifecycle", "already set up", `state="running"`, "boom"} {
		if !strings.Contains(text, want) {
			t.Errorf("error text missing %q: %s", want, text)
		}
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to unwrap")
	}
}

func TestNilError(t *testing.T) {
	var e *E
	if e.Error() != "<nil>" {
		t.Fatalf("unexpected nil formatting: %s", e.Error())
	}
}

func TestHelpers(t *testing.T) {
	if err := Lifecycle("sim", "not set up"); err.Code != CodeLifecycle {
		t.Errorf("unexpected code %s", err.Code)
	}
	err := Identifier("defs", "good", "phlogiston")
	if err.Code != CodeIdentifier || err.Fields["good"] != "phlogiston" {
		t.Errorf("unexpected identifier error: %s", err)
	}
}
