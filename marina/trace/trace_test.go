package trace

import (
	"strings"
	"testing"
)

func TestEmitNilHandler(t *testing.T) {
	// Must not panic.
	Emit(nil, RuleApplied, map[string]interface{}{"rule": "x"})
}

func TestHandlerFunc(t *testing.T) {
	var got []Event
	h := HandlerFunc(func(e Event) { got = append(got, e) })
	Emit(h, WinnerUpdated, map[string]interface{}{"group": 1})
	if len(got) != 1 || got[0].Name != WinnerUpdated {
		t.Fatalf("handler saw %v", got)
	}
}

func TestFormatterOutput(t *testing.T) {
	var sb strings.Builder
	f := &OutputFormatter{writer: &sb}

	f.Handle(Event{Name: RuleApplied, Data: map[string]interface{}{
		"rule": "EquiJoinCommute", "mexpr": "EquiJoin [0 1]", "inserted": 1,
	}})
	if !strings.Contains(sb.String(), "EquiJoinCommute") {
		t.Errorf("output %q missing rule name", sb.String())
	}

	// Unknown events render to nothing.
	before := sb.Len()
	f.Handle(Event{Name: "bogus"})
	if sb.Len() != before {
		t.Error("unknown event should produce no output")
	}
}
