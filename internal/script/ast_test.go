package script

import "testing"

func TestParseYAMLMapping(t *testing.T) {
	node, err := ParseYAML([]byte("tag: ENG\nyear: 1840\n"))
	if err != nil {
		t.Fatal(err)
	}
	entries, err := node.ExpectEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Key != "tag" || entries[1].Key != "year" {
		t.Fatalf("unexpected keys %q, %q", entries[0].Key, entries[1].Key)
	}
	if v, err := entries[1].Node.ExpectInt(); err != nil || v != 1840 {
		t.Fatalf("year = %d, %v", v, err)
	}
}

func TestParseYAMLSequenceRepeatsKeys(t *testing.T) {
	// Sequences of single-key mappings are how scripts repeat the same
	// condition, which a plain mapping cannot express.
	node, err := ParseYAML([]byte("- owns: london\n- owns: paris\n"))
	if err != nil {
		t.Fatal(err)
	}
	entries, err := node.ExpectEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Key != "owns" {
			t.Fatalf("unexpected key %q", e.Key)
		}
	}
}

func TestParseYAMLRejectsScalarSequenceItems(t *testing.T) {
	if _, err := ParseYAML([]byte("- just_a_string\n")); err == nil {
		t.Fatal("scalar sequence items should be rejected")
	}
}

func TestExpectBoolAcceptsScriptSpellings(t *testing.T) {
	for _, s := range []string{"yes", "Yes", "true"} {
		v, err := ScalarNode(s).ExpectBool()
		if err != nil || !v {
			t.Fatalf("%q: got %v, %v", s, v, err)
		}
	}
	for _, s := range []string{"no", "false"} {
		v, err := ScalarNode(s).ExpectBool()
		if err != nil || v {
			t.Fatalf("%q: got %v, %v", s, v, err)
		}
	}
	if _, err := ScalarNode("maybe").ExpectBool(); err == nil {
		t.Fatal("non-boolean literal should error")
	}
}
