package semantics

import (
	"minijava/internal/errors"
	"minijava/internal/lexer"
	"minijava/internal/parser"
	"testing"
)

// Test helper to lex, parse and check a main body
func checkBody(t *testing.T, body string) error {
	t.Helper()
	input := "public class Test {\npublic static void main(String[] args) {\n" +
		body + "\n}\n}"
	tokens, err := lexer.NewScanner(input, "test.java").ScanTokens()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	prog, err := parser.NewParserWithSource(tokens, input, "test.java").Parse()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = NewCheckerWithSource(input, "test.java").Check(prog)
	return err
}

func assertCheckFails(t *testing.T, body string, kind errors.Kind) *errors.Diagnostic {
	t.Helper()
	err := checkBody(t, body)
	if err == nil {
		t.Fatal("expected check to fail but it succeeded")
	}
	d, ok := err.(*errors.Diagnostic)
	if !ok {
		t.Fatalf("error is %T, want *errors.Diagnostic", err)
	}
	if d.Kind != kind {
		t.Fatalf("error kind = %s, want %s", d.Kind, kind)
	}
	return d
}

// ===== Valid Program Tests =====

func TestValidPrograms(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"declare then assign", "double x; x = 1;"},
		{"declare then read", "double x; x = lerDouble();"},
		{"multi declaration", "double a, b; a = 1; b = a;"},
		{"use in print", "double x; x = 2; System.out.println(x * x);"},
		{"use in condition", "double a, b; a = 1; b = 2; if (a < b) { a = b; }"},
		{"use in while body", "double i; i = 0; while (i < 3) { i = i + 1; }"},
		{"declaration between statements", "double a; a = 1; double b; b = a + 1;"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := checkBody(t, test.body); err != nil {
				t.Errorf("check failed: %v", err)
			}
		})
	}
}

// ===== Duplicate Declaration Tests =====

func TestDuplicateDeclarations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"duplicate across decls", "double x; double x;"},
		{"duplicate within one decl", "double x, x;"},
		{"duplicate after others", "double a, b; double c, a;"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assertCheckFails(t, test.body, errors.DuplicateDeclaration)
		})
	}
}

func TestDuplicateDeclarationPosition(t *testing.T) {
	// body lands on line 3 of the wrapped source
	d := assertCheckFails(t, "double x; double x;", errors.DuplicateDeclaration)
	if d.Location.Line != 3 || d.Location.Column != 18 {
		t.Errorf("error at %d:%d, want 3:18", d.Location.Line, d.Location.Column)
	}
}

// ===== Undeclared Variable Tests =====

func TestUndeclaredVariables(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"assign target", "x = 1;"},
		{"read target", "x = lerDouble();"},
		{"use in expression", "double x; x = y;"},
		{"use in print", "System.out.println(x);"},
		{"use in condition left", "double b; b = 1; if (a < b) { b = 2; }"},
		{"use in condition right", "double a; a = 1; if (a < b) { a = 2; }"},
		{"use inside nested block", "double i; i = 0; while (i < 3) { j = i; }"},
		{"use before declaration", "x = 1; double x;"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assertCheckFails(t, test.body, errors.UndeclaredVariable)
		})
	}
}

func TestFirstViolationWins(t *testing.T) {
	// Both an undeclared use and a duplicate declaration are present;
	// the use comes first in tree order.
	d := assertCheckFails(t, "y = 1; double x; double x;", errors.UndeclaredVariable)
	if d.Location.Line != 3 {
		t.Errorf("error at line %d, want 3", d.Location.Line)
	}
}

// ===== Symbol Table Tests =====

func TestTableHoldsDeclaredNames(t *testing.T) {
	input := "public class Test {\npublic static void main(String[] args) {\n" +
		"double a, b; double c; a = 1; b = 2; c = 3;\n}\n}"
	tokens, err := lexer.NewScanner(input, "test.java").ScanTokens()
	if err != nil {
		t.Fatal(err)
	}
	prog, err := parser.NewParser(tokens).Parse()
	if err != nil {
		t.Fatal(err)
	}
	checker := NewChecker()
	if _, err := checker.Check(prog); err != nil {
		t.Fatal(err)
	}

	table := checker.Table()
	if len(table) != 3 {
		t.Fatalf("table has %d entries, want 3: %v", len(table), table)
	}
	for _, name := range []string{"a", "b", "c"} {
		if table[name] != "double" {
			t.Errorf("table[%q] = %q, want %q", name, table[name], "double")
		}
	}
}

func TestCheckReturnsTreeUnchanged(t *testing.T) {
	input := "public class Test {\npublic static void main(String[] args) {\n" +
		"double x; x = 1;\n}\n}"
	tokens, _ := lexer.NewScanner(input, "test.java").ScanTokens()
	prog, err := parser.NewParser(tokens).Parse()
	if err != nil {
		t.Fatal(err)
	}
	before := prog.String()
	checked, err := NewChecker().Check(prog)
	if err != nil {
		t.Fatal(err)
	}
	if checked != prog {
		t.Error("checker should return the same tree it was given")
	}
	if checked.String() != before {
		t.Error("checker must not rewrite the tree")
	}
}
