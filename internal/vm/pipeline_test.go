package vm

import (
	"bytes"
	"fmt"
	"minijava/internal/bytecode"
	"minijava/internal/codegen"
	"minijava/internal/lexer"
	"minijava/internal/parser"
	"minijava/internal/semantics"
	"strings"
	"testing"
)

// compileAndRun drives the whole pipeline: source text through the
// scanner, parser, checker and generator, the object code through its
// text encoding and back, then a loaded machine over the given input.
func compileAndRun(t *testing.T, body string, input string) string {
	t.Helper()
	source := "public class Test {\npublic static void main(String[] args) {\n" +
		body + "\n}\n}"
	tokens, err := lexer.NewScanner(source, "test.java").ScanTokens()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	tree, err := parser.NewParser(tokens).Parse()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	checked, err := semantics.NewChecker().Check(tree)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	generated, err := codegen.NewGenerator().Generate(checked)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	// Round-trip through the on-disk format, as the CLI does.
	prog, err := bytecode.Parse(generated.Encode(), "test.obj")
	if err != nil {
		t.Fatalf("generated object code did not parse back: %v", err)
	}
	m, err := Load(prog)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	var out bytes.Buffer
	m.Input = strings.NewReader(input)
	m.Output = &out
	m.Diag = &bytes.Buffer{}
	if err := m.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return out.String()
}

// ===== End To End Tests =====

func TestBranchPicksTheRightArm(t *testing.T) {
	program := `double a, b, x;
a = %s;
b = %s;
if (a > b) { x = 1.0; } else { x = 2.0; }
System.out.println(x);`

	tests := []struct {
		name string
		a, b string
		want string
	}{
		{"then arm", "5.0", "3.0", "1.0\n"},
		{"else arm", "3.0", "5.0", "2.0\n"},
		{"equal takes else", "3.0", "3.0", "2.0\n"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			body := fmt.Sprintf(program, test.a, test.b)
			if got := compileAndRun(t, body, ""); got != test.want {
				t.Errorf("output = %q, want %q", got, test.want)
			}
		})
	}
}

func TestWhileCountsUp(t *testing.T) {
	body := `double i;
i = 0.0;
while (i < 3.0) {
  System.out.println(i);
  i = i + 1.0;
}`
	if got := compileAndRun(t, body, ""); got != "0.0\n1.0\n2.0\n" {
		t.Errorf("output = %q, want %q", got, "0.0\n1.0\n2.0\n")
	}
}

func TestReadFeedsComputation(t *testing.T) {
	body := `double celsius, fahrenheit;
celsius = lerDouble();
fahrenheit = celsius * 9.0 / 5.0 + 32.0;
System.out.println(fahrenheit);`
	if got := compileAndRun(t, body, "100\n"); got != "212.0\n" {
		t.Errorf("output = %q, want %q", got, "212.0\n")
	}
}

func TestPrecedenceSurvivesTheTrip(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"mul binds tighter", "2.0 + 3.0 * 4.0", "14.0\n"},
		{"parens override", "(2.0 + 3.0) * 4.0", "20.0\n"},
		{"left associative subtraction", "10.0 - 4.0 - 3.0", "3.0\n"},
		{"left associative division", "24.0 / 4.0 / 2.0", "3.0\n"},
		{"unary minus on first factor", "-2.0 * 3.0", "-6.0\n"},
		{"unary minus then addition", "-2.0 + 5.0", "3.0\n"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			body := "System.out.println(" + test.expr + ");"
			if got := compileAndRun(t, body, ""); got != test.want {
				t.Errorf("output = %q, want %q", got, test.want)
			}
		})
	}
}

func TestNestedLoopsMultiply(t *testing.T) {
	body := `double i, j, count;
count = 0.0;
i = 0.0;
while (i < 3.0) {
  j = 0.0;
  while (j < 4.0) {
    count = count + 1.0;
    j = j + 1.0;
  }
  i = i + 1.0;
}
System.out.println(count);`
	if got := compileAndRun(t, body, ""); got != "12.0\n" {
		t.Errorf("output = %q, want %q", got, "12.0\n")
	}
}

func TestAverageOfThreeReads(t *testing.T) {
	body := `double a, b, c;
a = lerDouble();
b = lerDouble();
c = lerDouble();
System.out.println((a + b + c) / 3.0);`
	if got := compileAndRun(t, body, "4 7 10\n"); got != "7.0\n" {
		t.Errorf("output = %q, want %q", got, "7.0\n")
	}
}

func TestDeclarationsAloneEmitNoWork(t *testing.T) {
	body := `double a, b, c;
System.out.println(1.0);`
	if got := compileAndRun(t, body, ""); got != "1.0\n" {
		t.Errorf("output = %q, want %q", got, "1.0\n")
	}
}

func TestGuardReusesUpdatedVariable(t *testing.T) {
	// The loop guard must reload the variable each iteration, not a
	// stale copy from the first evaluation.
	body := `double n;
n = lerDouble();
while (n != 1.0) {
  System.out.println(n);
  n = n - 1.0;
}
System.out.println(n);`
	if got := compileAndRun(t, body, "3\n"); got != "3.0\n2.0\n1.0\n" {
		t.Errorf("output = %q, want %q", got, "3.0\n2.0\n1.0\n")
	}
}
