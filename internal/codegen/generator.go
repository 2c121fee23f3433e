// internal/codegen/generator.go
package codegen

import (
	"fmt"
	"minijava/internal/bytecode"
	"minijava/internal/errors"
	"minijava/internal/parser"
	"strconv"
)

// Generator turns a checked tree into object code in two scans. The
// reservation scan collects every distinct variable name in
// first-encounter order and emits one ALLOC per name to size machine
// memory. The emission scan then walks statements in program order;
// addresses are assigned lazily, the first time a name is emitted
// against, so a name that is declared but never touched consumes a
// cell without ever binding an address.
//
// Branch operands are symbolic label names, resolved at machine load.
// Label identity is a counter scoped to one Generate call; each label
// is placed exactly once.
type Generator struct {
	prog      *bytecode.Program
	addresses map[string]int
	labels    int
}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate emits the whole object program: INIT, one ALLOC per
// distinct variable, the translated main body, HALT.
func (g *Generator) Generate(prog *parser.Node) (*bytecode.Program, error) {
	if prog == nil || prog.Kind != parser.NodeProgram || len(prog.Children) != 1 {
		return nil, errors.New(errors.GenerationError,
			"malformed tree: expected a Program root", "", 0, 0)
	}
	g.prog = bytecode.NewProgram()
	g.addresses = make(map[string]int)
	g.labels = 0

	g.prog.Emit(bytecode.OpInit)
	for range collectVariables(prog) {
		g.prog.EmitOperand(bytecode.OpAlloc, "1")
	}
	if err := g.block(prog.Children[0]); err != nil {
		return nil, err
	}
	g.prog.Emit(bytecode.OpHalt)
	return g.prog, nil
}

// collectVariables returns every distinct variable name in the tree,
// in first-encounter order: declarations, assignment targets and
// factor uses all count.
func collectVariables(root *parser.Node) []string {
	var names []string
	seen := map[string]bool{}
	var walk func(*parser.Node)
	walk = func(n *parser.Node) {
		if n.Kind == parser.NodeIdent {
			if !seen[n.Value] {
				seen[n.Value] = true
				names = append(names, n.Value)
			}
			return
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(root)
	return names
}

// address assigns addr cells lazily in emission order.
func (g *Generator) address(name string) string {
	addr, ok := g.addresses[name]
	if !ok {
		addr = len(g.addresses)
		g.addresses[name] = addr
	}
	return strconv.Itoa(addr)
}

func (g *Generator) freshLabel() string {
	name := fmt.Sprintf("L%d", g.labels)
	g.labels++
	return name
}

func (g *Generator) block(b *parser.Node) error {
	for _, stmt := range b.Children {
		if err := g.statement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) statement(n *parser.Node) error {
	switch n.Kind {
	case parser.NodeVarDecl:
		// Memory for declarations is already reserved; emission skips
		// them entirely.
		return nil

	case parser.NodeAssign:
		target, value := n.Children[0], n.Children[1]
		if value.Kind == parser.NodeReadCall {
			g.prog.Emit(bytecode.OpRead)
		} else if err := g.expression(value); err != nil {
			return err
		}
		g.prog.EmitOperand(bytecode.OpStore, g.address(target.Value))
		return nil

	case parser.NodePrint:
		if err := g.expression(n.Children[0]); err != nil {
			return err
		}
		g.prog.Emit(bytecode.OpPrint)
		return nil

	case parser.NodeIf:
		if err := g.condition(n.Children[0]); err != nil {
			return err
		}
		l1 := g.freshLabel()
		g.prog.EmitOperand(bytecode.OpJumpIfFalse, l1)
		if err := g.block(n.Children[1]); err != nil {
			return err
		}
		if len(n.Children[2].Children) > 0 {
			l2 := g.freshLabel()
			g.prog.EmitOperand(bytecode.OpJump, l2)
			g.prog.Mark(l1)
			if err := g.block(n.Children[2]); err != nil {
				return err
			}
			g.prog.Mark(l2)
		} else {
			g.prog.Mark(l1)
		}
		return nil

	case parser.NodeWhile:
		l0 := g.freshLabel()
		g.prog.Mark(l0)
		if err := g.condition(n.Children[0]); err != nil {
			return err
		}
		l1 := g.freshLabel()
		g.prog.EmitOperand(bytecode.OpJumpIfFalse, l1)
		if err := g.block(n.Children[1]); err != nil {
			return err
		}
		g.prog.EmitOperand(bytecode.OpJump, l0)
		g.prog.Mark(l1)
		return nil
	}
	return g.errorAt(n, "unexpected %s node in statement position", n.Kind)
}

var relationOps = map[string]bytecode.Op{
	">":  bytecode.OpCmpGT,
	"<":  bytecode.OpCmpLT,
	"==": bytecode.OpCmpEQ,
	"!=": bytecode.OpCmpNE,
	">=": bytecode.OpCmpGE,
	"<=": bytecode.OpCmpLE,
}

// condition emits left, right, then exactly one comparison opcode.
// The six relations map to six distinct opcodes.
func (g *Generator) condition(n *parser.Node) error {
	if err := g.expression(n.Children[0]); err != nil {
		return err
	}
	if err := g.expression(n.Children[2]); err != nil {
		return err
	}
	rel := n.Children[1]
	op, ok := relationOps[rel.Value]
	if !ok {
		return g.errorAt(rel, "unknown relational operator '%s'", rel.Value)
	}
	g.prog.Emit(op)
	return nil
}

// expression emits postfix code: operands before operators, left
// before right.
func (g *Generator) expression(n *parser.Node) error {
	if err := g.term(n.Children[0]); err != nil {
		return err
	}
	for i := 1; i < len(n.Children); i += 2 {
		if err := g.term(n.Children[i+1]); err != nil {
			return err
		}
		switch n.Children[i].Value {
		case "+":
			g.prog.Emit(bytecode.OpAdd)
		case "-":
			g.prog.Emit(bytecode.OpSub)
		default:
			return g.errorAt(n.Children[i], "unknown additive operator '%s'", n.Children[i].Value)
		}
	}
	return nil
}

// term negates right after its first factor: -a * b computes (-a) * b.
func (g *Generator) term(n *parser.Node) error {
	if err := g.factor(n.Children[1]); err != nil {
		return err
	}
	if n.Children[0].Value == "-" {
		g.prog.Emit(bytecode.OpNeg)
	}
	for i := 2; i < len(n.Children); i += 2 {
		if err := g.factor(n.Children[i+1]); err != nil {
			return err
		}
		switch n.Children[i].Value {
		case "*":
			g.prog.Emit(bytecode.OpMul)
		case "/":
			g.prog.Emit(bytecode.OpDiv)
		default:
			return g.errorAt(n.Children[i], "unknown multiplicative operator '%s'", n.Children[i].Value)
		}
	}
	return nil
}

func (g *Generator) factor(n *parser.Node) error {
	child := n.Children[0]
	switch child.Kind {
	case parser.NodeIdent:
		g.prog.EmitOperand(bytecode.OpLoad, g.address(child.Value))
		return nil
	case parser.NodeNumber:
		// The literal travels as written; the machine parses it at load
		g.prog.EmitOperand(bytecode.OpPush, child.Value)
		return nil
	case parser.NodeExpr:
		return g.expression(child)
	}
	return g.errorAt(child, "unexpected %s node in factor position", child.Kind)
}

func (g *Generator) errorAt(n *parser.Node, format string, args ...interface{}) error {
	return errors.New(errors.GenerationError, fmt.Sprintf(format, args...), "", n.Line, n.Col)
}
