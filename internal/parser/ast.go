package parser

import "strings"

// NodeKind tags every construct the grammar can produce. The tree is
// one closed variant: consumers switch on Kind instead of implementing
// a visitor interface per construct.
type NodeKind string

const (
	// Program: Value is the class name; one Block child
	NodeProgram NodeKind = "Program"
	// Block: statement sequence in source order
	NodeBlock NodeKind = "Block"
	// VarDecl: Value is the type name ("double"); children are the declared Idents
	NodeVarDecl NodeKind = "VarDecl"
	// If: children are [Condition, Block, Block]; the else Block is empty when absent
	NodeIf NodeKind = "If"
	// While: children are [Condition, Block]
	NodeWhile NodeKind = "While"
	// Print: children are [Expression]
	NodePrint NodeKind = "Print"
	// Assign: children are [Ident, Expression or ReadCall]
	NodeAssign NodeKind = "Assign"
	// Condition: children are [Expression, Relation, Expression]
	NodeCondition NodeKind = "Condition"
	// Relation: Value is one of == != > >= < <=
	NodeRelation NodeKind = "Relation"
	// Expression: children are Term (AddOp Term)*, left-associative
	NodeExpr NodeKind = "Expression"
	// Term: children are UnaryOp Factor (MulOp Factor)*
	NodeTerm NodeKind = "Term"
	// Factor: one child: Ident, Number, or a parenthesized Expression
	NodeFactor NodeKind = "Factor"
	// UnaryOp: Value is "-" or "" (always present as a Term's first child)
	NodeUnaryOp NodeKind = "UnaryOp"
	// AddOp: Value is "+" or "-"
	NodeAddOp NodeKind = "AddOp"
	// MulOp: Value is "*" or "/"
	NodeMulOp NodeKind = "MulOp"
	// Ident: Value is the identifier name
	NodeIdent NodeKind = "Ident"
	// Number: Value is the literal text as written
	NodeNumber NodeKind = "Number"
	// ReadCall: lerDouble()
	NodeReadCall NodeKind = "ReadCall"
)

// Node is one vertex of the syntax tree. Children are exclusively
// owned by their parent; the grammar cannot produce cycles.
type Node struct {
	Kind     NodeKind
	Value    string
	Line     int
	Col      int
	Children []*Node
}

func NewNode(kind NodeKind, value string, line, col int, children ...*Node) *Node {
	return &Node{
		Kind:     kind,
		Value:    value,
		Line:     line,
		Col:      col,
		Children: children,
	}
}

// String renders the subtree as a single s-expression, positions
// omitted. Meant for test failures and debug dumps.
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	sb.WriteString("(")
	sb.WriteString(string(n.Kind))
	if n.Value != "" {
		sb.WriteString(" ")
		sb.WriteString(n.Value)
	}
	for _, c := range n.Children {
		sb.WriteString(" ")
		c.write(sb)
	}
	sb.WriteString(")")
}
