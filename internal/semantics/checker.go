// internal/semantics/checker.go
package semantics

import (
	"fmt"
	"minijava/internal/errors"
	"minijava/internal/parser"
	"strings"
)

// SymbolTable maps a declared variable name to its type name. The
// language has a single scope and a single type, so one flat map is
// the whole story; nothing here nests.
type SymbolTable map[string]string

// Checker enforces the two declaration rules over a parsed tree: no
// name is declared twice, and no name is used without a declaration.
// It fails on the first violation in depth-first order and never
// rewrites the tree.
type Checker struct {
	file        string
	sourceLines []string
	table       SymbolTable
}

func NewChecker() *Checker {
	return &Checker{}
}

func NewCheckerWithSource(source string, file string) *Checker {
	return &Checker{
		file:        file,
		sourceLines: strings.Split(source, "\n"),
	}
}

// Check validates prog and returns it unchanged on success.
func (c *Checker) Check(prog *parser.Node) (*parser.Node, error) {
	c.table = make(SymbolTable)
	if err := c.walk(prog); err != nil {
		return nil, err
	}
	return prog, nil
}

// Table exposes the symbol table built by the last Check.
func (c *Checker) Table() SymbolTable {
	return c.table
}

func (c *Checker) walk(n *parser.Node) error {
	switch n.Kind {
	case parser.NodeVarDecl:
		for _, id := range n.Children {
			if _, exists := c.table[id.Value]; exists {
				return c.errorAt(errors.DuplicateDeclaration, id,
					"variable '%s' is already declared", id.Value)
			}
			c.table[id.Value] = n.Value
		}
		return nil
	case parser.NodeIdent:
		// Reached for every use: assignment targets and factors alike.
		if _, exists := c.table[n.Value]; !exists {
			return c.errorAt(errors.UndeclaredVariable, n,
				"variable '%s' is not declared", n.Value)
		}
		return nil
	default:
		for _, child := range n.Children {
			if err := c.walk(child); err != nil {
				return err
			}
		}
		return nil
	}
}

func (c *Checker) errorAt(kind errors.Kind, n *parser.Node, format string, args ...interface{}) error {
	err := errors.New(kind, fmt.Sprintf(format, args...), c.file, n.Line, n.Col)
	if c.sourceLines != nil && n.Line > 0 && n.Line <= len(c.sourceLines) {
		err = err.WithSource(c.sourceLines[n.Line-1])
	}
	return err
}
