package bytecode

import (
	"fmt"
	"minijava/internal/errors"
	"strconv"
	"strings"
)

// Instruction is one machine operation plus its operand as text.
// Operands stay textual until machine load so the object file
// round-trips exactly: "PUSH 10.5" keeps "10.5", "JMPF L0" keeps "L0".
type Instruction struct {
	Op      Op
	Operand string
}

func (i Instruction) String() string {
	if i.Operand != "" {
		return fmt.Sprintf("%s %s", i.Op, i.Operand)
	}
	return i.Op.String()
}

// LabelMark pins a label name to a position in the instruction
// sequence: the index of the instruction the label designates. A mark
// at Pos == len(Instructions) designates the end of the program.
type LabelMark struct {
	Name string
	Pos  int
}

// Program is object code in its boundary form: a marker-free
// instruction sequence plus the label marks that point into it.
type Program struct {
	Instructions []Instruction
	Marks        []LabelMark
}

func NewProgram() *Program {
	return &Program{}
}

// Emit appends an instruction without operand and returns its index.
func (p *Program) Emit(op Op) int {
	p.Instructions = append(p.Instructions, Instruction{Op: op})
	return len(p.Instructions) - 1
}

// EmitOperand appends an instruction with operand and returns its index.
func (p *Program) EmitOperand(op Op, operand string) int {
	p.Instructions = append(p.Instructions, Instruction{Op: op, Operand: operand})
	return len(p.Instructions) - 1
}

// Mark places a label at the next instruction position.
func (p *Program) Mark(name string) {
	p.Marks = append(p.Marks, LabelMark{Name: name, Pos: len(p.Instructions)})
}

func (p *Program) marksByPos() map[int][]string {
	byPos := make(map[int][]string, len(p.Marks))
	for _, m := range p.Marks {
		byPos[m.Pos] = append(byPos[m.Pos], m.Name)
	}
	return byPos
}

// Encode renders the program in the object-code text format: one
// instruction per line, `OPCODE` or `OPCODE OPERAND`, with marker
// lines `NAME:` interleaved at their positions.
func (p *Program) Encode() string {
	var sb strings.Builder
	byPos := p.marksByPos()
	for i, ins := range p.Instructions {
		for _, name := range byPos[i] {
			sb.WriteString(name)
			sb.WriteString(":\n")
		}
		sb.WriteString(ins.String())
		sb.WriteString("\n")
	}
	for _, name := range byPos[len(p.Instructions)] {
		sb.WriteString(name)
		sb.WriteString(":\n")
	}
	return sb.String()
}

// String renders a human-oriented listing with absolute instruction
// indices. Not parseable; use Encode for the file form.
func (p *Program) String() string {
	var sb strings.Builder
	byPos := p.marksByPos()
	for i, ins := range p.Instructions {
		for _, name := range byPos[i] {
			fmt.Fprintf(&sb, "%s:\n", name)
		}
		fmt.Fprintf(&sb, "%4d  %s\n", i, ins)
	}
	for _, name := range byPos[len(p.Instructions)] {
		fmt.Fprintf(&sb, "%s:\n", name)
	}
	return sb.String()
}

// Parse reads object-code text back into a Program. Blank lines are
// tolerated. Unknown opcodes, malformed marker lines and missing,
// surplus or ill-typed operands are MalformedInstruction errors
// carrying the object-file line number.
func Parse(text string, file string) (*Program, error) {
	prog := NewProgram()
	for lineNo, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasSuffix(line, ":") {
			name := strings.TrimSuffix(line, ":")
			if !isLabelName(name) {
				return nil, parseError(file, lineNo+1, raw,
					"invalid label marker '%s'", line)
			}
			prog.Mark(name)
			continue
		}

		fields := strings.Fields(line)
		op, ok := OpForMnemonic(fields[0])
		if !ok {
			return nil, parseError(file, lineNo+1, raw,
				"unknown opcode '%s'", fields[0])
		}
		if len(fields) > 2 {
			return nil, parseError(file, lineNo+1, raw,
				"too many operands for %s", op)
		}
		operand := ""
		if len(fields) == 2 {
			operand = fields[1]
		}
		if problem := operandProblem(op, operand); problem != "" {
			return nil, parseError(file, lineNo+1, raw, "%s", problem)
		}
		if operand != "" {
			prog.EmitOperand(op, operand)
		} else {
			prog.Emit(op)
		}
	}
	return prog, nil
}

func parseError(file string, line int, source string, format string, args ...interface{}) error {
	return errors.New(errors.MalformedInstruction, fmt.Sprintf(format, args...), file, line, 1).
		WithSource(source)
}

// operandProblem validates the text form of an operand against the
// opcode's operand class. It returns "" when the operand is well
// formed.
func operandProblem(op Op, text string) string {
	class := op.OperandClass()
	if class == NoOperand {
		if text != "" {
			return fmt.Sprintf("%s takes no operand", op)
		}
		return ""
	}
	if text == "" {
		return fmt.Sprintf("missing operand for %s", op)
	}
	switch class {
	case CountOperand:
		if !isUint(text) {
			return fmt.Sprintf("%s needs a non-negative cell count, got '%s'", op, text)
		}
	case NumberOperand:
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			return fmt.Sprintf("%s needs a numeric literal, got '%s'", op, text)
		}
	case AddressOperand:
		if !isUint(text) {
			return fmt.Sprintf("%s needs a non-negative memory address, got '%s'", op, text)
		}
	case TargetOperand:
		if !isLabelName(text) && !isUint(text) {
			return fmt.Sprintf("%s needs a label name or instruction index, got '%s'", op, text)
		}
	}
	return ""
}

func isUint(s string) bool {
	_, err := strconv.ParseUint(s, 10, 31)
	return err == nil
}

// isLabelName reports whether s has identifier shape. Purely numeric
// operands are therefore never labels.
func isLabelName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z'):
		case '0' <= c && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
