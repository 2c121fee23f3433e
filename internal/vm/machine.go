// internal/vm/machine.go
package vm

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"minijava/internal/bytecode"
	"minijava/internal/errors"
	"os"
	"strconv"
)

// instr is the executable form of one instruction: operand parsed,
// branch target resolved to an absolute index.
type instr struct {
	op   bytecode.Op
	num  float64 // PUSH literal
	addr int     // ALLOC count, LOAD/STORE address, branch target
}

// Machine executes one loaded program over a LIFO operand stack and a
// flat numeric memory that grows only by ALLOC. A Machine is
// single-run: load a fresh one per execution and do not share it.
type Machine struct {
	code   []instr
	source []bytecode.Instruction // original text form, for tracing
	stack  []float64
	memory []float64
	pc     int
	in     *bufio.Scanner

	Input  io.Reader // READ consumes one whitespace-delimited numeric token per call
	Output io.Writer // PRINT writes one value per line
	Trace  io.Writer // optional per-step narration: pc, instruction, stack
	Diag   io.Writer // fault reports that do not stop the run (division by zero)
}

// Load resolves the program into executable form: it builds the label
// map from the marks (the map is the single authority on label
// addresses), rewrites every branch operand to an absolute index, and
// parses the remaining operands. Nothing executes if Load fails.
func Load(prog *bytecode.Program) (*Machine, error) {
	labels := make(map[string]int, len(prog.Marks))
	for _, mark := range prog.Marks {
		if _, dup := labels[mark.Name]; dup {
			return nil, errors.New(errors.UnresolvedLabel,
				fmt.Sprintf("label '%s' is placed more than once", mark.Name), "", 0, 0)
		}
		labels[mark.Name] = mark.Pos
	}

	code := make([]instr, len(prog.Instructions))
	for i, ins := range prog.Instructions {
		ex := instr{op: ins.Op}
		switch ins.Op.OperandClass() {
		case bytecode.NumberOperand:
			v, err := strconv.ParseFloat(ins.Operand, 64)
			if err != nil {
				return nil, loadError(i, ins, "numeric literal")
			}
			ex.num = v
		case bytecode.CountOperand, bytecode.AddressOperand:
			n, err := strconv.Atoi(ins.Operand)
			if err != nil || n < 0 {
				return nil, loadError(i, ins, "non-negative address")
			}
			ex.addr = n
		case bytecode.TargetOperand:
			// Numeric operands are absolute indices as written; label
			// references resolve through the map.
			if n, err := strconv.Atoi(ins.Operand); err == nil {
				ex.addr = n
			} else if pos, ok := labels[ins.Operand]; ok {
				ex.addr = pos
			} else {
				return nil, errors.New(errors.UnresolvedLabel,
					fmt.Sprintf("instruction %d branches to undefined label '%s'", i, ins.Operand), "", 0, 0)
			}
			// A target of len(code) is legal: it ends the run loop.
			if ex.addr < 0 || ex.addr > len(prog.Instructions) {
				return nil, errors.New(errors.MalformedInstruction,
					fmt.Sprintf("instruction %d branches to %d, outside the program", i, ex.addr), "", 0, 0)
			}
		}
		code[i] = ex
	}

	return &Machine{
		code:   code,
		source: prog.Instructions,
		Input:  os.Stdin,
		Output: os.Stdout,
		Diag:   os.Stderr,
	}, nil
}

func loadError(index int, ins bytecode.Instruction, want string) error {
	return errors.New(errors.MalformedInstruction,
		fmt.Sprintf("instruction %d: operand of %s must be a %s, got '%s'",
			index, ins.Op, want, ins.Operand), "", 0, 0)
}

// Run executes until HALT, the counter leaves the program, or a fault
// stops the machine. Division by zero is the one fault that does not
// stop it: the quotient becomes 0.0, the fault goes to Diag, and the
// run continues.
func (m *Machine) Run() error {
	for m.pc < len(m.code) {
		if m.Trace != nil {
			fmt.Fprintf(m.Trace, "%4d  %-12s %v\n", m.pc, m.source[m.pc], m.stack)
		}
		ins := m.code[m.pc]
		switch ins.op {
		case bytecode.OpInit:
			m.stack = m.stack[:0]

		case bytecode.OpAlloc:
			for i := 0; i < ins.addr; i++ {
				m.memory = append(m.memory, 0)
			}

		case bytecode.OpPush:
			m.push(ins.num)

		case bytecode.OpLoad:
			if ins.addr >= len(m.memory) {
				return m.fault("load from unreserved address %d", ins.addr)
			}
			m.push(m.memory[ins.addr])

		case bytecode.OpStore:
			v, err := m.pop()
			if err != nil {
				return err
			}
			if ins.addr >= len(m.memory) {
				return m.fault("store to unreserved address %d", ins.addr)
			}
			m.memory[ins.addr] = v

		case bytecode.OpRead:
			v, err := m.read()
			if err != nil {
				return err
			}
			m.push(v)

		case bytecode.OpPrint:
			v, err := m.pop()
			if err != nil {
				return err
			}
			fmt.Fprintln(m.Output, formatValue(v))

		case bytecode.OpCmpGT, bytecode.OpCmpLT, bytecode.OpCmpEQ,
			bytecode.OpCmpNE, bytecode.OpCmpGE, bytecode.OpCmpLE:
			a, b, err := m.pop2()
			if err != nil {
				return err
			}
			m.push(boolValue(compare(ins.op, a, b)))

		case bytecode.OpAdd:
			a, b, err := m.pop2()
			if err != nil {
				return err
			}
			m.push(a + b)

		case bytecode.OpSub:
			a, b, err := m.pop2()
			if err != nil {
				return err
			}
			m.push(a - b)

		case bytecode.OpMul:
			a, b, err := m.pop2()
			if err != nil {
				return err
			}
			m.push(a * b)

		case bytecode.OpDiv:
			a, b, err := m.pop2()
			if err != nil {
				return err
			}
			if b == 0 {
				m.report("division by zero")
				m.push(0)
			} else {
				m.push(a / b)
			}

		case bytecode.OpNeg:
			v, err := m.pop()
			if err != nil {
				return err
			}
			m.push(-v)

		case bytecode.OpJumpIfFalse:
			v, err := m.pop()
			if err != nil {
				return err
			}
			if v == 0 {
				m.pc = ins.addr
				continue
			}

		case bytecode.OpJump:
			m.pc = ins.addr
			continue

		case bytecode.OpHalt:
			return nil

		default:
			return m.fault("unhandled opcode %s", ins.op)
		}
		m.pc++
	}
	return nil
}

func compare(op bytecode.Op, a, b float64) bool {
	switch op {
	case bytecode.OpCmpGT:
		return a > b
	case bytecode.OpCmpLT:
		return a < b
	case bytecode.OpCmpEQ:
		return a == b
	case bytecode.OpCmpNE:
		return a != b
	case bytecode.OpCmpGE:
		return a >= b
	case bytecode.OpCmpLE:
		return a <= b
	}
	return false
}

func boolValue(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

func (m *Machine) push(v float64) {
	m.stack = append(m.stack, v)
}

func (m *Machine) pop() (float64, error) {
	if len(m.stack) == 0 {
		return 0, errors.NewFault(m.pc, "stack underflow")
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

// pop2 pops b then a, so a was pushed first.
func (m *Machine) pop2() (a, b float64, err error) {
	b, err = m.pop()
	if err != nil {
		return
	}
	a, err = m.pop()
	return
}

func (m *Machine) read() (float64, error) {
	if m.in == nil {
		m.in = bufio.NewScanner(m.Input)
		m.in.Split(bufio.ScanWords)
	}
	if !m.in.Scan() {
		return 0, errors.NewFault(m.pc, "read past end of input")
	}
	v, err := strconv.ParseFloat(m.in.Text(), 64)
	if err != nil {
		return 0, errors.NewFault(m.pc, "read a non-numeric value '%s'", m.in.Text())
	}
	return v, nil
}

func (m *Machine) fault(format string, args ...interface{}) error {
	return errors.NewFault(m.pc, format, args...)
}

// report surfaces a fault without stopping the run.
func (m *Machine) report(format string, args ...interface{}) {
	if m.Diag != nil {
		fmt.Fprintln(m.Diag, errors.NewFault(m.pc, format, args...).Error())
	}
}

// formatValue renders like the source language prints: integral values
// keep one decimal place (2 prints as 2.0), everything else uses the
// shortest representation that round-trips.
func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
