package bytecode

type Op byte

const (
	OpInit Op = iota
	OpAlloc
	OpPush
	OpLoad
	OpStore
	OpRead
	OpPrint
	OpCmpGT
	OpCmpLT
	OpCmpEQ
	OpCmpNE
	OpCmpGE
	OpCmpLE
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg
	OpJumpIfFalse
	OpJump
	OpHalt
)

// OperandClass says what the operand slot of an opcode holds in the
// object-code text.
type OperandClass byte

const (
	// NoOperand: the mnemonic stands alone on its line
	NoOperand OperandClass = iota
	// CountOperand: non-negative number of memory cells (ALLOC)
	CountOperand
	// NumberOperand: numeric literal, kept exactly as written (PUSH)
	NumberOperand
	// AddressOperand: non-negative memory address (LOAD, STORE)
	AddressOperand
	// TargetOperand: branch target, a label name or an absolute
	// instruction index (JMP, JMPF)
	TargetOperand
)

var opInfo = map[Op]struct {
	Name    string
	Operand OperandClass
}{
	OpInit:        {"INIT", NoOperand},
	OpAlloc:       {"ALLOC", CountOperand},
	OpPush:        {"PUSH", NumberOperand},
	OpLoad:        {"LOAD", AddressOperand},
	OpStore:       {"STORE", AddressOperand},
	OpRead:        {"READ", NoOperand},
	OpPrint:       {"PRINT", NoOperand},
	OpCmpGT:       {"CMPGT", NoOperand},
	OpCmpLT:       {"CMPLT", NoOperand},
	OpCmpEQ:       {"CMPEQ", NoOperand},
	OpCmpNE:       {"CMPNE", NoOperand},
	OpCmpGE:       {"CMPGE", NoOperand},
	OpCmpLE:       {"CMPLE", NoOperand},
	OpAdd:         {"ADD", NoOperand},
	OpSub:         {"SUB", NoOperand},
	OpMul:         {"MUL", NoOperand},
	OpDiv:         {"DIV", NoOperand},
	OpNeg:         {"NEG", NoOperand},
	OpJumpIfFalse: {"JMPF", TargetOperand},
	OpJump:        {"JMP", TargetOperand},
	OpHalt:        {"HALT", NoOperand},
}

var opsByMnemonic = map[string]Op{}

func init() {
	for op, info := range opInfo {
		opsByMnemonic[info.Name] = op
	}
}

func (op Op) String() string {
	if info, ok := opInfo[op]; ok {
		return info.Name
	}
	return "???"
}

// OperandClass reports what kind of operand op takes.
func (op Op) OperandClass() OperandClass {
	return opInfo[op].Operand
}

// OpForMnemonic resolves object-code text back to an opcode.
func OpForMnemonic(name string) (Op, bool) {
	op, ok := opsByMnemonic[name]
	return op, ok
}
