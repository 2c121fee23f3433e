// internal/errors/fault.go
package errors

import "fmt"

// Fault is a failure raised by the running machine. Unlike a
// Diagnostic it has no source location; the program counter of the
// faulting instruction is the only position that exists at run time.
type Fault struct {
	Message string
	PC      int
}

// Error implements the error interface
func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s (pc=%d)", RuntimeFault, f.Message, f.PC)
}

// NewFault creates a runtime fault at the given program counter
func NewFault(pc int, format string, args ...interface{}) *Fault {
	return &Fault{
		Message: fmt.Sprintf(format, args...),
		PC:      pc,
	}
}
