package back

import (
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/loc"

	"github.com/vrosnet/libfirm/compiler/ir"
)

type (
	// FatalError aborts lowering of a function.
	// It's raised by panic at the fault site and returned from TransformGraph.
	FatalError struct {
		Op   ir.Op
		Node *ir.Node
		Msg  string
		Err  error
		PC   loc.PC
	}
)

var (
	ErrNoTransformer = errors.New("no transformer")
	ErrUnsupported   = errors.New("unsupported")
	ErrInternal      = errors.New("internal error")
)

// Fatalf aborts lowering of the current function because of n.
func Fatalf(n *ir.Node, format string, args ...any) {
	fatal(n, ErrInternal, 2, format, args...)
}

// Unsupportedf aborts lowering because n needs a feature the target lacks.
func Unsupportedf(n *ir.Node, format string, args ...any) {
	fatal(n, ErrUnsupported, 2, format, args...)
}

func fatal(n *ir.Node, err error, skip int, format string, args ...any) {
	e := &FatalError{
		Msg: fmt.Sprintf(format, args...),
		Err: err,
		PC:  loc.Caller(skip),
	}

	if n != nil {
		e.Op = n.Op
		e.Node = n
	}

	panic(e)
}

func (e *FatalError) Error() string {
	if e.Node == nil {
		return e.Msg
	}

	return fmt.Sprintf("%v: %v (node %v, op %v, at %v)", e.Err, e.Msg, e.Node, e.Op, e.PC)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Recover turns a FatalError panic into err.
// It must be deferred. Other panics are propagated.
func Recover(err *error) {
	p := recover()
	if p == nil {
		return
	}

	fe, ok := p.(*FatalError)
	if !ok {
		panic(p)
	}

	*err = fe
}
