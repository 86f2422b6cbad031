package diag

import (
	"errors"
	"fmt"
)

// ErrInternal marks failures caused by a compiler defect rather than by the
// user's declarations.
var ErrInternal = errors.New("internal compiler error")

// Fault is the panic payload for invariant violations. Stages raise it with
// Faultf; the pipeline driver recovers it and turns it into an error.
type Fault struct {
	Stage string
	Msg   string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInternal, f.Stage, f.Msg)
}

func (f *Fault) Unwrap() error { return ErrInternal }

// Faultf panics with a *Fault.
func Faultf(stage, format string, args ...any) {
	panic(&Fault{Stage: stage, Msg: fmt.Sprintf(format, args...)})
}

// Recover converts a recovered *Fault into an error; other panics are re-raised.
//
//	defer diag.Recover(&err)
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if f, ok := r.(*Fault); ok {
		*errp = f
		return
	}
	panic(r)
}
