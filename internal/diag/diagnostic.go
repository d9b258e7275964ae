package diag

import (
	"durian/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one finding. The message is derived from Descriptor and Args
// on demand; Severity starts as the descriptor's and may be escalated by the
// driver (warnings-as-errors).
type Diagnostic struct {
	Descriptor *Descriptor
	Args       []string
	Severity   Severity
	Primary    source.Span
	Notes      []Note
	Fixes      []Fix
}

func (d Diagnostic) Code() Code {
	if d.Descriptor == nil {
		return UnknownCode
	}
	return d.Descriptor.Code
}

func (d Diagnostic) Message() string {
	return d.Descriptor.Message(d.Args)
}
