package bridge

import (
	"fmt"
	"strconv"
	"strings"
)

// ArgKind classifies an inbound argument.
type ArgKind int

// Argument kinds.
const (
	KindOther ArgKind = iota
	KindNumber
	KindString
	KindBool
)

// String returns the kind name used in logs.
func (k ArgKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "other"
	}
}

// Arg is one typed inbound argument. All OSC numeric types are carried as
// float64 in Num.
type Arg struct {
	Kind ArgKind
	Num  float64
	Str  string
	Bool bool
}

// String formats the argument for logs and records.
func (a Arg) String() string {
	switch a.Kind {
	case KindNumber:
		return strconv.FormatFloat(a.Num, 'g', -1, 64)
	case KindString:
		return strconv.Quote(a.Str)
	case KindBool:
		return strconv.FormatBool(a.Bool)
	default:
		return "?"
	}
}

// NewArg converts a decoded OSC or JSON value into an Arg.
func NewArg(v any) Arg {
	switch x := v.(type) {
	case int32:
		return Arg{Kind: KindNumber, Num: float64(x)}
	case int64:
		return Arg{Kind: KindNumber, Num: float64(x)}
	case int:
		return Arg{Kind: KindNumber, Num: float64(x)}
	case float32:
		return Arg{Kind: KindNumber, Num: float64(x)}
	case float64:
		return Arg{Kind: KindNumber, Num: x}
	case string:
		return Arg{Kind: KindString, Str: x}
	case bool:
		return Arg{Kind: KindBool, Bool: x}
	default:
		return Arg{Kind: KindOther}
	}
}

// InboundMessage is one parsed control message.
type InboundMessage struct {
	Address string
	Args    []Arg
}

// NewInboundMessage validates the address and converts raw arguments.
func NewInboundMessage(address string, raw []any) (InboundMessage, error) {
	if address == "" || !strings.HasPrefix(address, "/") {
		return InboundMessage{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	args := make([]Arg, len(raw))
	for i, v := range raw {
		args[i] = NewArg(v)
	}
	return InboundMessage{Address: address, Args: args}, nil
}

// Segments splits the address on "/". Segment 0 is always empty.
func (m InboundMessage) Segments() []string {
	return strings.Split(m.Address, "/")
}

// ArgCount returns the number of arguments after the address.
func (m InboundMessage) ArgCount() int {
	return len(m.Args)
}

// Arg returns argument i.
func (m InboundMessage) Arg(i int) (Arg, bool) {
	if i < 0 || i >= len(m.Args) {
		return Arg{}, false
	}
	return m.Args[i], true
}

// Number returns argument i when it is numeric.
func (m InboundMessage) Number(i int) (float64, bool) {
	a, ok := m.Arg(i)
	if !ok || a.Kind != KindNumber {
		return 0, false
	}
	return a.Num, true
}

// String returns argument i when it is a string.
func (m InboundMessage) String(i int) (string, bool) {
	a, ok := m.Arg(i)
	if !ok || a.Kind != KindString {
		return "", false
	}
	return a.Str, true
}

// ArgsString formats the arguments for logs.
func (m InboundMessage) ArgsString() string {
	parts := make([]string, len(m.Args))
	for i, a := range m.Args {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}

// decodeName turns the underscore-for-space path encoding back into a name.
func decodeName(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}
