package member

// Kind tags the variant held by a MemberData.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindField
	KindMethod
	KindType
	KindEvent
	KindDelegate
)

func (k Kind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindMethod:
		return "method"
	case KindType:
		return "type"
	case KindEvent:
		return "event"
	case KindDelegate:
		return "delegate"
	}
	return "unknown"
}

// TypeLike reports whether members of kind k declare a type.
func (k Kind) TypeLike() bool {
	return k == KindType || k == KindDelegate
}
