package diag

import (
	"fmt"
	"sort"
	"sync"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Core pipeline (1-99)
	CoreTargetNotPartial    Code = 1
	CoreContainerNotPartial Code = 2
	CoreMissingModifier     Code = 3
	CoreReservedMarker      Code = 4
	CoreStaticMethod        Code = 5
	CoreMalformedDirective  Code = 6

	// DefaultParam (100-199)
	DefaultParamInvalidValue    Code = 101
	DefaultParamUnknownParam    Code = 102
	DefaultParamNotTrailing     Code = 103
	DefaultParamVariadic        Code = 104
	DefaultParamUnknownField    Code = 105
	DefaultParamNotStruct       Code = 106
	DefaultParamNameCollision   Code = 107
	DefaultParamNoDefaults      Code = 108
	DefaultParamGenericReceiver Code = 109

	// Getter (200-299)
	GetterExportedField    Code = 201
	GetterNameCollision    Code = 202
	GetterAnonymousStruct  Code = 203
	GetterBlankField       Code = 204
	GetterEmbeddedField    Code = 205

	// Loading and IO (900-999)
	IOLoadPackage  Code = 901
	IOTypeCheck    Code = 902
	IOWriteOutput  Code = 903
	IOCacheCorrupt Code = 904
)

// Category groups descriptors in output and logs.
const (
	CategoryCore         = "Durian.Core"
	CategoryDefaultParam = "Durian.DefaultParam"
	CategoryGetter       = "Durian.Getter"
	CategoryIO           = "Durian.IO"
)

// Descriptor is the stable description of one diagnostic kind. Producers
// select a descriptor and supply arguments; the text is only formatted when
// a consumer asks for the message.
type Descriptor struct {
	Code     Code
	Title    string
	Format   string
	Severity Severity
	Category string
}

func (d *Descriptor) ID() string {
	if d == nil {
		return UnknownCode.ID()
	}
	return d.Code.ID()
}

// Format renders the descriptor message with args.
func (d *Descriptor) Message(args []string) string {
	if d == nil {
		return ""
	}
	if len(args) == 0 {
		return d.Format
	}
	vals := make([]any, len(args))
	for i, a := range args {
		vals[i] = a
	}
	return fmt.Sprintf(d.Format, vals...)
}

var (
	registryMu sync.RWMutex
	registry   = map[Code]*Descriptor{}
)

// Register records d so it can be found by code, e.g. when diagnostics are
// restored from the disk cache. Registering a code twice panics.
func Register(d *Descriptor) *Descriptor {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[d.Code]; dup {
		panic(fmt.Sprintf("diag: duplicate descriptor %s", d.Code.ID()))
	}
	registry[d.Code] = d
	return d
}

// Lookup returns the registered descriptor for c.
func Lookup(c Code) (*Descriptor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[c]
	return d, ok
}

// Descriptors returns every registered descriptor ordered by code.
func Descriptors() []*Descriptor {
	registryMu.RLock()
	out := make([]*Descriptor, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	registryMu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

var (
	TargetNotPartial = Register(&Descriptor{
		Code:     CoreTargetNotPartial,
		Title:    "target must be partial",
		Format:   "%s must be marked //durian:partial to receive generated members",
		Severity: SevError,
		Category: CategoryCore,
	})
	ContainerNotPartial = Register(&Descriptor{
		Code:     CoreContainerNotPartial,
		Title:    "containing type must be partial",
		Format:   "containing type %s of %s must be marked //durian:partial",
		Severity: SevError,
		Category: CategoryCore,
	})
	MissingModifier = Register(&Descriptor{
		Code:     CoreMissingModifier,
		Title:    "directive requires a modifier",
		Format:   "//durian:%s on %s requires the //durian:%s modifier",
		Severity: SevError,
		Category: CategoryCore,
	})
	ReservedMarker = Register(&Descriptor{
		Code:     CoreReservedMarker,
		Title:    "reserved marker used in user code",
		Format:   "%s carries //durian:generated, which is reserved for generated code",
		Severity: SevError,
		Category: CategoryCore,
	})
	StaticMethod = Register(&Descriptor{
		Code:     CoreStaticMethod,
		Title:    "method must not be static",
		Format:   "//durian:%s requires %s to be a method with a receiver",
		Severity: SevError,
		Category: CategoryCore,
	})
	MalformedDirective = Register(&Descriptor{
		Code:     CoreMalformedDirective,
		Title:    "malformed durian directive",
		Format:   "malformed directive %q: %s",
		Severity: SevWarning,
		Category: CategoryCore,
	})

	LoadPackageFailed = Register(&Descriptor{
		Code:     IOLoadPackage,
		Title:    "package could not be loaded",
		Format:   "%s",
		Severity: SevError,
		Category: CategoryIO,
	})
	TypeCheckFailed = Register(&Descriptor{
		Code:     IOTypeCheck,
		Title:    "type checking failed",
		Format:   "%s",
		Severity: SevWarning,
		Category: CategoryIO,
	})
	WriteOutputFailed = Register(&Descriptor{
		Code:     IOWriteOutput,
		Title:    "generated file could not be written",
		Format:   "cannot write %s: %s",
		Severity: SevError,
		Category: CategoryIO,
	})
	CacheCorrupt = Register(&Descriptor{
		Code:     IOCacheCorrupt,
		Title:    "disk cache entry is unreadable",
		Format:   "ignoring disk cache entry for %s: %s",
		Severity: SevInfo,
		Category: CategoryIO,
	})
)

func (c Code) ID() string {
	return fmt.Sprintf("DUR%04d", int(c))
}

func (c Code) Title() string {
	if d, ok := Lookup(c); ok {
		return d.Title
	}
	return "unknown diagnostic"
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
