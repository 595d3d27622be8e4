package classfile

import "github.com/classgraph/classgraph/pkg/utils"

// ConstantKind identifies which field of Constant holds the coerced value.
type ConstantKind int

const (
	KindString ConstantKind = iota
	KindBool
	KindInt8
	KindInt16
	KindChar
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
)

// Constant is a typed static final field value, coerced from its
// constant-pool entry by the ConstantValue attribute's target descriptor.
// Exactly one of the value fields is meaningful, selected by Kind.
type Constant struct {
	Kind ConstantKind

	Str     string
	Bool    bool
	Int8    int8
	Int16   int16
	Char    uint16
	Int32   int32
	Int64   int64
	Float32 float32
	Float64 float64
}

// LogEntry is one deferred log line produced while parsing a single
// classfile. Parser instances never write through a Logger directly;
// instead every discard, mismatch, or coercion failure is appended here and
// flushed by the linker in record order, so concurrent parsing never
// interleaves log lines from different classfiles.
type LogEntry struct {
	Level   utils.LogLevel
	Message string
}

// Record is the Unlinked Class Record: everything one classfile parse
// contributes to the class graph, before the linker has cross-referenced it
// against any other class. Every name field is interned.
type Record struct {
	ClassName      string
	IsInterface    bool
	IsAnnotation   bool
	SuperclassName string // empty if none, filtered out, or java.lang.Object

	ImplementedInterfaces []string
	Annotations           []string
	FieldTypes            map[string]struct{}

	StaticFinalFieldValues map[string]Constant
}

// NewRecord creates an empty record for the given (already interned) class
// name.
func NewRecord(className string) *Record {
	return &Record{
		ClassName:              className,
		StaticFinalFieldValues: make(map[string]Constant),
	}
}

func (r *Record) addFieldType(name string) {
	if r.FieldTypes == nil {
		r.FieldTypes = make(map[string]struct{})
	}
	r.FieldTypes[name] = struct{}{}
}

// ParseResult is what Parse always returns: a Record on success, or nil if
// the classfile was skipped (path/name mismatch, or the class is
// java.lang.Object itself) or discarded after a structural parse error.
// Log holds any deferred log entries (it is empty for a clean parse) and
// must still be flushed in order.
type ParseResult struct {
	Record *Record
	Log    []LogEntry
}
