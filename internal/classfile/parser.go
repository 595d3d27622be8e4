package classfile

import (
	"fmt"
	"io"
	"strings"

	"github.com/classgraph/classgraph/internal/intern"
	"github.com/classgraph/classgraph/pkg/utils"
)

const (
	magic = 0xCAFEBABE

	accPublic     = 0x0001
	accStatic     = 0x0008
	accFinal      = 0x0010
	accInterface  = 0x0200
	accAnnotation = 0x2000
)

// Filter decides whether a dotted class name is in scope for recording as a
// relation target. A nil Filter allows everything.
type Filter func(dottedName string) bool

// Allowed reports whether name passes the filter.
func (f Filter) Allowed(name string) bool {
	if f == nil {
		return true
	}
	return f(name)
}

// FieldsWanted maps a dotted class name to the set of its static final
// field names whose ConstantValue should be captured. A class absent from
// the map (or an empty inner set) has no fields captured.
type FieldsWanted map[string]map[string]struct{}

// ParserOptions configures a Parser. The zero value is usable: non-public
// fields are skipped and logging is discarded.
type ParserOptions struct {
	// IncludeNonPublicFields makes the parser resolve and scan every
	// field's type and attributes, not only public ones.
	IncludeNonPublicFields bool
}

// Parser parses one classfile at a time into an Unlinked Class Record. It
// owns a reusable Reader and ConstantPool so that scanning many classfiles
// back-to-back on the same goroutine does not reallocate per file; a
// Parser must not be shared across goroutines (spec's concurrency model
// gives every parallel worker its own instance with thread-local state).
type Parser struct {
	opts   ParserOptions
	reader *Reader
	pool   *ConstantPool
	intern *intern.Table
}

// NewParser creates a Parser bound to the given intern table.
func NewParser(opts ParserOptions, tbl *intern.Table) *Parser {
	return &Parser{
		opts:   opts,
		reader: NewReader(),
		pool:   NewConstantPool(),
		intern: tbl,
	}
}

// Parse reads one classfile from input and returns an Unlinked Class
// Record, or a nil Record if the file was skipped or its structure was
// malformed. Parse never returns an error: every failure is caught,
// translated into a deferred log entry on the result, and the classfile is
// discarded, so one bad classfile never aborts a scan.
func (p *Parser) Parse(relativePath string, input io.Reader, filter Filter, fieldsWanted FieldsWanted) *ParseResult {
	res := &ParseResult{}
	rec, err := p.parseInner(relativePath, input, filter, fieldsWanted, res)
	if err != nil {
		res.Log = append(res.Log, LogEntry{
			Level:   utils.LevelWarn,
			Message: fmt.Sprintf("discarding %s: %v", relativePath, err),
		})
		return res
	}
	res.Record = rec
	return res
}

func pathToClassName(relativePath string) string {
	name := strings.TrimSuffix(relativePath, ".class")
	return strings.ReplaceAll(name, "/", ".")
}

func (p *Parser) parseInner(relativePath string, input io.Reader, filter Filter, fieldsWanted FieldsWanted, res *ParseResult) (*Record, error) {
	r := p.reader
	r.Reset(input)
	cp := p.pool

	gotMagic, err := r.U32()
	if err != nil {
		return nil, err
	}
	if uint32(gotMagic) != magic {
		return nil, malformed("bad magic 0x%08X", uint32(gotMagic))
	}
	if err := r.Skip(4); err != nil { // minor_version + major_version
		return nil, err
	}

	cpCount, err := r.U16()
	if err != nil {
		return nil, err
	}
	if err := cp.parseEntries(r, int(cpCount)); err != nil {
		return nil, err
	}

	accessFlags, err := r.U16()
	if err != nil {
		return nil, err
	}
	isInterface := accessFlags&accInterface != 0
	isAnnotation := accessFlags&accAnnotation != 0

	thisClassIdx, err := r.U16()
	if err != nil {
		return nil, err
	}
	thisClassName, err := cp.String(int(thisClassIdx), true)
	if err != nil {
		return nil, err
	}
	if thisClassName == "java.lang.Object" {
		return nil, nil
	}

	if expected := pathToClassName(relativePath); thisClassName != expected {
		res.Log = append(res.Log, LogEntry{
			Level:   utils.LevelInfo,
			Message: fmt.Sprintf("skipping %s: this_class %q does not match the expected name %q", relativePath, thisClassName, expected),
		})
		return nil, nil
	}

	superIdx, err := r.U16()
	if err != nil {
		return nil, err
	}
	var superclassName string
	if superIdx != 0 {
		name, err := cp.String(int(superIdx), true)
		if err != nil {
			return nil, err
		}
		if name != "java.lang.Object" && filter.Allowed(name) {
			superclassName = name
		}
	}

	ifaceCount, err := r.U16()
	if err != nil {
		return nil, err
	}
	interfaces := make([]string, 0, ifaceCount)
	for i := 0; i < int(ifaceCount); i++ {
		idx, err := r.U16()
		if err != nil {
			return nil, err
		}
		name, err := cp.String(int(idx), true)
		if err != nil {
			return nil, err
		}
		if filter.Allowed(name) {
			interfaces = append(interfaces, p.intern.Intern(name))
		}
	}

	rec := NewRecord(p.intern.Intern(thisClassName))
	rec.IsInterface = isInterface
	rec.IsAnnotation = isAnnotation
	if superclassName != "" {
		rec.SuperclassName = p.intern.Intern(superclassName)
	}
	rec.ImplementedInterfaces = interfaces

	wanted := fieldsWanted[thisClassName]

	fieldCount, err := r.U16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(fieldCount); i++ {
		if err := p.parseField(r, cp, filter, wanted, rec); err != nil {
			return nil, err
		}
	}

	methodCount, err := r.U16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(methodCount); i++ {
		if err := p.skipMethod(r); err != nil {
			return nil, err
		}
	}

	if err := p.parseClassAttributes(r, cp, filter, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

func (p *Parser) parseField(r *Reader, cp *ConstantPool, filter Filter, wantedFields map[string]struct{}, rec *Record) error {
	accessFlags, err := r.U16()
	if err != nil {
		return err
	}
	isPublic := accessFlags&accPublic != 0
	if !isPublic && !p.opts.IncludeNonPublicFields {
		if err := r.Skip(4); err != nil { // name_index + descriptor_index
			return err
		}
		return p.skipAttributes(r)
	}

	nameIdx, err := r.U16()
	if err != nil {
		return err
	}
	descIdx, err := r.U16()
	if err != nil {
		return err
	}
	descriptor, err := cp.String(int(descIdx), false)
	if err != nil {
		return err
	}
	ExtractFieldTypeNames(descriptor, func(name string) {
		if filter.Allowed(name) {
			rec.addFieldType(p.intern.Intern(name))
		}
	})

	isStaticFinal := accessFlags&(accStatic|accFinal) == accStatic|accFinal
	var wantThisField bool
	var fieldName string
	if isStaticFinal && len(wantedFields) > 0 {
		fieldName, err = cp.String(int(nameIdx), false)
		if err != nil {
			return err
		}
		_, wantThisField = wantedFields[fieldName]
	}

	attrCount, err := r.U16()
	if err != nil {
		return err
	}
	for i := 0; i < int(attrCount); i++ {
		attrNameIdx, err := r.U16()
		if err != nil {
			return err
		}
		attrLen, err := r.U32()
		if err != nil {
			return err
		}

		isSignature, err := cp.StringEquals(int(attrNameIdx), "Signature")
		if err != nil {
			return err
		}
		if isSignature {
			sigIdx, err := r.U16()
			if err != nil {
				return err
			}
			signature, err := cp.String(int(sigIdx), true)
			if err != nil {
				return err
			}
			ExtractFieldTypeNames(signature, func(name string) {
				if filter.Allowed(name) {
					rec.addFieldType(p.intern.Intern(name))
				}
			})
			continue
		}

		if wantThisField {
			isConstantValue, err := cp.StringEquals(int(attrNameIdx), "ConstantValue")
			if err != nil {
				return err
			}
			if isConstantValue {
				valIdx, err := r.U16()
				if err != nil {
					return err
				}
				val, err := cp.CoerceFieldConstant(int(valIdx), descriptor)
				if err != nil {
					return err
				}
				rec.StaticFinalFieldValues[fieldName] = val
				continue
			}
		}

		if err := r.Skip(int(attrLen)); err != nil {
			return err
		}
	}
	return nil
}

// skipAttributes consumes an attribute_info table without resolving any
// attribute name, for the method table and for non-public fields when
// IncludeNonPublicFields is off.
func (p *Parser) skipAttributes(r *Reader) error {
	count, err := r.U16()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if err := r.Skip(2); err != nil { // attribute_name_index
			return err
		}
		length, err := r.U32()
		if err != nil {
			return err
		}
		if err := r.Skip(int(length)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) skipMethod(r *Reader) error {
	if err := r.Skip(6); err != nil { // access_flags + name_index + descriptor_index
		return err
	}
	return p.skipAttributes(r)
}

func (p *Parser) parseClassAttributes(r *Reader, cp *ConstantPool, filter Filter, rec *Record) error {
	count, err := r.U16()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		nameIdx, err := r.U16()
		if err != nil {
			return err
		}
		length, err := r.U32()
		if err != nil {
			return err
		}

		isRVA, err := cp.StringEquals(int(nameIdx), "RuntimeVisibleAnnotations")
		if err != nil {
			return err
		}
		if !isRVA {
			if err := r.Skip(int(length)); err != nil {
				return err
			}
			continue
		}

		numAnnotations, err := r.U16()
		if err != nil {
			return err
		}
		for j := 0; j < int(numAnnotations); j++ {
			name, err := readClassAnnotation(r, cp)
			if err != nil {
				return err
			}
			if filter.Allowed(name) {
				rec.Annotations = append(rec.Annotations, p.intern.Intern(name))
			}
		}
	}
	return nil
}
