package classfile

import "strings"

// readClassAnnotation reads one entry of a RuntimeVisibleAnnotations table
// (the type_index, then num_element_value_pairs element_name_index/value
// pairs), returning the annotation's dotted type name. Every element value
// is walked structurally but discarded: this parser never needs an
// annotation's arguments, only its presence and type.
func readClassAnnotation(r *Reader, cp *ConstantPool) (string, error) {
	typeIdx, err := r.U16()
	if err != nil {
		return "", err
	}
	descriptor, err := cp.String(int(typeIdx), true)
	if err != nil {
		return "", err
	}
	name := strings.TrimSuffix(strings.TrimPrefix(descriptor, "L"), ";")

	numPairs, err := r.U16()
	if err != nil {
		return "", err
	}
	for i := 0; i < int(numPairs); i++ {
		if err := r.Skip(2); err != nil { // element_name_index
			return "", err
		}
		if err := skipElementValue(r); err != nil {
			return "", err
		}
	}
	return name, nil
}

// skipElementValue consumes one annotation element_value structure
// (JVM spec 4.7.16.1) according to its leading tag byte, recursing for
// nested annotations and arrays.
func skipElementValue(r *Reader) error {
	tag, err := r.U8()
	if err != nil {
		return err
	}
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's':
		return r.Skip(2) // const_value_index
	case 'e':
		return r.Skip(4) // type_name_index + const_name_index
	case 'c':
		return r.Skip(2) // class_info_index
	case '@':
		return skipAnnotationBody(r)
	case '[':
		count, err := r.U16()
		if err != nil {
			return err
		}
		for i := 0; i < int(count); i++ {
			if err := skipElementValue(r); err != nil {
				return err
			}
		}
		return nil
	default:
		return malformed("unknown annotation element-value tag 0x%02x", tag)
	}
}

// skipAnnotationBody consumes a nested annotation structure (type_index
// plus its element_value_pairs), used when an element_value's own tag is
// '@'. The nested annotation's type is never recorded: only class-level
// annotations are cross-linked.
func skipAnnotationBody(r *Reader) error {
	if err := r.Skip(2); err != nil { // type_index
		return err
	}
	numPairs, err := r.U16()
	if err != nil {
		return err
	}
	for i := 0; i < int(numPairs); i++ {
		if err := r.Skip(2); err != nil { // element_name_index
			return err
		}
		if err := skipElementValue(r); err != nil {
			return err
		}
	}
	return nil
}
