package classfile

import "strings"

// ExtractFieldTypeNames scans a field descriptor or a Signature attribute's
// generic signature string for class-name fragments and calls emit for
// each. Both formats share the same 'L' ... ';' class-name shape (a generic
// signature adds '<' ... '>' type-argument lists and type-variable markers,
// but re-running the same 'L' ... ';'-or-'<' scan across the whole string
// recovers every type argument too, since each argument is itself either a
// nested class type or a primitive/array code).
func ExtractFieldTypeNames(descriptor string, emit func(name string)) {
	i := 0
	for i < len(descriptor) {
		if descriptor[i] != 'L' {
			i++
			continue
		}
		j := i + 1
		for j < len(descriptor) && descriptor[j] != ';' && descriptor[j] != '<' {
			j++
		}
		emit(strings.ReplaceAll(descriptor[i+1:j], "/", "."))
		if j < len(descriptor) && descriptor[j] == ';' {
			i = j + 1
		} else {
			i = j + 1 // '<': keep scanning into the type-argument list
		}
	}
}
