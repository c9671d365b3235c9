package modules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DecodeKind discriminates the ways a single module-table line can fail
// to decode.
type DecodeKind int

const (
	// EmptyLine is a line with no fields at all.
	EmptyLine DecodeKind = iota
	// TooFewFields is a line with fewer than the five mandatory fields.
	TooFewFields
	// TooManyFields is a line with more than six fields.
	TooManyFields
	// InvalidNumber is a numeric field that does not parse in its base.
	InvalidNumber
	// InvalidDependencyList is a dependency field containing an empty
	// element, from a leading, trailing, or doubled comma.
	InvalidDependencyList
)

func (k DecodeKind) String() string {
	switch k {
	case EmptyLine:
		return "empty line"
	case TooFewFields:
		return "too few fields"
	case TooManyFields:
		return "too many fields"
	case InvalidNumber:
		return "invalid number"
	case InvalidDependencyList:
		return "invalid dependency list"
	default:
		return fmt.Sprintf("decode kind %d", int(k))
	}
}

// DecodeError reports one malformed module-table line. It carries the
// offending line so callers can log the raw text, and for InvalidNumber
// the failing field and its raw value.
type DecodeError struct {
	Kind  DecodeKind
	Line  string
	Field string
	Value string
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case InvalidNumber:
		return fmt.Sprintf("invalid %s %q in module line %q", e.Field, e.Value, e.Line)
	default:
		return fmt.Sprintf("%s in module line %q", e.Kind, e.Line)
	}
}

// AsDecodeError reports whether err is a per-line decode failure, as
// opposed to an I/O failure of the underlying source.
func AsDecodeError(err error) (*DecodeError, bool) {
	var decodeErr *DecodeError
	ok := errors.As(err, &decodeErr)
	return decodeErr, ok
}

// Decode validates one module-table line, stripped of its line
// terminator, and produces its Record. Fields are whitespace-separated
// in fixed positional order: name, size, instances, dependencies,
// state, and an optional address. Five or six fields are valid; the
// sixth is the load address, absent when the caller lacks privilege to
// see it. Decode has no side effects and is purely functional over its
// input.
func Decode(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Record{}, &DecodeError{Kind: EmptyLine, Line: line}
	}
	if len(fields) < 5 {
		return Record{}, &DecodeError{Kind: TooFewFields, Line: line}
	}
	if len(fields) > 6 {
		return Record{}, &DecodeError{Kind: TooManyFields, Line: line}
	}

	size, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return Record{}, &DecodeError{Kind: InvalidNumber, Line: line, Field: "size", Value: fields[1]}
	}

	instances, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return Record{}, &DecodeError{Kind: InvalidNumber, Line: line, Field: "instances", Value: fields[2]}
	}

	deps, err := decodeDependencies(line, fields[3])
	if err != nil {
		return Record{}, err
	}

	record := Record{
		Name:         fields[0],
		SizeBytes:    size,
		Instances:    instances,
		Dependencies: deps,
		State:        ParseState(fields[4]),
	}

	if len(fields) == 6 {
		hex := strings.TrimPrefix(fields[5], "0x")
		addr, err := strconv.ParseUint(hex, 16, 64)
		if err != nil {
			return Record{}, &DecodeError{Kind: InvalidNumber, Line: line, Field: "address", Value: fields[5]}
		}
		record.Address = &addr
	}

	return record, nil
}

// decodeDependencies splits the dependency field on commas. The single
// "-" sentinel means no dependencies; empty elements are rejected so a
// stray comma surfaces instead of silently dropping a name.
func decodeDependencies(line, field string) ([]string, error) {
	if field == "-" {
		return nil, nil
	}
	deps := strings.Split(field, ",")
	for _, dep := range deps {
		if dep == "" {
			return nil, &DecodeError{Kind: InvalidDependencyList, Line: line}
		}
	}
	return deps, nil
}
