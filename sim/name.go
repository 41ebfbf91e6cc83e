package sim

import (
	"fmt"
	"log"
	"strconv"
	"strings"
)

// A NameElem is one dot-separated part of a hierarchical name, for example
// `Target` or `Lane[3]`.
type NameElem struct {
	Elem    string
	Indices []int
}

// String rebuilds the element text.
func (e NameElem) String() string {
	var sb strings.Builder

	sb.WriteString(e.Elem)

	for _, i := range e.Indices {
		fmt.Fprintf(&sb, "[%d]", i)
	}

	return sb.String()
}

// ParseName splits a hierarchical name such as `Bench.Bridge` or
// `Bench.Lane[1][2]` into its elements.
func ParseName(name string) ([]NameElem, error) {
	if name == "" {
		return nil, fmt.Errorf("empty name")
	}

	parts := strings.Split(name, ".")
	elems := make([]NameElem, 0, len(parts))

	for _, part := range parts {
		elem, err := parseNameElem(part)
		if err != nil {
			return nil, fmt.Errorf("name %q: %w", name, err)
		}

		elems = append(elems, elem)
	}

	return elems, nil
}

func parseNameElem(part string) (NameElem, error) {
	open := strings.IndexByte(part, '[')
	if open < 0 {
		if strings.IndexByte(part, ']') >= 0 {
			return NameElem{}, fmt.Errorf("unmatched ] in %q", part)
		}

		open = len(part)
	}

	elem := NameElem{Elem: part[:open]}
	if err := elemMustBeCamelCase(elem.Elem); err != nil {
		return NameElem{}, err
	}

	rest := part[open:]
	for rest != "" {
		end := strings.IndexByte(rest, ']')
		if rest[0] != '[' || end < 0 {
			return NameElem{}, fmt.Errorf("unmatched [ in %q", part)
		}

		index, err := strconv.Atoi(rest[1:end])
		if err != nil || index < 0 {
			return NameElem{}, fmt.Errorf("bad index in %q", part)
		}

		elem.Indices = append(elem.Indices, index)
		rest = rest[end+1:]
	}

	return elem, nil
}

func elemMustBeCamelCase(elem string) error {
	if elem == "" {
		return fmt.Errorf("empty element")
	}

	if elem[0] < 'A' || elem[0] > 'Z' {
		return fmt.Errorf("element %q must start with a capital letter", elem)
	}

	for _, c := range elem {
		isLetter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'

		if !isLetter && !isDigit {
			return fmt.Errorf("element %q contains %q", elem, c)
		}
	}

	return nil
}

// NameMustBeValid panics if the name is not a dot-separated list of
// CamelCase elements with optional square-bracket indices.
func NameMustBeValid(name string) {
	if _, err := ParseName(name); err != nil {
		log.Panicf("invalid component name: %v", err)
	}
}

// BuildName appends an element to a parent name.
func BuildName(parent, elem string, indices ...int) string {
	e := NameElem{Elem: elem, Indices: indices}.String()

	if parent == "" {
		return e
	}

	return parent + "." + e
}
