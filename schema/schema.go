// Package schema binds semantic field roles to the concrete columns of one
// dataset. Matchers never reference column names directly; they resolve every
// field access through a Schema so the same rules work across arbitrary
// column layouts.
package schema

import (
	"fmt"
	"sort"
)

// FieldTag is a semantic role a column can play in a record. The set is
// closed; extend it only by adding new tags here.
type FieldTag int

const (
	TagName FieldTag = iota
	TagAddress
	TagCountry
	TagCustomerID
	TagDate
	TagDOB
	TagEmail
	TagGender
	TagMarketing
	TagPhone
	TagPostcode

	numFieldTags // sentinel, keep last
)

var tagNames = map[FieldTag]string{
	TagName:       "name",
	TagAddress:    "address",
	TagCountry:    "country",
	TagCustomerID: "customer_id",
	TagDate:       "date",
	TagDOB:        "dob",
	TagEmail:      "email",
	TagGender:     "gender",
	TagMarketing:  "marketing",
	TagPhone:      "phone",
	TagPostcode:   "postcode",
}

func (t FieldTag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// Valid reports whether t is one of the enumerated tags.
func (t FieldTag) Valid() bool {
	return t >= 0 && t < numFieldTags
}

// ParseFieldTag converts a tag name (as produced by String) back to a
// FieldTag. Used when bindings come from configuration files.
func ParseFieldTag(s string) (FieldTag, error) {
	for tag, name := range tagNames {
		if name == s {
			return tag, nil
		}
	}
	return 0, &ErrUnknownTag{Name: s}
}

// Tags returns all enumerated tags in declaration order.
func Tags() []FieldTag {
	tags := make([]FieldTag, 0, int(numFieldTags))
	for t := FieldTag(0); t < numFieldTags; t++ {
		tags = append(tags, t)
	}
	return tags
}

// ErrUnknownTag indicates a tag name outside the enumerated set.
type ErrUnknownTag struct {
	Name string
}

func (e *ErrUnknownTag) Error() string {
	return fmt.Sprintf("unknown field tag: %q", e.Name)
}

// ErrInvalidTag indicates a tag value outside the enumerated set.
type ErrInvalidTag struct {
	Tag FieldTag
}

func (e *ErrInvalidTag) Error() string {
	return fmt.Sprintf("invalid field tag: %d", int(e.Tag))
}

// ErrTagNotBound indicates a lookup for a tag the schema does not bind.
//
// Lookups never fall back to a default column; callers decide whether an
// unbound tag is a configuration mistake or a reason to skip a record.
type ErrTagNotBound struct {
	Tag FieldTag
}

func (e *ErrTagNotBound) Error() string {
	return fmt.Sprintf("field tag not bound: %s", e.Tag)
}

// ErrEmptyColumn indicates a binding whose column name is empty.
type ErrEmptyColumn struct {
	Tag FieldTag
}

func (e *ErrEmptyColumn) Error() string {
	return fmt.Sprintf("empty column for field tag: %s", e.Tag)
}

// Schema is an immutable mapping from field tag to column name, scoped to
// one dataset. Each tag binds to at most one column.
type Schema struct {
	columns map[FieldTag]string
}

// New validates the given bindings and returns an immutable Schema.
// Invalid tags and empty column names fail here, before any record is
// processed.
func New(bindings map[FieldTag]string) (*Schema, error) {
	columns := make(map[FieldTag]string, len(bindings))

	for tag, column := range bindings {
		if !tag.Valid() {
			return nil, &ErrInvalidTag{Tag: tag}
		}

		if column == "" {
			return nil, &ErrEmptyColumn{Tag: tag}
		}

		columns[tag] = column
	}

	return &Schema{columns: columns}, nil
}

// Column returns the column bound to the given tag. An unbound tag yields
// ErrTagNotBound, never a default.
func (s *Schema) Column(tag FieldTag) (string, error) {
	column, ok := s.columns[tag]
	if !ok {
		return "", &ErrTagNotBound{Tag: tag}
	}

	return column, nil
}

// Bound reports whether the given tag has a column binding.
func (s *Schema) Bound(tag FieldTag) bool {
	_, ok := s.columns[tag]
	return ok
}

// BoundTags returns the bound tags in declaration order.
func (s *Schema) BoundTags() []FieldTag {
	tags := make([]FieldTag, 0, len(s.columns))
	for tag := range s.columns {
		tags = append(tags, tag)
	}

	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	return tags
}

// Len returns the number of bound tags.
func (s *Schema) Len() int {
	return len(s.columns)
}
