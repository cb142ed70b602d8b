// Package cleanse normalizes raw field values per semantic tag before
// matching. Cleaning runs ahead of the matchers so rule and embedding
// comparisons always see canonical values.
package cleanse

import (
	"strings"
	"unicode"

	"github.com/hupe1980/entigo/record"
	"github.com/hupe1980/entigo/schema"
)

// Transform rewrites a single field value into its canonical form.
type Transform func(string) string

// Lower lowercases the value.
func Lower(s string) string {
	return strings.ToLower(s)
}

// TrimSpace removes leading and trailing whitespace.
func TrimSpace(s string) string {
	return strings.TrimSpace(s)
}

// CollapseWhitespace replaces runs of whitespace with a single space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// UpperCompact uppercases the value and strips all whitespace. Postcodes
// compare reliably only in this form.
func UpperCompact(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}

	return b.String()
}

// Digits keeps only decimal digits. Phone numbers arrive with arbitrary
// punctuation and spacing.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

var streetSuffixes = map[string]string{
	"st":  "street",
	"rd":  "road",
	"ave": "avenue",
	"ln":  "lane",
	"dr":  "drive",
	"ct":  "court",
	"pl":  "place",
}

// ExpandStreetSuffix rewrites abbreviated street suffixes ("st" -> "street")
// token by token. Expects an already lowercased value.
func ExpandStreetSuffix(s string) string {
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		trimmed := strings.TrimSuffix(tok, ".")
		if full, ok := streetSuffixes[trimmed]; ok {
			tokens[i] = full
		}
	}

	return strings.Join(tokens, " ")
}

var gmailDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
}

// CanonicalEmail lowercases the address, strips a "+suffix" from the local
// part and removes dots from gmail local parts, so aliases of one mailbox
// compare equal. Values without an "@" are returned lowercased as-is.
func CanonicalEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	at := strings.LastIndex(s, "@")
	if at < 0 {
		return s
	}

	local, domain := s[:at], s[at+1:]

	if plus := strings.Index(local, "+"); plus >= 0 {
		local = local[:plus]
	}

	if gmailDomains[domain] {
		local = strings.ReplaceAll(local, ".", "")
	}

	return local + "@" + domain
}

// Registry maps field tags to their transform chains. Transforms apply in
// registration order.
type Registry struct {
	transforms map[schema.FieldTag][]Transform
}

// NewRegistry returns an empty registry. Values for unregistered tags pass
// through unchanged.
func NewRegistry() *Registry {
	return &Registry{transforms: make(map[schema.FieldTag][]Transform)}
}

// DefaultRegistry returns the standard transform chains for every tag.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(schema.TagName, TrimSpace, Lower, CollapseWhitespace)
	r.Register(schema.TagAddress, TrimSpace, Lower, CollapseWhitespace, ExpandStreetSuffix)
	r.Register(schema.TagCountry, TrimSpace, Lower)
	r.Register(schema.TagEmail, CanonicalEmail)
	r.Register(schema.TagPostcode, UpperCompact)
	r.Register(schema.TagPhone, Digits)
	r.Register(schema.TagGender, TrimSpace, Lower)
	r.Register(schema.TagMarketing, TrimSpace, Lower)
	r.Register(schema.TagDate, TrimSpace)
	r.Register(schema.TagDOB, TrimSpace)
	r.Register(schema.TagCustomerID, TrimSpace)

	return r
}

// Register appends transforms to the chain for the given tag.
func (r *Registry) Register(tag schema.FieldTag, transforms ...Transform) {
	r.transforms[tag] = append(r.transforms[tag], transforms...)
}

// Apply runs the tag's transform chain over the value.
func (r *Registry) Apply(tag schema.FieldTag, value string) string {
	for _, t := range r.transforms[tag] {
		value = t(value)
	}

	return value
}

// Options configures a Cleanser.
type Options struct {
	// Registry supplies the per-tag transform chains.
	Registry *Registry
}

// DefaultOptions is the default cleanser configuration.
var DefaultOptions = Options{
	Registry: nil, // resolved to DefaultRegistry in NewCleanser
}

// Cleanser applies a transform registry to every bound column of a record
// collection.
type Cleanser struct {
	schema   *schema.Schema
	registry *Registry
}

// NewCleanser creates a Cleanser for the given schema.
func NewCleanser(s *schema.Schema, optFns ...func(o *Options)) *Cleanser {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}

	return &Cleanser{schema: s, registry: opts.Registry}
}

// Clean returns a copy of the record with every schema-bound column
// normalized. Columns without a tag binding pass through untouched.
func (c *Cleanser) Clean(r record.Record) record.Record {
	out := r

	for _, tag := range c.schema.BoundTags() {
		column, err := c.schema.Column(tag)
		if err != nil {
			continue
		}

		value, ok := out.Field(column)
		if !ok {
			continue
		}

		cleaned := c.registry.Apply(tag, value)
		if cleaned != value {
			out = out.WithField(column, cleaned)
		}
	}

	return out
}

// CleanAll cleans every record, preserving order and identifiers.
func (c *Cleanser) CleanAll(records *record.Collection) (*record.Collection, error) {
	cleaned := make([]record.Record, 0, records.Len())
	for i := 0; i < records.Len(); i++ {
		cleaned = append(cleaned, c.Clean(records.At(i)))
	}

	return record.NewCollection(cleaned...)
}
