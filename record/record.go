// Package record defines the immutable record representation the engine
// consumes. The engine never owns raw record storage; it reads records by
// reference and produces pair/cluster structures it owns for one run.
package record

import (
	"fmt"
	"sort"
)

// ID is a stable record identifier, unique within one pipeline run.
type ID string

// Record is one cleaned source row: an identifier plus a mapping from column
// name to value. Records are immutable once constructed.
type Record struct {
	id     ID
	fields map[string]string
}

// New constructs a Record. The fields map is copied so later mutation by the
// caller cannot leak into the engine.
func New(id ID, fields map[string]string) Record {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}

	return Record{id: id, fields: copied}
}

// ID returns the record identifier.
func (r Record) ID() ID {
	return r.id
}

// Field returns the value of the given column and whether the column exists.
func (r Record) Field(column string) (string, bool) {
	v, ok := r.fields[column]
	return v, ok
}

// Columns returns the record's column names in sorted order.
func (r Record) Columns() []string {
	columns := make([]string, 0, len(r.fields))
	for c := range r.fields {
		columns = append(columns, c)
	}

	sort.Strings(columns)

	return columns
}

// WithField returns a copy of the record with one column replaced. Used by
// cleansing; the receiver is unchanged.
func (r Record) WithField(column, value string) Record {
	copied := make(map[string]string, len(r.fields)+1)
	for k, v := range r.fields {
		copied[k] = v
	}
	copied[column] = value

	return Record{id: r.id, fields: copied}
}

// ErrDuplicateID indicates two records in one collection share an identifier.
type ErrDuplicateID struct {
	ID ID
}

func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("duplicate record id: %s", e.ID)
}

// Collection is an ordered set of records with unique identifiers.
type Collection struct {
	records []Record
	byID    map[ID]int
}

// NewCollection builds a Collection from the given records, preserving their
// order. Duplicate identifiers fail construction.
func NewCollection(records ...Record) (*Collection, error) {
	c := &Collection{
		records: make([]Record, 0, len(records)),
		byID:    make(map[ID]int, len(records)),
	}

	for _, r := range records {
		if _, exists := c.byID[r.id]; exists {
			return nil, &ErrDuplicateID{ID: r.id}
		}

		c.byID[r.id] = len(c.records)
		c.records = append(c.records, r)
	}

	return c, nil
}

// Len returns the number of records.
func (c *Collection) Len() int {
	return len(c.records)
}

// At returns the record at the given position in input order.
func (c *Collection) At(i int) Record {
	return c.records[i]
}

// Get returns the record with the given id, if present.
func (c *Collection) Get(id ID) (Record, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Record{}, false
	}

	return c.records[i], true
}

// IDs returns all record ids in input order.
func (c *Collection) IDs() []ID {
	ids := make([]ID, len(c.records))
	for i, r := range c.records {
		ids[i] = r.id
	}

	return ids
}

// Records returns the records in input order. The returned slice is a copy;
// the records themselves are immutable.
func (c *Collection) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)

	return out
}
