// Package todotxt parses and serializes the todo.txt line format.
package todotxt

// Priority is a todo.txt priority letter. The zero value means no priority.
type Priority byte

const NoPriority Priority = 0

// Valid reports whether p is one of A to Z.
func (p Priority) Valid() bool {
	return p >= 'A' && p <= 'Z'
}

func (p Priority) String() string {
	if !p.Valid() {
		return ""
	}
	return string(rune(p))
}

// Record is one line of a todo.txt file.
type Record struct {
	Done        bool
	Priority    Priority
	Completed   Date
	Created     Date
	Description string

	src *source
}

// source remembers the line a record was parsed from. The line is written
// back verbatim as long as the record still holds the fields parsed from it.
type source struct {
	text   string
	opaque bool
	fields Record
}

// Opaque returns a pass-through record for a line that is kept verbatim.
func Opaque(line string) Record {
	return Record{src: &source{text: line, opaque: true}}
}

// Opaque reports whether r is a pass-through line.
func (r Record) Opaque() bool {
	return r.src != nil && r.src.opaque
}

// Line returns the source line r was parsed from, or "" for records built in
// code.
func (r Record) Line() string {
	if r.src == nil {
		return ""
	}
	return r.src.text
}

// Equal compares two records field by field. The cached source line is not
// part of a record's identity, except for opaque records which are nothing
// but their line.
func (r Record) Equal(o Record) bool {
	if r.Opaque() || o.Opaque() {
		return r.Opaque() && o.Opaque() && r.src.text == o.src.text
	}
	return sameFields(r, o)
}

func sameFields(a, b Record) bool {
	return a.Done == b.Done &&
		a.Priority == b.Priority &&
		a.Completed == b.Completed &&
		a.Created == b.Created &&
		a.Description == b.Description
}

// Tags returns the tags of the description in order.
func (r Record) Tags() []Tag {
	if r.Opaque() {
		return nil
	}
	return ParseTags(r.Description)
}

// Tag returns the value of the first key:value tag with the given key.
func (r Record) Tag(key string) (string, bool) {
	for _, t := range r.Tags() {
		if t.Kind == DataTag && t.Key == key {
			return t.Value, true
		}
	}
	return "", false
}

// ExternalID returns the remote identifier stored under key, or "".
func (r Record) ExternalID(key string) string {
	v, _ := r.Tag(key)
	return v
}

func (r Record) HasContext(name string) bool {
	return r.hasTag(Context(name))
}

func (r Record) HasProject(name string) bool {
	return r.hasTag(Project(name))
}

func (r Record) hasTag(tag Tag) bool {
	for _, t := range r.Tags() {
		if t == tag {
			return true
		}
	}
	return false
}

// Complete marks r done on the given date. A completed record carries no
// priority.
func (r *Record) Complete(on Date) {
	if r.Opaque() {
		return
	}
	r.Done = true
	r.Completed = on
	r.Priority = NoPriority
}

// Reopen marks r as not done and clears its completion date.
func (r *Record) Reopen() {
	if r.Opaque() {
		return
	}
	r.Done = false
	r.Completed = Date{}
}
