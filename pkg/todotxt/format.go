package todotxt

import (
	"io"
	"strings"
)

// Format renders a record as a single line without the trailing newline.
//
// Completed records are written as "x COMPLETED [CREATED] description" and
// never carry a priority. Open records are written as
// "[(P) ][CREATED ]description".
func Format(r Record) string {
	if r.src != nil && (r.src.opaque || sameFields(r.src.fields, r)) {
		return r.src.text
	}

	var b strings.Builder
	desc := r.Description
	if r.Done {
		b.WriteString("x ")
		completed := r.Completed
		if completed.IsZero() {
			completed = r.Created
		}
		switch {
		case completed.IsZero():
			desc = escapeLead(desc, leadPriority|leadDate)
		case r.Created.IsZero():
			b.WriteString(completed.String())
			b.WriteByte(' ')
			desc = escapeLead(desc, leadDate)
		default:
			b.WriteString(completed.String())
			b.WriteByte(' ')
			b.WriteString(r.Created.String())
			b.WriteByte(' ')
		}
	} else {
		lead := leadDone | leadPriority | leadDate
		if r.Priority.Valid() {
			b.WriteString("(" + r.Priority.String() + ") ")
			lead = leadDate
		}
		if !r.Created.IsZero() {
			b.WriteString(r.Created.String())
			b.WriteByte(' ')
			lead = leadDate
		}
		desc = escapeLead(desc, lead)
	}
	b.WriteString(desc)
	return b.String()
}

// Leading description tokens the parser would still take as line structure
// at the point the description starts.
const (
	leadDone = 1 << iota
	leadPriority
	leadDate
)

// escapeLead prefixes desc with a backslash when its first token would be
// read back as one of the given kinds of line structure.
func escapeLead(desc string, kinds int) string {
	first, followed := desc, false
	if i := strings.IndexAny(desc, " \t"); i >= 0 {
		first, followed = desc[:i], true
	}
	switch {
	case kinds&leadDone != 0 && followed && first == "x",
		kinds&leadPriority != 0 && followed && priorityTok.MatchString(first),
		kinds&leadDate != 0 && dateTokenRegex.MatchString(first):
		return `\` + desc
	}
	return desc
}

// Serialize renders records one per line, each terminated by a newline.
func Serialize(records []Record) string {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(Format(r))
		b.WriteByte('\n')
	}
	return b.String()
}

// Write serializes records to w.
func Write(w io.Writer, records []Record) error {
	_, err := io.WriteString(w, Serialize(records))
	return err
}
