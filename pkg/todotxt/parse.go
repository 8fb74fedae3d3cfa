package todotxt

import (
	"bufio"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxLineSize = 1 << 20

var (
	priorityRegex = regexp.MustCompile(`^\(([A-Z])\)[ \t]+`)
	leadDateRegex = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})(?:[ \t]+|$)`)
)

// ParseLine parses a single todo.txt line. The returned record remembers the
// line so that an unmodified record is written back byte for byte.
func ParseLine(line string) (Record, error) {
	fail := func(reason string) (Record, error) {
		return Record{}, &FormatError{Text: line, Reason: reason}
	}

	if !utf8.ValidString(line) {
		return fail("invalid UTF-8")
	}
	if strings.TrimSpace(line) == "" {
		return fail("empty line")
	}

	var rec Record
	rest := line
	if strings.HasPrefix(rest, "x ") || strings.HasPrefix(rest, "x\t") {
		rec.Done = true
		rest = strings.TrimLeft(rest[2:], " \t")
	}

	if m := priorityRegex.FindStringSubmatch(rest); m != nil {
		rec.Priority = Priority(m[1][0])
		rest = rest[len(m[0]):]
	}

	first, rest, ok, err := leadingDate(rest)
	if err != nil {
		return fail(err.Error())
	}
	if ok {
		second, after, ok, err := leadingDate(rest)
		if err != nil {
			return fail(err.Error())
		}
		switch {
		case ok && !rec.Done:
			return fail("completion date on an open task")
		case ok:
			rec.Completed = first
			rec.Created = second
			rest = after
		case rec.Done:
			rec.Completed = first
		default:
			rec.Created = first
		}
	}

	rec.Description = strings.TrimSpace(rest)
	if rec.Description == "" {
		return fail("empty description")
	}

	fields := rec
	rec.src = &source{text: line, fields: fields}
	return rec, nil
}

func leadingDate(s string) (Date, string, bool, error) {
	m := leadDateRegex.FindStringSubmatch(s)
	if m == nil {
		return Date{}, s, false, nil
	}
	d, err := ParseDate(m[1])
	if err != nil {
		return Date{}, s, false, err
	}
	return d, s[len(m[0]):], true, nil
}

// Parse reads a todo.txt document. Lines that cannot be parsed are kept in
// place as opaque records and reported as warnings, so one bad line never
// blocks the rest of the file. Blank lines are kept as opaque records without
// a warning. The error is only set when reading fails.
func Parse(r io.Reader) ([]Record, []*FormatError, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		records  []Record
		warnings []*FormatError
		n        int
	)
	for scanner.Scan() {
		n++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			records = append(records, Opaque(line))
			continue
		}
		rec, err := ParseLine(line)
		if err != nil {
			fe := err.(*FormatError)
			fe.Line = n
			warnings = append(warnings, fe)
			records = append(records, Opaque(line))
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return records, warnings, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(text string) ([]Record, []*FormatError) {
	records, warnings, _ := Parse(strings.NewReader(text))
	return records, warnings
}
