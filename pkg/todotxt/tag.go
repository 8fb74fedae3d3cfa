package todotxt

import (
	"regexp"
	"strings"
)

// TagKind distinguishes the three kinds of todo.txt tags.
type TagKind int

const (
	ProjectTag TagKind = iota + 1 // +project
	ContextTag                    // @context
	DataTag                       // key:value
)

// Tag is a single tag token found in a description. For project and context
// tags Key is empty and Value holds the name.
type Tag struct {
	Kind  TagKind
	Key   string
	Value string
}

// Project returns a +project tag.
func Project(name string) Tag { return Tag{Kind: ProjectTag, Value: name} }

// Context returns an @context tag.
func Context(name string) Tag { return Tag{Kind: ContextTag, Value: name} }

// Data returns a key:value tag.
func Data(key, value string) Tag { return Tag{Kind: DataTag, Key: key, Value: value} }

func (t Tag) String() string {
	switch t.Kind {
	case ProjectTag:
		return "+" + t.Value
	case ContextTag:
		return "@" + t.Value
	case DataTag:
		return t.Key + ":" + t.Value
	}
	return ""
}

var (
	tokenRegex   = regexp.MustCompile(`\S+`)
	dataTagRegex = regexp.MustCompile(`^([A-Za-z0-9_\-.]+):([^\s:]\S*)$`)
	priorityTok  = regexp.MustCompile(`^\([A-Z]\)$`)
)

// parseTag classifies a whitespace-free token. URLs such as https://host are
// not data tags.
func parseTag(tok string) (Tag, bool) {
	if len(tok) < 2 {
		return Tag{}, false
	}
	switch tok[0] {
	case '+':
		return Project(tok[1:]), true
	case '@':
		return Context(tok[1:]), true
	}
	m := dataTagRegex.FindStringSubmatch(tok)
	if m == nil || strings.HasPrefix(m[2], "//") {
		return Tag{}, false
	}
	return Data(m[1], m[2]), true
}

// ParseTags returns the tags of a description in the order they appear.
func ParseTags(desc string) []Tag {
	var tags []Tag
	for _, tok := range tokenRegex.FindAllString(desc, -1) {
		if tag, ok := parseTag(tok); ok {
			tags = append(tags, tag)
		}
	}
	return tags
}

// EscapeDescription escapes every tag marker in s so that none of its tokens
// parse as tags: key:value becomes key\:value, +p becomes \+p, @c becomes \@c.
func EscapeDescription(s string) string {
	return tokenRegex.ReplaceAllStringFunc(s, func(tok string) string {
		tag, ok := parseTag(tok)
		if !ok {
			return tok
		}
		if tag.Kind == DataTag {
			return tag.Key + `\:` + tok[len(tag.Key)+1:]
		}
		return `\` + tok
	})
}

// EscapeDataKey escapes only the key:value tokens of s whose key is key.
func EscapeDataKey(s, key string) string {
	return tokenRegex.ReplaceAllStringFunc(s, func(tok string) string {
		tag, ok := parseTag(tok)
		if !ok || tag.Kind != DataTag || tag.Key != key {
			return tok
		}
		return tag.Key + `\:` + tok[len(tag.Key)+1:]
	})
}

// EscapeLeading escapes the first token of s when it would otherwise be read
// as line structure (the completion marker, a priority or a date).
func EscapeLeading(s string) string {
	first, _, _ := strings.Cut(s, " ")
	if first == "x" || priorityTok.MatchString(first) || dateTokenRegex.MatchString(first) {
		return `\` + s
	}
	return s
}

// AppendTag appends tag to desc separated by a single space.
func AppendTag(desc string, tag Tag) string {
	if desc == "" {
		return tag.String()
	}
	if strings.HasSuffix(desc, " ") {
		return desc + tag.String()
	}
	return desc + " " + tag.String()
}
