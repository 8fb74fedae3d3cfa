package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/harrisonrobin/todosync/pkg/model"
	"github.com/harrisonrobin/todosync/pkg/todotxt"
	"golang.org/x/text/unicode/norm"
)

// DefaultIDKey is the tag key that stores the remote identifier.
const DefaultIDKey = "id"

// ErrNoID is matched by a NormalizationError for a remote item without a
// stable identifier.
var ErrNoID = errors.New("remote todo has no stable identifier")

// NormalizationError reports a remote item that could not be turned into a
// record. Such items are skipped and reported.
type NormalizationError struct {
	Index int // position in the remote feed
	Title string
	Err   error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("remote todo #%d (%q): %v", e.Index, e.Title, e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

type Options struct {
	// IDKey is the key of the key:value tag holding the remote id.
	IDKey string
	// ContextTag, when set, is added as @ContextTag to every record.
	ContextTag string
	// NoEscapeMeta keeps key:value, +project and @context tokens of remote
	// text as live tags.
	NoEscapeMeta bool
}

// Normalizer maps remote todos onto todo.txt records.
type Normalizer struct {
	opts Options
}

func New(opts Options) *Normalizer {
	if opts.IDKey == "" {
		opts.IDKey = DefaultIDKey
	}
	return &Normalizer{opts: opts}
}

func (n *Normalizer) IDKey() string {
	return n.opts.IDKey
}

// Normalize converts a remote todo into a record carrying its external id.
// The same input always yields the same record.
func (n *Normalizer) Normalize(todo model.RemoteTodo) (todotxt.Record, error) {
	id := strings.TrimSpace(todo.ID)
	if id == "" || strings.ContainsAny(id, " \t\r\n") {
		return todotxt.Record{}, &NormalizationError{Title: todo.Title, Err: ErrNoID}
	}

	// 1. Text
	text := cleanText(todo.Title)
	if text == "" {
		text = cleanText(todo.Body)
	}
	if n.opts.NoEscapeMeta {
		// The appended id tag must stay the only one.
		text = todotxt.EscapeDataKey(text, n.opts.IDKey)
	} else {
		text = todotxt.EscapeDescription(text)
	}
	if kind := cleanText(todo.Kind); kind != "" {
		text = strings.TrimSpace(fmt.Sprintf("[%s] %s", kind, text))
	}
	desc := todotxt.EscapeLeading(text)

	// 2. Tags
	if project := tagValue(todo.Project); project != "" {
		desc = todotxt.AppendTag(desc, todotxt.Project(project))
	}
	desc = todotxt.AppendTag(desc, todotxt.Data(n.opts.IDKey, id))
	if ctx := tagValue(n.opts.ContextTag); ctx != "" {
		desc = todotxt.AppendTag(desc, todotxt.Context(ctx))
	}

	// 3. Dates
	rec := todotxt.Record{
		Done:        todo.Done,
		Created:     todotxt.DateOf(todo.CreatedAt.UTC()),
		Description: desc,
	}
	if todo.Done {
		completed := todo.CompletedAt
		if completed.IsZero() {
			completed = todo.UpdatedAt
		}
		rec.Completed = todotxt.DateOf(completed.UTC())
	}
	return rec, nil
}

// NormalizeAll converts every remote todo, skipping and reporting the ones
// that fail.
func (n *Normalizer) NormalizeAll(todos []model.RemoteTodo) ([]todotxt.Record, []*NormalizationError) {
	records := make([]todotxt.Record, 0, len(todos))
	var errs []*NormalizationError
	for i, todo := range todos {
		rec, err := n.Normalize(todo)
		if err != nil {
			var ne *NormalizationError
			if errors.As(err, &ne) {
				ne.Index = i
				errs = append(errs, ne)
				continue
			}
			errs = append(errs, &NormalizationError{Index: i, Title: todo.Title, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, errs
}

// cleanText applies NFC normalization and folds every whitespace run,
// newlines included, into a single space.
func cleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

func tagValue(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), "-")
}
