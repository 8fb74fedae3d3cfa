// Package reconcile merges a remote todo snapshot into the records of a local
// todo.txt file.
//
// The merge never deletes a local record: records the remote no longer
// reports are kept (or completed, under MarkMissingCompleted), local records
// without an external id pass through untouched, and new remote items are
// appended after everything that was already there.
package reconcile

import (
	"fmt"
	"time"

	"github.com/harrisonrobin/todosync/pkg/todotxt"
)

const DefaultIDKey = "id"

type Options struct {
	// IDKey is the key of the key:value tag holding the external id.
	IDKey string
	// Scope, when set, limits the merge to local records tagged @Scope.
	Scope           string
	OnMissingRemote MissingPolicy
	Done            DonePolicy
	// Now supplies the completion date for records completed without a
	// remote completion date. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.IDKey == "" {
		o.IDKey = DefaultIDKey
	}
	if o.OnMissingRemote == "" {
		o.OnMissingRemote = RetainMissing
	}
	if o.Done == "" {
		o.Done = DoneAdd
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Stats counts what a merge did.
type Stats struct {
	Retained   int // matched records left unchanged
	Created    int
	Completed  int
	Reopened   int
	Missing    int // managed local records absent from the remote snapshot
	Skipped    int // remote records left out of the output
	Ignored    int // completed remote records dropped by DoneIgnore
	Unmanaged  int // local records outside the merge (no id, out of scope, opaque)
	Duplicates int // local records dropped for repeating an id
}

// Changed reports whether the merge altered the record set.
func (s Stats) Changed() bool {
	return s.Created+s.Completed+s.Reopened+s.Duplicates > 0
}

type WarningKind int

const (
	DuplicateLocal WarningKind = iota + 1
	DuplicateRemote
	RemoteWithoutID
	UnscopedConflict
)

// Warning reports a record the merge could not apply as-is.
type Warning struct {
	Kind  WarningKind
	ID    string
	Index int // position in the local or remote input
	Text  string
}

func (w Warning) String() string {
	switch w.Kind {
	case DuplicateLocal:
		return fmt.Sprintf("local line %d repeats id %s and was dropped: %q", w.Index+1, w.ID, w.Text)
	case DuplicateRemote:
		return fmt.Sprintf("remote item %d repeats id %s and was skipped", w.Index, w.ID)
	case RemoteWithoutID:
		return fmt.Sprintf("remote item %d has no id and was skipped: %q", w.Index, w.Text)
	case UnscopedConflict:
		return fmt.Sprintf("remote item %d has id %s, which an unscoped local record already holds; skipped", w.Index, w.ID)
	}
	return w.Text
}

// Result is the output of a merge.
type Result struct {
	Records  []todotxt.Record
	Stats    Stats
	Warnings []Warning
}

// Reconcile merges remote into local.
//
// Local records keep their relative order. Records created from the remote are
// appended in feed order. remote must be the complete snapshot of the remote
// service: a partial snapshot would look like mass removal.
func Reconcile(local, remote []todotxt.Record, opts Options) Result {
	opts = opts.withDefaults()

	var res Result
	today := func() todotxt.Date { return todotxt.DateOf(opts.Now()) }

	// 1. Partition the local records.
	out := make([]todotxt.Record, 0, len(local)+len(remote))
	managed := make([]string, 0, len(local)+len(remote))
	index := make(map[string]int)
	unscoped := make(map[string]bool)
	for i, l := range local {
		id := l.ExternalID(opts.IDKey)
		if id == "" {
			out = append(out, l)
			managed = append(managed, "")
			res.Stats.Unmanaged++
			continue
		}
		if _, dup := index[id]; dup || unscoped[id] {
			res.Stats.Duplicates++
			res.Warnings = append(res.Warnings, Warning{Kind: DuplicateLocal, ID: id, Index: i, Text: todotxt.Format(l)})
			continue
		}
		if opts.Scope != "" && !l.HasContext(opts.Scope) {
			unscoped[id] = true
			out = append(out, l)
			managed = append(managed, "")
			res.Stats.Unmanaged++
			continue
		}
		index[id] = len(out)
		out = append(out, l)
		managed = append(managed, id)
	}

	// 2. Match every remote record.
	seen := make(map[string]bool)
	matched := make(map[string]bool)
	var created []todotxt.Record
	for i := range remote {
		r := remote[i]
		id := r.ExternalID(opts.IDKey)
		switch {
		case id == "":
			res.Stats.Skipped++
			res.Warnings = append(res.Warnings, Warning{Kind: RemoteWithoutID, Index: i, Text: todotxt.Format(r)})
			continue
		case seen[id]:
			res.Stats.Skipped++
			res.Warnings = append(res.Warnings, Warning{Kind: DuplicateRemote, ID: id, Index: i})
			continue
		}
		seen[id] = true

		if r.Done && opts.Done == DoneIgnore {
			res.Stats.Ignored++
			continue
		}
		if unscoped[id] {
			res.Stats.Skipped++
			res.Warnings = append(res.Warnings, Warning{Kind: UnscopedConflict, ID: id, Index: i})
			continue
		}

		var l *todotxt.Record
		if pos, ok := index[id]; ok {
			l = &out[pos]
			matched[id] = true
		}

		switch ReconcileOne(l, &r, opts) {
		case Retain:
			res.Stats.Retained++
		case CompleteInPlace:
			on := r.Completed
			if on.IsZero() {
				on = today()
			}
			l.Complete(on)
			res.Stats.Completed++
		case ReopenInPlace:
			l.Reopen()
			res.Stats.Reopened++
		case Create:
			if r.Done && r.Completed.IsZero() {
				r.Completed = today()
			}
			created = append(created, r)
			res.Stats.Created++
		case Skip:
			res.Stats.Skipped++
		}
	}

	// 3. Local records the remote no longer reports.
	for pos, id := range managed {
		if id == "" || matched[id] {
			continue
		}
		res.Stats.Missing++
		l := &out[pos]
		if ReconcileOne(l, nil, opts) != DropOrRetain {
			continue
		}
		if opts.OnMissingRemote == MarkMissingCompleted && !l.Done {
			l.Complete(today())
			res.Stats.Completed++
		}
	}

	// 4. New items go after everything that was already there.
	res.Records = append(out, created...)
	return res
}
