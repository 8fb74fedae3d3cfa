package reconcile

import "github.com/harrisonrobin/todosync/pkg/todotxt"

// Action is the decision taken for one local/remote pair.
type Action int

const (
	// Retain keeps the local record as it is.
	Retain Action = iota
	// Create appends the remote record as a new local record.
	Create
	// CompleteInPlace completes the local record because the remote is done.
	CompleteInPlace
	// ReopenInPlace reopens the local record because the remote reopened it.
	ReopenInPlace
	// DropOrRetain applies the missing-remote policy to a local record that
	// the remote no longer reports.
	DropOrRetain
	// Skip leaves the remote record out of the output.
	Skip
)

func (a Action) String() string {
	switch a {
	case Retain:
		return "retain"
	case Create:
		return "create"
	case CompleteInPlace:
		return "complete"
	case ReopenInPlace:
		return "reopen"
	case DropOrRetain:
		return "drop-or-retain"
	case Skip:
		return "skip"
	}
	return "unknown"
}

// ReconcileOne decides what to do with a local record and the remote record
// sharing its external id. Either side may be nil.
//
// The remote is authoritative for completion state; the local record is
// authoritative for content, so a matched record is never rewritten from the
// remote's text.
func ReconcileOne(local, remote *todotxt.Record, opts Options) Action {
	if remote != nil && remote.Done && opts.Done == DoneIgnore {
		remote = nil
	}

	switch {
	case local == nil && remote == nil:
		return Skip
	case remote == nil:
		return DropOrRetain
	case local == nil:
		if remote.Done && opts.Done == DoneMark {
			return Skip
		}
		return Create
	case local.Done == remote.Done:
		return Retain
	case remote.Done:
		return CompleteInPlace
	default:
		return ReopenInPlace
	}
}
