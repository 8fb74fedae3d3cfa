package reconcile

import "fmt"

// MissingPolicy decides what happens to a local record whose remote item is
// no longer reported.
type MissingPolicy string

const (
	// RetainMissing keeps the record unchanged. A missing item may have been
	// closed elsewhere or dropped by a transient fetch gap; both look the same.
	RetainMissing MissingPolicy = "retain"
	// MarkMissingCompleted completes open records that the remote stopped
	// listing.
	MarkMissingCompleted MissingPolicy = "mark_completed"
)

func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch p := MissingPolicy(s); p {
	case "":
		return RetainMissing, nil
	case RetainMissing, MarkMissingCompleted:
		return p, nil
	}
	return "", fmt.Errorf("unknown on_missing_remote policy %q (want retain or mark_completed)", s)
}

func (p *MissingPolicy) UnmarshalText(b []byte) error {
	v, err := ParseMissingPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// DonePolicy decides how completed remote items are treated.
type DonePolicy string

const (
	// DoneAdd creates records for completed remote items that are not in the
	// local file yet, already marked done.
	DoneAdd DonePolicy = "add"
	// DoneMark only uses completed remote items to complete existing
	// records; new ones are skipped.
	DoneMark DonePolicy = "mark"
	// DoneIgnore drops completed remote items before matching.
	DoneIgnore DonePolicy = "ignore"
)

func ParseDonePolicy(s string) (DonePolicy, error) {
	switch p := DonePolicy(s); p {
	case "":
		return DoneAdd, nil
	case DoneAdd, DoneMark, DoneIgnore:
		return p, nil
	}
	return "", fmt.Errorf("unknown done_todo_policy %q (want add, mark or ignore)", s)
}

func (p *DonePolicy) UnmarshalText(b []byte) error {
	v, err := ParseDonePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
