// Package progress classifies status values as pending, complete or void so
// parents can keep pending/complete counters for any child status type.
package progress

// Classification buckets a status value.
type Classification int

const (
	Unclassified Classification = iota
	Pending
	Complete
	Void
)

func (c Classification) String() string {
	switch c {
	case Pending:
		return "pending"
	case Complete:
		return "complete"
	case Void:
		return "void"
	default:
		return "unclassified"
	}
}

// Classifiable is implemented by status enums backed by a static Table.
type Classifiable interface {
	comparable
	Classify() Classification
}

// Table maps each status value to its classification. Values missing from
// the table are Unclassified.
type Table[S comparable] map[S]Classification

func (t Table[S]) Of(s S) Classification {
	return t[s]
}

// Values returns every status in the table with the given classification.
func (t Table[S]) Values(c Classification) []S {
	out := make([]S, 0, len(t))
	for s, cls := range t {
		if cls == c {
			out = append(out, s)
		}
	}
	return out
}

func IsPending[S Classifiable](s S) bool  { return s.Classify() == Pending }
func IsComplete[S Classifiable](s S) bool { return s.Classify() == Complete }
func IsVoid[S Classifiable](s S) bool     { return s.Classify() == Void }

// Count returns how many statuses fall in the given classification.
func Count[S Classifiable](statuses []S, c Classification) int64 {
	var n int64
	for _, s := range statuses {
		if s.Classify() == c {
			n++
		}
	}
	return n
}

func CountPending[S Classifiable](statuses []S) int64 {
	return Count(statuses, Pending)
}

func CountComplete[S Classifiable](statuses []S) int64 {
	return Count(statuses, Complete)
}
