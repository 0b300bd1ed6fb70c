package rollup

import "errors"

// ErrDanglingParent is returned when a child row references a parent that
// no longer exists. It aborts the surrounding transaction.
var ErrDanglingParent = errors.New("dangling_parent")
