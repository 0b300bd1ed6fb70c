package rollup

// Event is the lifecycle step that produced a change.
type Event int

const (
	EventCreated Event = iota + 1
	EventUpdated
	EventDeleted
)

func (e Event) String() string {
	switch e {
	case EventCreated:
		return "created"
	case EventUpdated:
		return "updated"
	case EventDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Field names a column whose change may trigger a recompute.
type Field string

const (
	FieldStatus     Field = "status"
	FieldCost       Field = "cost"
	FieldIsBillable Field = "is_billable"
	FieldAmount     Field = "amount"
	FieldPercentage Field = "percentage"
	FieldType       Field = "type"
)

// Change describes a child mutation handed to the cascade.
type Change struct {
	Event  Event
	Fields map[Field]struct{}
}

func Created() Change { return Change{Event: EventCreated} }

func Deleted() Change { return Change{Event: EventDeleted} }

func Updated(fields ...Field) Change {
	set := make(map[Field]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return Change{Event: EventUpdated, Fields: set}
}

// Touches reports whether the change affects any of the given fields.
// Creates and deletes touch every field.
func (c Change) Touches(fields ...Field) bool {
	if c.Event != EventUpdated {
		return true
	}
	for _, f := range fields {
		if _, ok := c.Fields[f]; ok {
			return true
		}
	}
	return false
}

// Empty is true for an update that changed nothing tracked.
func (c Change) Empty() bool {
	return c.Event == EventUpdated && len(c.Fields) == 0
}

// Differ collects changed fields while a service applies an update.
type Differ struct {
	fields []Field
}

func (d *Differ) Mark(field Field, changed bool) *Differ {
	if changed {
		d.fields = append(d.fields, field)
	}
	return d
}

func (d *Differ) Change() Change {
	return Updated(d.fields...)
}
