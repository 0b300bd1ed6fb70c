package rollup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangeTouches(t *testing.T) {
	assert.True(t, Created().Touches(FieldCost))
	assert.True(t, Deleted().Touches(FieldStatus))
	assert.True(t, Created().Touches())

	update := Updated(FieldStatus)
	assert.True(t, update.Touches(FieldStatus))
	assert.True(t, update.Touches(FieldCost, FieldStatus))
	assert.False(t, update.Touches(FieldCost, FieldIsBillable))
	assert.False(t, Updated().Touches(FieldAmount))
}

func TestDiffer(t *testing.T) {
	var diff Differ
	diff.Mark(FieldStatus, false).
		Mark(FieldCost, true).
		Mark(FieldIsBillable, false)

	change := diff.Change()
	assert.Equal(t, EventUpdated, change.Event)
	assert.True(t, change.Touches(FieldCost))
	assert.False(t, change.Touches(FieldStatus, FieldIsBillable))
	assert.False(t, change.Empty())

	var none Differ
	assert.True(t, none.Change().Empty())
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "created", EventCreated.String())
	assert.Equal(t, "updated", EventUpdated.String())
	assert.Equal(t, "deleted", EventDeleted.String())
	assert.Equal(t, "unknown", Event(0).String())
}
