package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionBucketsAndNumbering(t *testing.T) {
	raw := []Availability{
		{Time: "17:00", Available: true},
		{Time: "10:15", Available: true},
		{Time: "10:00", Available: true},
		{Time: "19:45", Available: true},
	}

	slots := DefaultHours().Partition(raw)

	// Morning first in backend order, then afternoon in backend order.
	require.Len(t, slots, 4)
	assert.Equal(t, Slot{Time: "10:15", Bucket: BucketMorning}, slots[0])
	assert.Equal(t, Slot{Time: "10:00", Bucket: BucketMorning}, slots[1])
	assert.Equal(t, Slot{Time: "17:00", Bucket: BucketAfternoon}, slots[2])
	assert.Equal(t, Slot{Time: "19:45", Bucket: BucketAfternoon}, slots[3])
}

func TestPartitionDropsUnavailableAndOffGrid(t *testing.T) {
	raw := []Availability{
		{Time: "10:00", Available: false}, // booked
		{Time: "13:00", Available: true},  // outside both hour sets
		{Time: "18:30", Available: true},
	}

	slots := DefaultHours().Partition(raw)

	require.Len(t, slots, 1)
	assert.Equal(t, "18:30", slots[0].Time)
	assert.Equal(t, BucketAfternoon, slots[0].Bucket)
}

func TestPartitionEmpty(t *testing.T) {
	assert.Empty(t, DefaultHours().Partition(nil))
}

func TestDefaultOverbookingHours(t *testing.T) {
	hours := DefaultOverbookingHours()
	assert.Equal(t, []string{"11:00", "11:15", "11:30", "11:45", "12:00"}, hours.Morning)
	assert.Equal(t, []string{"19:00", "19:15", "19:30", "19:45", "20:00"}, hours.Afternoon)
}
