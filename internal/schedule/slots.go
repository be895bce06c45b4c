package schedule

// Bucket labels the part of the day a slot belongs to.
type Bucket string

const (
	BucketMorning   Bucket = "morning"
	BucketAfternoon Bucket = "afternoon"
)

// Availability is a raw backend slot before bucketing.
type Availability struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// Slot is an offerable time, labeled with its bucket. The position of a Slot
// in the candidate list is the 1-based number the user echoes back.
type Slot struct {
	Time   string `json:"time"`
	Bucket Bucket `json:"bucket"`
}

// Hours holds the ordered morning and afternoon time-of-day sets the practice
// actually attends. Anything outside these sets is never offered, whatever
// the backend returns.
type Hours struct {
	Morning   []string
	Afternoon []string
}

// DefaultHours returns the regular consultation grid: 10:00-11:45 and
// 17:00-19:45 in 15-minute steps.
func DefaultHours() Hours {
	return Hours{
		Morning:   []string{"10:00", "10:15", "10:30", "10:45", "11:00", "11:15", "11:30", "11:45"},
		Afternoon: []string{"17:00", "17:15", "17:30", "17:45", "18:00", "18:15", "18:30", "18:45", "19:00", "19:15", "19:30", "19:45"},
	}
}

// DefaultOverbookingHours returns the same-day overbooking grid appended to
// the end of each shift.
func DefaultOverbookingHours() Hours {
	return Hours{
		Morning:   []string{"11:00", "11:15", "11:30", "11:45", "12:00"},
		Afternoon: []string{"19:00", "19:15", "19:30", "19:45", "20:00"},
	}
}

// Partition filters the backend's availability list down to the allowed hour
// sets and labels each surviving slot. Morning slots come first, then
// afternoon, each preserving the backend's order, so candidate numbering is
// continuous across both buckets.
func (h Hours) Partition(raw []Availability) []Slot {
	morning := make([]Slot, 0, len(raw))
	afternoon := make([]Slot, 0, len(raw))

	for _, a := range raw {
		if !a.Available {
			continue
		}
		switch {
		case contains(h.Morning, a.Time):
			morning = append(morning, Slot{Time: a.Time, Bucket: BucketMorning})
		case contains(h.Afternoon, a.Time):
			afternoon = append(afternoon, Slot{Time: a.Time, Bucket: BucketAfternoon})
		}
	}

	return append(morning, afternoon...)
}

func contains(set []string, value string) bool {
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}
