package stats

// DayKey formats the calendar day counters are keyed by.
const DayKey = "2006-01-02"

// DayStats is one day's worth of registration activity. Counters only ever
// grow; deleting a team later does not decrement them.
type DayStats struct {
	Day           string
	Registrations int
	Approved      int
	Rejected      int
}
