package approval

import "time"

// Type is the kind of grant an approval record represents.
type Type string

const (
	TypeLeave        Type = "leave"
	TypeWorkFromHome Type = "wfh"
)

// Record is an external leave or work-from-home grant, already expanded to a single date.
type Record struct {
	ID         string
	WorkerID   string
	Date       time.Time
	Type       Type
	Approved   bool
	ImportedAt time.Time
}
