package domain

import "time"

// Vote is one participant's current ballot in a room. Each user holds at
// most one vote per room; re-voting replaces the previous ballot.
type Vote struct {
	ID        string
	RoomID    string
	OptionID  string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tally is the aggregate vote state for a room.
type Tally struct {
	TotalVotes int
	Counts     map[string]int // option ID -> vote count
}

// Leaders returns the option IDs holding the maximum count, in no
// particular order. Empty when no votes were cast.
func (t Tally) Leaders() []string {
	maxCount := 0
	for _, c := range t.Counts {
		if c > maxCount {
			maxCount = c
		}
	}
	if maxCount == 0 {
		return nil
	}
	var leaders []string
	for id, c := range t.Counts {
		if c == maxCount {
			leaders = append(leaders, id)
		}
	}
	return leaders
}
