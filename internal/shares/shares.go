// Package shares splits an expense across group participants by integer
// percentages that must total exactly 100.
package shares

import (
	"errors"
	"fmt"

	"github.com/cleared-dev/splitfeed/internal/model"
)

const (
	// Total is the sum every valid allocation must reach.
	Total = 100
	// BasisPointsPerPercent converts a percent to ledger weight units.
	BasisPointsPerPercent = 100
)

var (
	ErrAllocationInvalid  = errors.New("share allocation must total exactly 100%")
	ErrPercentOutOfRange  = errors.New("share percent must be between 0 and 100")
	ErrUnknownParticipant = errors.New("unknown participant")
)

// Weight is one participant's share in basis points (percent x 100).
type Weight struct {
	ParticipantID string
	BasisPoints   int
}

// Allocation maps an ordered set of participants to integer percentages.
// Edits never rebalance other participants; callers inspect Sum and
// uploads are refused unless Validate passes.
type Allocation struct {
	participants []model.Participant
	byID         map[string]int
	byName       map[string]int
}

// Default builds the equal split for participants. The participant whose ID
// is selfID (if any) is moved to the front. Everyone gets 100/N and the
// remainder is handed out one unit at a time from the end of the list, so
// the total is exactly 100 and no two shares differ by more than one.
//
// The last participant always holds the largest share, but does not take
// the whole remainder alone: seven participants split as 14 x5 then 15 x2,
// not 14 x6 then 16.
func Default(participants []model.Participant, selfID string) *Allocation {
	ordered := make([]model.Participant, 0, len(participants))
	for _, p := range participants {
		if selfID != "" && p.ID == selfID {
			ordered = append(ordered, p)
		}
	}
	for _, p := range participants {
		if selfID == "" || p.ID != selfID {
			ordered = append(ordered, p)
		}
	}

	n := len(ordered)
	if n > 0 {
		base, rem := Total/n, Total%n
		for i := range ordered {
			ordered[i].SharePercent = base
			if i >= n-rem {
				ordered[i].SharePercent++
			}
		}
	}
	return newAllocation(ordered)
}

// FromPercents builds an allocation from explicit percentages keyed by
// participant name. Participants missing from percents get 0.
func FromPercents(participants []model.Participant, percents map[string]int) (*Allocation, error) {
	ordered := make([]model.Participant, len(participants))
	copy(ordered, participants)
	a := newAllocation(ordered)
	for i := range a.participants {
		a.participants[i].SharePercent = 0
	}
	for name, pct := range percents {
		if err := a.SetByName(name, pct); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func newAllocation(ordered []model.Participant) *Allocation {
	a := &Allocation{
		participants: ordered,
		byID:         make(map[string]int, len(ordered)),
		byName:       make(map[string]int, len(ordered)),
	}
	for i, p := range ordered {
		a.byID[p.ID] = i
		a.byName[p.Name] = i
	}
	return a
}

// Set changes one participant's percent. Other shares are left untouched.
func (a *Allocation) Set(participantID string, percent int) error {
	i, ok := a.byID[participantID]
	if !ok {
		return fmt.Errorf("%w: id %q", ErrUnknownParticipant, participantID)
	}
	return a.set(i, percent)
}

// SetByName changes one participant's percent, addressing it by name.
func (a *Allocation) SetByName(name string, percent int) error {
	i, ok := a.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParticipant, name)
	}
	return a.set(i, percent)
}

func (a *Allocation) set(i, percent int) error {
	if percent < 0 || percent > Total {
		return fmt.Errorf("%w: got %d", ErrPercentOutOfRange, percent)
	}
	a.participants[i].SharePercent = percent
	return nil
}

// Percent returns the current percent for a participant ID.
func (a *Allocation) Percent(participantID string) (int, bool) {
	i, ok := a.byID[participantID]
	if !ok {
		return 0, false
	}
	return a.participants[i].SharePercent, true
}

// Sum returns the live total of all percentages.
func (a *Allocation) Sum() int {
	sum := 0
	for _, p := range a.participants {
		sum += p.SharePercent
	}
	return sum
}

// Validate returns ErrAllocationInvalid unless the shares total exactly 100.
func (a *Allocation) Validate() error {
	if a == nil {
		return fmt.Errorf("%w: no allocation", ErrAllocationInvalid)
	}
	if sum := a.Sum(); sum != Total {
		return fmt.Errorf("%w (current: %d%%)", ErrAllocationInvalid, sum)
	}
	return nil
}

// Weights converts the allocation to basis points in participant order.
// The conversion is exact: weights total 10000 whenever Sum is 100.
func (a *Allocation) Weights() []Weight {
	w := make([]Weight, len(a.participants))
	for i, p := range a.participants {
		w[i] = Weight{ParticipantID: p.ID, BasisPoints: p.SharePercent * BasisPointsPerPercent}
	}
	return w
}

// Participants returns an ordered copy with SharePercent populated.
func (a *Allocation) Participants() []model.Participant {
	out := make([]model.Participant, len(a.participants))
	copy(out, a.participants)
	return out
}

// Len returns the number of participants.
func (a *Allocation) Len() int {
	return len(a.participants)
}
