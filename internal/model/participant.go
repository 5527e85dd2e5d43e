package model

// Participant is a member of a ledger group with its share of each expense.
type Participant struct {
	ID           string
	Name         string
	SharePercent int // 0..100
}

// Group is the read-through view of a remote ledger group.
type Group struct {
	ID           string
	Name         string
	URL          string
	Participants []Participant
}

// ParticipantByName returns the participant with the given name.
func (g Group) ParticipantByName(name string) (Participant, bool) {
	for _, p := range g.Participants {
		if p.Name == name {
			return p, true
		}
	}
	return Participant{}, false
}

// ParticipantByID returns the participant with the given ID.
func (g Group) ParticipantByID(id string) (Participant, bool) {
	for _, p := range g.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// Names returns participant names in group order.
func (g Group) Names() []string {
	names := make([]string, len(g.Participants))
	for i, p := range g.Participants {
		names[i] = p.Name
	}
	return names
}
