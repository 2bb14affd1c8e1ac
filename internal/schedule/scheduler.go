// Package schedule plans the speaking order for a session's personas.
// Planning is pure: the interleave counter is local state, randomness comes
// from an injectable source, and nothing is read from or written to the
// message log.
package schedule

import (
	"errors"
	"math/rand"
	"time"

	"aichorus/internal/model"
)

// DefaultCreatorThreshold is the number of consecutive regular picks after
// which a content creator is forced into the sequence.
const DefaultCreatorThreshold = 10

var (
	ErrEmptyRoster = errors.New("session roster is empty")
	ErrNoRegulars  = errors.New("no regular personas to schedule")
)

// Member is one roster entry as seen by the planner.
type Member struct {
	ID   string
	Role model.BusinessRole
}

// Plan returns a sequence of exactly length persona IDs drawn from the
// roster. Content creators and regulars (every other business role,
// hidden included) are interleaved: after threshold consecutive regular
// picks, or whenever no regulars exist, a creator is picked and the run
// counter resets. Picks within a group are uniform with replacement.
//
// threshold <= 0 selects DefaultCreatorThreshold; rng may be nil.
func Plan(roster []Member, length int, threshold int, rng *rand.Rand) ([]string, error) {
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}
	if threshold <= 0 {
		threshold = DefaultCreatorThreshold
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if length < 0 {
		length = 0
	}

	var creators, regulars []Member
	for _, m := range roster {
		if m.Role == model.RoleContentCreator {
			creators = append(creators, m)
		} else {
			regulars = append(regulars, m)
		}
	}

	order := make([]string, 0, length)

	if len(creators) == 0 {
		if len(regulars) == 0 {
			return nil, ErrNoRegulars
		}
		for len(order) < length {
			order = append(order, regulars[rng.Intn(len(regulars))].ID)
		}
		return order, nil
	}

	streak := 0
	for len(order) < length {
		if streak >= threshold || len(regulars) == 0 {
			order = append(order, creators[rng.Intn(len(creators))].ID)
			streak = 0
			continue
		}
		order = append(order, regulars[rng.Intn(len(regulars))].ID)
		streak++
	}
	return order, nil
}
