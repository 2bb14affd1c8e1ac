package schedule

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aichorus/internal/model"
)

func testRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func TestPlanEmptyRoster(t *testing.T) {
	_, err := Plan(nil, 10, 0, testRNG(1))
	assert.ErrorIs(t, err, ErrEmptyRoster)
}

func TestPlanRegularsOnly(t *testing.T) {
	roster := []Member{
		{ID: "r1", Role: model.RoleAnswer},
		{ID: "r2", Role: model.RoleQuestion},
		{ID: "r3", Role: model.RoleHidden},
	}

	order, err := Plan(roster, 100, 0, testRNG(7))
	require.NoError(t, err)
	require.Len(t, order, 100)

	ids := map[string]bool{"r1": true, "r2": true, "r3": true}
	for _, id := range order {
		assert.True(t, ids[id], "unexpected id %s", id)
	}
}

func TestPlanZeroLength(t *testing.T) {
	roster := []Member{{ID: "r1", Role: model.RoleAnswer}}

	order, err := Plan(roster, 0, 0, testRNG(1))
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestPlanCreatorsOnly(t *testing.T) {
	roster := []Member{
		{ID: "c1", Role: model.RoleContentCreator},
		{ID: "c2", Role: model.RoleContentCreator},
	}

	order, err := Plan(roster, 20, 0, testRNG(3))
	require.NoError(t, err)
	require.Len(t, order, 20)
	for _, id := range order {
		assert.Contains(t, []string{"c1", "c2"}, id)
	}
}

func TestPlanCreatorWithinEveryElevenPicks(t *testing.T) {
	roster := []Member{
		{ID: "r1", Role: model.RoleAnswer},
		{ID: "r2", Role: model.RoleQuestion},
		{ID: "c1", Role: model.RoleContentCreator},
	}

	for seed := int64(0); seed < 20; seed++ {
		order, err := Plan(roster, 300, 0, testRNG(seed))
		require.NoError(t, err)
		require.Len(t, order, 300)

		streak := 0
		for i, id := range order {
			if id == "c1" {
				streak = 0
				continue
			}
			streak++
			assert.LessOrEqual(t, streak, DefaultCreatorThreshold,
				"seed %d: %d consecutive regulars ending at %d", seed, streak, i)
		}
	}
}

func TestPlanFreshCounterScenario(t *testing.T) {
	// Two regulars and one creator: the first ten picks are regular, the
	// eleventh is the creator, then the counter restarts.
	roster := []Member{
		{ID: "r1", Role: model.RoleAnswer},
		{ID: "r2", Role: model.RoleAnswer},
		{ID: "c1", Role: model.RoleContentCreator},
	}

	order, err := Plan(roster, 12, 0, testRNG(42))
	require.NoError(t, err)
	require.Len(t, order, 12)

	creatorCount := 0
	for i := 0; i < 11; i++ {
		if order[i] == "c1" {
			creatorCount++
			assert.Equal(t, 10, i, "creator should appear exactly at the threshold")
		}
	}
	assert.Equal(t, 1, creatorCount)
	assert.NotEqual(t, "c1", order[11])
}

func TestPlanNoRegularsForcesCreatorEveryTurn(t *testing.T) {
	roster := []Member{
		{ID: "c1", Role: model.RoleContentCreator},
	}

	order, err := Plan(roster, 5, 0, testRNG(9))
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c1", "c1", "c1", "c1"}, order)
}

func TestPlanCustomThreshold(t *testing.T) {
	roster := []Member{
		{ID: "r1", Role: model.RoleAnswer},
		{ID: "c1", Role: model.RoleContentCreator},
	}

	order, err := Plan(roster, 9, 3, testRNG(5))
	require.NoError(t, err)
	// threshold 3: r r r c r r r c r
	assert.Equal(t, []string{"r1", "r1", "r1", "c1", "r1", "r1", "r1", "c1", "r1"}, order)
}

func TestPlanNilRNG(t *testing.T) {
	roster := []Member{{ID: "r1", Role: model.RoleAnswer}}

	order, err := Plan(roster, 3, 0, nil)
	require.NoError(t, err)
	assert.Len(t, order, 3)
}
