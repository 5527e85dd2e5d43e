package shares

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/splitfeed/internal/model"
)

func people(n int) []model.Participant {
	ps := make([]model.Participant, n)
	for i := range ps {
		ps[i] = model.Participant{ID: fmt.Sprintf("id-%d", i), Name: fmt.Sprintf("p%d", i)}
	}
	return ps
}

func TestDefault_SumsToHundred(t *testing.T) {
	for n := 1; n <= 101; n++ {
		a := Default(people(n), "")
		assert.Equal(t, 100, a.Sum(), "N=%d", n)
		assert.NoError(t, a.Validate(), "N=%d", n)
	}
}

func TestDefault_SpreadAtMostOne(t *testing.T) {
	for n := 1; n <= 101; n++ {
		ps := Default(people(n), "").Participants()
		lo, hi := ps[0].SharePercent, ps[0].SharePercent
		for _, p := range ps {
			lo = min(lo, p.SharePercent)
			hi = max(hi, p.SharePercent)
		}
		assert.LessOrEqual(t, hi-lo, 1, "N=%d", n)
	}
}

func TestDefault_RemainderAtEnd(t *testing.T) {
	ps := Default(people(7), "").Participants()
	want := []int{14, 14, 14, 14, 14, 15, 15}
	for i, p := range ps {
		assert.Equal(t, want[i], p.SharePercent, "participant %d", i)
	}
}

func TestDefault_ThreeParticipants(t *testing.T) {
	ps := Default(people(3), "").Participants()
	require.Len(t, ps, 3)
	assert.Equal(t, 33, ps[0].SharePercent)
	assert.Equal(t, 33, ps[1].SharePercent)
	assert.Equal(t, 34, ps[2].SharePercent)
}

func TestDefault_SelfMovedToFront(t *testing.T) {
	ps := Default(people(3), "id-2").Participants()
	require.Len(t, ps, 3)
	assert.Equal(t, "id-2", ps[0].ID)
	assert.Equal(t, "id-0", ps[1].ID)
	assert.Equal(t, "id-1", ps[2].ID)
	assert.Equal(t, 34, ps[2].SharePercent, "remainder goes to the last participant")
}

func TestDefault_UnknownSelfKeepsOrder(t *testing.T) {
	ps := Default(people(2), "nobody").Participants()
	assert.Equal(t, "id-0", ps[0].ID)
	assert.Equal(t, "id-1", ps[1].ID)
}

func TestDefault_Empty(t *testing.T) {
	a := Default(nil, "")
	assert.Equal(t, 0, a.Len())
	assert.ErrorIs(t, a.Validate(), ErrAllocationInvalid)
}

func TestSet_NoRebalance(t *testing.T) {
	a := Default(people(2), "")
	require.NoError(t, a.Set("id-0", 70))

	assert.Equal(t, 120, a.Sum())
	pct, ok := a.Percent("id-1")
	require.True(t, ok)
	assert.Equal(t, 50, pct, "other shares are untouched")
	assert.ErrorIs(t, a.Validate(), ErrAllocationInvalid)

	require.NoError(t, a.SetByName("p1", 30))
	assert.NoError(t, a.Validate())
}

func TestSet_OutOfRange(t *testing.T) {
	a := Default(people(2), "")
	assert.ErrorIs(t, a.Set("id-0", -1), ErrPercentOutOfRange)
	assert.ErrorIs(t, a.Set("id-0", 101), ErrPercentOutOfRange)
	assert.NoError(t, a.Set("id-0", 0))
	assert.NoError(t, a.Set("id-0", 100))
}

func TestSet_Unknown(t *testing.T) {
	a := Default(people(2), "")
	assert.ErrorIs(t, a.Set("missing", 10), ErrUnknownParticipant)
	assert.ErrorIs(t, a.SetByName("missing", 10), ErrUnknownParticipant)
}

func TestValidate_NinetyNine(t *testing.T) {
	a := Default(people(3), "")
	require.NoError(t, a.Set("id-2", 33))
	assert.Equal(t, 99, a.Sum())
	err := a.Validate()
	assert.ErrorIs(t, err, ErrAllocationInvalid)
	assert.Contains(t, err.Error(), "99%")
}

func TestValidate_Nil(t *testing.T) {
	var a *Allocation
	assert.ErrorIs(t, a.Validate(), ErrAllocationInvalid)
}

func TestWeights_SumToTenThousand(t *testing.T) {
	for n := 1; n <= 25; n++ {
		total := 0
		for _, w := range Default(people(n), "").Weights() {
			total += w.BasisPoints
		}
		assert.Equal(t, 10000, total, "N=%d", n)
	}
}

func TestWeights_CustomSplit(t *testing.T) {
	a, err := FromPercents(people(3), map[string]int{"p0": 25, "p1": 25, "p2": 50})
	require.NoError(t, err)

	w := a.Weights()
	require.Len(t, w, 3)
	assert.Equal(t, Weight{ParticipantID: "id-0", BasisPoints: 2500}, w[0])
	assert.Equal(t, Weight{ParticipantID: "id-1", BasisPoints: 2500}, w[1])
	assert.Equal(t, Weight{ParticipantID: "id-2", BasisPoints: 5000}, w[2])
}

func TestFromPercents_MissingAreZero(t *testing.T) {
	a, err := FromPercents(people(2), map[string]int{"p0": 100})
	require.NoError(t, err)
	pct, _ := a.Percent("id-1")
	assert.Equal(t, 0, pct)
	assert.NoError(t, a.Validate())
}

func TestFromPercents_UnknownName(t *testing.T) {
	_, err := FromPercents(people(2), map[string]int{"zed": 100})
	assert.ErrorIs(t, err, ErrUnknownParticipant)
}

func TestParticipants_IsCopy(t *testing.T) {
	a := Default(people(2), "")
	ps := a.Participants()
	ps[0].SharePercent = 99
	pct, _ := a.Percent("id-0")
	assert.Equal(t, 50, pct)
}

func TestDefault_LastHoldsLargest(t *testing.T) {
	for n := 1; n <= 101; n++ {
		ps := Default(people(n), "").Participants()
		last := ps[n-1].SharePercent
		for _, p := range ps {
			assert.LessOrEqual(t, p.SharePercent, last, "N=%d", n)
		}
	}
	ps := Default(people(7), "").Participants()
	got := make([]int, len(ps))
	for i, p := range ps {
		got[i] = p.SharePercent
	}
	assert.Equal(t, []int{14, 14, 14, 14, 14, 15, 15}, got)
}
