package companion

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStageIndex(t *testing.T) {
	idx, ok := StageIndex(StageStranger)
	require.True(t, ok)
	require.Equal(t, 0, idx)

	idx, ok = StageIndex(StageSoulmate)
	require.True(t, ok)
	require.Equal(t, len(stageOrder)-1, idx)

	_, ok = StageIndex("Nemesis")
	require.False(t, ok)
}

func TestAdvanceStage(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		proposed string
		want     string
		wantOK   bool
	}{
		{
			name:     "forward move is accepted",
			current:  StageStranger,
			proposed: StageAcquaintance,
			want:     StageAcquaintance,
			wantOK:   true,
		},
		{
			name:     "same stage is accepted",
			current:  StageFriend,
			proposed: StageFriend,
			want:     StageFriend,
			wantOK:   true,
		},
		{
			name:     "backward move is clamped to current",
			current:  StageCloseFriend,
			proposed: StageStranger,
			want:     StageCloseFriend,
			wantOK:   true,
		},
		{
			name:     "unknown proposal is rejected",
			current:  StageFriend,
			proposed: "Arch Rival",
			wantOK:   false,
		},
		{
			name:     "unknown current accepts a valid proposal",
			current:  "",
			proposed: StageFriend,
			want:     StageFriend,
			wantOK:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := advanceStage(tt.current, tt.proposed)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func TestStagesReturnsCopy(t *testing.T) {
	stages := Stages()
	require.Equal(t, len(stageOrder), len(stages))
	stages[0] = "mutated"
	require.Equal(t, StageStranger, stageOrder[0])
}
