package reputation_test

import (
	"testing"

	"github.com/credence-id/credence/internal/reputation"
)

func TestLevelForScore(t *testing.T) {
	cases := []struct {
		score int64
		want  int
	}{
		{-500, 1},
		{0, 1},
		{99, 1},
		{100, 2},
		{299, 2},
		{300, 3},
		{599, 3},
		{600, 4},
		{999, 4},
		{1000, 5},
		{100000, 5},
	}
	for _, c := range cases {
		if got := reputation.LevelForScore(c.score); got != c.want {
			t.Errorf("LevelForScore(%d) = %d, want %d", c.score, got, c.want)
		}
	}
}
