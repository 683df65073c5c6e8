package domain

import "testing"

func TestRiskLevelFor(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{0, RiskLevelLow},
		{39, RiskLevelLow},
		{40, RiskLevelMedium},
		{69, RiskLevelMedium},
		{70, RiskLevelHigh},
		{100, RiskLevelHigh},
	}

	for _, tc := range cases {
		if got := RiskLevelFor(tc.score); got != tc.want {
			t.Errorf("RiskLevelFor(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestGradeFor(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{300, GradePoor},
		{549, GradePoor},
		{550, GradeFair},
		{649, GradeFair},
		{650, GradeGood},
		{749, GradeGood},
		{750, GradeExcellent},
		{900, GradeExcellent},
	}

	for _, tc := range cases {
		if got := GradeFor(tc.score); got != tc.want {
			t.Errorf("GradeFor(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
