package model

import "testing"

func TestBlocForWeek(t *testing.T) {
	tests := []struct {
		week int
		want int
	}{
		{1, 1},
		{12, 1},
		{13, 2},
		{24, 2},
		{25, 3},
		{36, 3},
	}
	for _, tt := range tests {
		if got := BlocForWeek(tt.week); got != tt.want {
			t.Errorf("BlocForWeek(%d) = %d, want %d", tt.week, got, tt.want)
		}
	}
}

func TestBlocName(t *testing.T) {
	if got := BlocName(2); got != "Auditory Talents" {
		t.Errorf("BlocName(2) = %q", got)
	}
	if got := BlocName(4); got != "" {
		t.Errorf("BlocName(4) = %q, want empty", got)
	}
}

func TestValidWeek(t *testing.T) {
	for _, w := range []int{0, -1, 37} {
		if ValidWeek(w) {
			t.Errorf("week %d should be invalid", w)
		}
	}
	for _, w := range []int{1, 18, 36} {
		if !ValidWeek(w) {
			t.Errorf("week %d should be valid", w)
		}
	}
}
