package handlers

import "testing"

func TestAmountsMatch(t *testing.T) {
	cases := []struct {
		supplied, onFile float64
		want             bool
	}{
		{25.50, 25.50, true},
		{25.504, 25.50, true},  // rounds to the same cent
		{25.495, 25.50, true},  // rounds up
		{25.49, 25.50, false},
		{25.51, 25.50, false},
		{0, 0, true},
		{100, 99.99, false},
	}
	for _, tc := range cases {
		if got := amountsMatch(tc.supplied, tc.onFile); got != tc.want {
			t.Errorf("amountsMatch(%v, %v) = %v, want %v", tc.supplied, tc.onFile, got, tc.want)
		}
	}
}

func TestRound2(t *testing.T) {
	if got := round2(10.005); got != 10.01 {
		t.Errorf("round2(10.005) = %v", got)
	}
	if got := round2(10.004); got != 10.0 {
		t.Errorf("round2(10.004) = %v", got)
	}
}

func TestAverage(t *testing.T) {
	cases := []struct {
		ratings []int64
		want    float64
	}{
		{nil, 0},
		{[]int64{}, 0},
		{[]int64{5}, 5},
		{[]int64{5, 4, 3, 5}, 4.25},
		{[]int64{1, 2}, 1.5},
	}
	for _, tc := range cases {
		if got := average(tc.ratings); got != tc.want {
			t.Errorf("average(%v) = %v, want %v", tc.ratings, got, tc.want)
		}
	}
}

func TestParseOptionalInt(t *testing.T) {
	if got := parseOptionalInt(""); got != nil {
		t.Errorf("parseOptionalInt(\"\") = %v, want nil", got)
	}
	if got := parseOptionalInt("abc"); got != nil {
		t.Errorf("parseOptionalInt(\"abc\") = %v, want nil", got)
	}
	got := parseOptionalInt("4")
	if got == nil || *got != 4 {
		t.Errorf("parseOptionalInt(\"4\") = %v, want 4", got)
	}
}

func TestNullableString(t *testing.T) {
	if ns := nullableString(""); ns.Valid {
		t.Error("empty string must map to NULL")
	}
	ns := nullableString("great ride")
	if !ns.Valid || ns.String != "great ride" {
		t.Errorf("nullableString = %+v", ns)
	}
}
