package cmd

import "testing"

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		hour    int
		minute  int
		wantNil bool
		wantErr bool
	}{
		{in: "", wantNil: true},
		{in: "09:00", hour: 9},
		{in: "23:59", hour: 23, minute: 59},
		{in: "7:30", hour: 7, minute: 30},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseTimeOfDay(%q) = %v, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseTimeOfDay(%q): %v", tc.in, err)
			continue
		}
		if tc.wantNil {
			if got != nil {
				t.Errorf("parseTimeOfDay(%q) = %v, want nil", tc.in, got)
			}
			continue
		}
		if got == nil || got.Hour != tc.hour || got.Minute != tc.minute {
			t.Errorf("parseTimeOfDay(%q) = %+v, want %02d:%02d", tc.in, got, tc.hour, tc.minute)
		}
	}
}
