package topic

import "testing"

func TestMatch(t *testing.T) {
	cases := []struct {
		filter, topic string
		want          bool
	}{
		{"devices/a/data", "devices/a/data", true},
		{"devices/+/data", "devices/a/data", true},
		{"devices/+/data", "devices/a/b/data", false},
		{"devices/#", "devices/a/data", true},
		{"devices/#", "devices", true},
		{"devices/a/#", "devices/a", true},
		{"#", "devices/a/data", true},
		{"#", "$SYS/stats", false},
		{"$SYS/+", "$SYS/stats", true},
		{"+/+", "devices/a", true},
		{"devices/a", "devices/a/data", false},
	}
	for _, tc := range cases {
		if got := Match(tc.filter, tc.topic); got != tc.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tc.filter, tc.topic, got, tc.want)
		}
	}
}

func TestValidFilter(t *testing.T) {
	cases := []struct {
		filter string
		want   bool
	}{
		{"devices/a/data", true},
		{"devices/+/data", true},
		{"devices/#", true},
		{"devices/a#", false},
		{"devices/a+", false},
		{"devices/#/data", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidFilter(tc.filter); got != tc.want {
			t.Errorf("ValidFilter(%q) = %v, want %v", tc.filter, got, tc.want)
		}
	}
}
