package events

import (
	"reflect"
	"testing"
)

func TestParseTags(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"Food, Garden ,Delivery", []string{"Food", "Garden", "Delivery"}},
		{"Food", []string{"Food"}},
		{" , ,", nil},
		{"", nil},
		{"a,,b", []string{"a", "b"}},
	}
	for _, tc := range cases {
		got := ParseTags(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseTags(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
