package models

import (
	"reflect"
	"testing"
)

func TestLabelAddresses(t *testing.T) {
	tests := []struct {
		name    string
		primary string
		public  []string
		private []string
		expect  map[string]string
	}{
		{
			"primary first, rest sorted",
			"50.50.50.50",
			[]string{"60.60.60.60", "50.50.50.50"},
			[]string{"5.6.7.8", "1.2.3.4"},
			map[string]string{
				"public0_v4":  "50.50.50.50",
				"public1_v4":  "60.60.60.60",
				"private0_v4": "1.2.3.4",
				"private1_v4": "5.6.7.8",
			},
		},
		{
			"no primary promotes lowest public",
			"",
			[]string{"9.9.9.9", "8.8.8.8"},
			nil,
			map[string]string{"public0_v4": "8.8.8.8", "public1_v4": "9.9.9.9"},
		},
		{
			"private only",
			"",
			nil,
			[]string{"10.0.0.2", "", "10.0.0.1"},
			map[string]string{"private0_v4": "10.0.0.1", "private1_v4": "10.0.0.2"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := LabelAddresses(tc.primary, tc.public, tc.private)
			if !reflect.DeepEqual(got, tc.expect) {
				t.Errorf("LabelAddresses = %v, want %v", got, tc.expect)
			}
		})
	}
}

func TestOrderedLabels(t *testing.T) {
	ips := map[string]string{
		"private1_v4": "b",
		"public10_v4": "c",
		"public0_v4":  "a",
		"private0_v4": "d",
		"public2_v4":  "e",
	}
	got := OrderedLabels(ips)
	want := []string{"public0_v4", "public2_v4", "public10_v4", "private0_v4", "private1_v4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("OrderedLabels = %v, want %v", got, want)
	}
}

func TestPublicAddresses(t *testing.T) {
	ips := map[string]string{"public0_v4": "1.1.1.1", "private0_v4": "10.0.0.1", "public1_v4": "2.2.2.2"}
	got := PublicAddresses(ips)
	want := []string{"1.1.1.1", "2.2.2.2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PublicAddresses = %v, want %v", got, want)
	}
	if got := PublicAddresses(nil); got != nil {
		t.Errorf("PublicAddresses(nil) = %v, want nil", got)
	}
}
