package main

import (
	"strings"
	"testing"
)

func TestConfirmName(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"main\n", true},
		{"  main  \r\n", true},
		{"main", true},
		{"Main\n", false},
		{"yes\n", false},
		{"\n", false},
		{"", false},
		{"mainnet\nmain\n", false},
	}
	for _, tt := range tests {
		if got := confirmName(strings.NewReader(tt.input), "main"); got != tt.want {
			t.Errorf("confirmName(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
