package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		command    string
		repetition int
	}{
		{"defaults", nil, "query", 50},
		{"command only", []string{"add"}, "add", 50},
		{"repetition only", []string{"10"}, "query", 10},
		{"command then repetition", []string{"add", "1000"}, "add", 1000},
		{"repetition then command", []string{"1000", "add"}, "add", 1000},
		{"last command wins", []string{"add", "delete"}, "delete", 50},
		{"last repetition wins", []string{"5", "query", "7"}, "query", 7},
		{"signed integers", []string{"-3"}, "query", -3},
		{"unknown command kept", []string{"bogus", "2"}, "bogus", 2},
		{"float is a command", []string{"1.5"}, "1.5", 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, repetition := ParseArgs(tt.args)
			assert.Equal(t, tt.command, command)
			assert.Equal(t, tt.repetition, repetition)
		})
	}
}
