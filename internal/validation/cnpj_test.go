package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCNPJ(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "known valid id", input: "11444777000161", want: true},
		{name: "formatted valid id", input: "11.444.777/0001-61", want: true},
		{name: "last digit altered", input: "11444777000162", want: false},
		{name: "first check digit altered", input: "11444777000151", want: false},
		{name: "too short", input: "1144477700016", want: false},
		{name: "too long", input: "114447770001610", want: false},
		{name: "empty", input: "", want: false},
		{name: "non numeric", input: "abcdefghijklmn", want: false},
		{name: "letters stripped leaves short id", input: "11444777x0161", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCNPJ(tt.input))
		})
	}
}

func TestValidCNPJRejectsRepeatedDigits(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		id := ""
		for i := 0; i < 14; i++ {
			id += string(d)
		}
		assert.False(t, ValidCNPJ(id), "placeholder id %s must be invalid", id)
	}
}
