package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmail(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"johndoe@gmail.com", true},
		{"first.last@sub.example.my", true},
		{"not-an-email", false},
		{"a@b", false},
		{"two@@example.com", false},
		{"a@b@c.com", false},
		{"john doe@gmail.com", false},
		{"@example.com", false},
		{"", false},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.want, IsEmail(tc.value), "IsEmail(%q)", tc.value)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "johndoe@gmail.com", NormalizeEmail("  JohnDoe@Gmail.COM "))
}
