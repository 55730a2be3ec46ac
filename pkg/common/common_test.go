package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidPhone(t *testing.T) {
	valid := []string{"9876543210", " 9876543210 ", "0000000000"}
	for _, s := range valid {
		assert.True(t, ValidPhone(s), "%q", s)
	}
	invalid := []string{"", "123456789", "12345678901", "98765abc10", "+919876543210", "98765 43210"}
	for _, s := range invalid {
		assert.False(t, ValidPhone(s), "%q", s)
	}
}

func TestSha256HashWithSalt(t *testing.T) {
	a := Sha256HashWithSalt("loomopos", "salt-a")
	b := Sha256HashWithSalt("loomopos", "salt-b")
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Sha256HashWithSalt("loomopos", "salt-a"))
}

func TestUUIDint64Monotonicish(t *testing.T) {
	a := UUIDint64()
	b := UUIDint64()
	assert.NotEqual(t, a, b)
	assert.Greater(t, b, a)
}

func TestDayStart(t *testing.T) {
	ts := time.Date(2025, 6, 15, 13, 45, 12, 0, time.Local)
	start := DayStart(ts)
	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, 15, start.Day())
}

func TestIfEmptyStr(t *testing.T) {
	assert.Equal(t, "default", IfEmptyStr("  ", "default"))
	assert.Equal(t, "x", IfEmptyStr("x", "default"))
}
