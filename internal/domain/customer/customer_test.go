package customer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCustomer_BirthdayOn(t *testing.T) {
	bday := time.Date(1990, time.March, 14, 0, 0, 0, 0, time.UTC)
	c := &Customer{ID: 1, Birthdate: &bday}

	assert.True(t, c.BirthdayOn(time.Date(2026, time.March, 14, 18, 30, 0, 0, time.UTC)))
	assert.False(t, c.BirthdayOn(time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)))
	assert.False(t, c.BirthdayOn(time.Date(2026, time.April, 14, 0, 0, 0, 0, time.UTC)))
}

func TestCustomer_BirthdayOn_NoBirthdate(t *testing.T) {
	c := &Customer{ID: 1}
	assert.False(t, c.BirthdayOn(time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)))
}
