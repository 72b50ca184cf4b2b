package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVehicleString(t *testing.T) {
	assert.Equal(t, "2019 Honda Civic", Vehicle{Year: "2019", Make: "Honda", Model: "Civic"}.String())
	assert.Equal(t, "Ford F-150", Vehicle{Make: "Ford", Model: "F-150"}.String())
	assert.Equal(t, "", Vehicle{}.String())
	assert.True(t, Vehicle{}.IsZero())
	assert.False(t, Vehicle{Make: "Ford"}.IsZero())
}

func TestAppointmentSummary(t *testing.T) {
	a := Appointment{ServiceName: "Oil Change", CustomerName: "James Peterson"}
	assert.Equal(t, "Oil Change - James Peterson", a.Summary())
}

func TestBookingStatusValues(t *testing.T) {
	// Terminal statuses double as metric labels and wire values.
	assert.Equal(t, "confirmed", BookingConfirmed)
	assert.Equal(t, "denied", BookingDenied)
	assert.Equal(t, "failed", BookingFailed)
}
