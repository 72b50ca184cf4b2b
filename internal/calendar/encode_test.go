package calendar

import (
	"testing"

	"bayline/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDescription(t *testing.T) {
	desc := EncodeDescription(
		models.Contact{Phone: "(215) 822-1056", Email: "jp@example.com"},
		models.Vehicle{Year: "2019", Make: "Honda", Model: "Civic"},
	)
	assert.Equal(t, "Phone: (215) 822-1056\nEmail: jp@example.com\nVehicle: 2019 Honda Civic", desc)
}

func TestParseDescription(t *testing.T) {
	contact, vehicle := ParseDescription("Phone: 555-0101\nEmail: lm@example.com\nVehicle: 2021 Ford F-150 Lightning")
	assert.Equal(t, "555-0101", contact.Phone)
	assert.Equal(t, "lm@example.com", contact.Email)
	assert.Equal(t, models.Vehicle{Year: "2021", Make: "Ford", Model: "F-150 Lightning"}, vehicle)

	// No year token: first field becomes the make.
	_, vehicle = ParseDescription("Vehicle: Toyota Corolla")
	assert.Equal(t, models.Vehicle{Make: "Toyota", Model: "Corolla"}, vehicle)

	// Events written by hand may carry none of the labels.
	contact, vehicle = ParseDescription("blocked for cleaning")
	assert.Equal(t, models.Contact{}, contact)
	assert.True(t, vehicle.IsZero())
}

func TestDescriptionRoundTrip(t *testing.T) {
	contact := models.Contact{Phone: "555-0199", Email: "rc@example.com"}
	vehicle := models.Vehicle{Year: "2015", Make: "Subaru", Model: "Outback"}

	gotContact, gotVehicle := ParseDescription(EncodeDescription(contact, vehicle))
	assert.Equal(t, contact, gotContact)
	assert.Equal(t, vehicle, gotVehicle)
}

func TestParseSummary(t *testing.T) {
	service, customer := ParseSummary("Oil Change - James Peterson")
	assert.Equal(t, "Oil Change", service)
	assert.Equal(t, "James Peterson", customer)

	service, customer = ParseSummary("Shop closed")
	assert.Equal(t, "Shop closed", service)
	assert.Equal(t, "", customer)
}
