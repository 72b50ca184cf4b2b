package calendar

import (
	"fmt"
	"regexp"
	"strings"

	"bayline/internal/models"
)

// Stored events use free-text fields: the summary is "<Service> - <Customer>"
// and the description holds three labeled lines. The format predates this
// codebase; keep it byte-compatible so old events still parse.

func EncodeDescription(c models.Contact, v models.Vehicle) string {
	return fmt.Sprintf("Phone: %s\nEmail: %s\nVehicle: %s", c.Phone, c.Email, v.String())
}

func ParseDescription(desc string) (models.Contact, models.Vehicle) {
	var contact models.Contact
	var vehicle models.Vehicle

	for _, line := range strings.Split(desc, "\n") {
		switch {
		case strings.HasPrefix(line, "Phone: "):
			contact.Phone = strings.TrimSpace(strings.TrimPrefix(line, "Phone: "))
		case strings.HasPrefix(line, "Email: "):
			contact.Email = strings.TrimSpace(strings.TrimPrefix(line, "Email: "))
		case strings.HasPrefix(line, "Vehicle: "):
			vehicle = parseVehicle(strings.TrimSpace(strings.TrimPrefix(line, "Vehicle: ")))
		}
	}

	return contact, vehicle
}

var yearToken = regexp.MustCompile(`^\d{4}$`)

// parseVehicle best-effort splits "2019 Honda Civic" back into fields. The
// single-line format is lossy; a model containing spaces survives, a missing
// make does not.
func parseVehicle(s string) models.Vehicle {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return models.Vehicle{}
	}

	var v models.Vehicle
	if yearToken.MatchString(fields[0]) {
		v.Year = fields[0]
		fields = fields[1:]
	}
	if len(fields) > 0 {
		v.Make = fields[0]
		fields = fields[1:]
	}
	if len(fields) > 0 {
		v.Model = strings.Join(fields, " ")
	}
	return v
}

// ParseSummary splits "<Service> - <Customer>". Events written by other
// tools may not match; the whole summary then counts as the service name.
func ParseSummary(summary string) (serviceName, customerName string) {
	parts := strings.SplitN(summary, " - ", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(summary), ""
}
