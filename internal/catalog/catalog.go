package catalog

import (
	"time"

	"bayline/internal/models"
)

// Catalog is the static service table, loaded from config at startup and
// immutable afterwards. Lookup is exact and case-sensitive.
type Catalog struct {
	byName  map[string]models.Service
	ordered []models.Service
}

func New(services []models.Service) *Catalog {
	c := &Catalog{
		byName:  make(map[string]models.Service, len(services)),
		ordered: make([]models.Service, len(services)),
	}
	copy(c.ordered, services)
	for _, s := range services {
		c.byName[s.Name] = s
	}
	return c
}

func (c *Catalog) Lookup(name string) (models.Service, bool) {
	s, ok := c.byName[name]
	return s, ok
}

// Duration resolves a service name to its booked duration. Unknown names get
// the one-hour default so free-form tool-call input still books something;
// callers that care about the fallback check Lookup first.
func (c *Catalog) Duration(name string) time.Duration {
	if s, ok := c.byName[name]; ok {
		return time.Duration(s.DurationHours) * time.Hour
	}
	return models.DefaultDurationHours * time.Hour
}

// Services returns the catalog in config order for rendering.
func (c *Catalog) Services() []models.Service {
	out := make([]models.Service, len(c.ordered))
	copy(out, c.ordered)
	return out
}
