package models

// TagState is the configuration state of a scanned tag.
type TagState int

const (
	TagNotFound TagState = iota
	TagUnconfigured
	TagConfigured
)

func (s TagState) String() string {
	switch s {
	case TagUnconfigured:
		return "unconfigured"
	case TagConfigured:
		return "configured"
	default:
		return "not_found"
	}
}

// Tag is the vehicle profile bound to a physical NFC tag. ID and TagID hold
// the same provisioning hash; TagID is blanked in garage responses.
type Tag struct {
	ID           string   `json:"id"`
	TagID        string   `json:"tagId"`
	Make         string   `json:"make"`
	Model        string   `json:"model"`
	Year         int      `json:"year"`
	Vehicle      string   `json:"vehicle"`
	Style        string   `json:"style"`
	Engine       int      `json:"engine"`
	Fuel         []string `json:"fuel"`
	Transmission string   `json:"transmission"`
	Color        string   `json:"color"`
	VinNumber    *string  `json:"vinNumber,omitempty"`
	LicencePlate *string  `json:"licencePlate,omitempty"`
	IsConfigured bool     `json:"isConfigured"`
}

// State maps a loaded tag to its configuration state.
func (t *Tag) State() TagState {
	if t == nil {
		return TagNotFound
	}
	if t.IsConfigured {
		return TagConfigured
	}
	return TagUnconfigured
}

// TagProfile is the client-supplied vehicle description used to configure a
// tag. TagID carries the one-time token that authorizes the change.
type TagProfile struct {
	TagID        string   `json:"tagId"`
	Make         string   `json:"make"`
	Model        string   `json:"model"`
	Year         int      `json:"year"`
	Vehicle      string   `json:"vehicle"`
	Style        string   `json:"style"`
	Engine       int      `json:"engine"`
	Fuel         []string `json:"fuel"`
	Transmission string   `json:"transmission"`
	Color        string   `json:"color"`
	VinNumber    *string  `json:"vinNumber,omitempty"`
	LicencePlate *string  `json:"licencePlate,omitempty"`
}

// ApplyTo copies the profile's vehicle fields onto t and marks it configured.
func (p *TagProfile) ApplyTo(t *Tag) {
	t.Make = p.Make
	t.Model = p.Model
	t.Year = p.Year
	t.Vehicle = p.Vehicle
	t.Style = p.Style
	t.Engine = p.Engine
	t.Fuel = p.Fuel
	t.Transmission = p.Transmission
	t.Color = p.Color
	t.VinNumber = p.VinNumber
	t.LicencePlate = p.LicencePlate
	t.IsConfigured = true
}
