package models

import "time"

// Record is one service history entry of a tag.
type Record struct {
	ID              string   `json:"id"`
	TagID           string   `json:"tagId"`
	EnteredDate     string   `json:"enteredDate"`
	ServicedDate    string   `json:"servicedDate"`
	MechanicName    string   `json:"mechanicName"`
	Odometer        string   `json:"odometer"`
	Certified       *string  `json:"certified,omitempty"`
	ServiceCategory string   `json:"serviceCategory"`
	ServiceType     string   `json:"serviceType"`
	ServiceOption   string   `json:"serviceOption"`
	Comment         string   `json:"comment"`
	FileKeys        []string `json:"fileKeys"`
}

var servicedDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "02/01/2006"}

// ServicedAt parses ServicedDate. Unparseable dates sort as the zero time.
func (r *Record) ServicedAt() time.Time {
	for _, layout := range servicedDateLayouts {
		if t, err := time.Parse(layout, r.ServicedDate); err == nil {
			return t
		}
	}
	return time.Time{}
}

// RecordPatch carries the fields of an update; empty strings mean
// "unchanged" and FileKeys are appended.
type RecordPatch struct {
	ID              string   `json:"id"`
	Token           string   `json:"token"`
	ServicedDate    string   `json:"servicedDate"`
	MechanicName    string   `json:"mechanicName"`
	Odometer        string   `json:"odometer"`
	Certified       *string  `json:"certified,omitempty"`
	ServiceCategory string   `json:"serviceCategory"`
	ServiceType     string   `json:"serviceType"`
	ServiceOption   string   `json:"serviceOption"`
	Comment         string   `json:"comment"`
	FileKeys        []string `json:"fileKeys"`
}

// ApplyTo merges the non-empty fields of p into r.
func (p *RecordPatch) ApplyTo(r *Record) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&r.ServicedDate, p.ServicedDate)
	set(&r.MechanicName, p.MechanicName)
	set(&r.Odometer, p.Odometer)
	set(&r.ServiceCategory, p.ServiceCategory)
	set(&r.ServiceType, p.ServiceType)
	set(&r.ServiceOption, p.ServiceOption)
	set(&r.Comment, p.Comment)
	if p.Certified != nil {
		r.Certified = p.Certified
	}
	r.FileKeys = append(r.FileKeys, p.FileKeys...)
}
