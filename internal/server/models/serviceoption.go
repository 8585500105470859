package models

// ServiceOption is a node of the service-option tree returned to clients.
type ServiceOption struct {
	ID           int              `json:"id"`
	Name         string           `json:"name"`
	Description  *string          `json:"description"`
	ServiceTypes []string         `json:"serviceTypes"`
	Children     []*ServiceOption `json:"children"`
}

// FlatServiceOption is one (option, parent) row before tree assembly. An
// option reachable from several parents appears once per parent.
type FlatServiceOption struct {
	ID           int
	Name         string
	Description  *string
	ParentID     *int
	ServiceTypes []string
}

// ServiceHierarchy is the catalog view served to the record form.
type ServiceHierarchy struct {
	MotorbikeOptions []*ServiceOption `json:"motorbikeOptions"`
	OwnershipOptions []*ServiceOption `json:"ownershipOptions"`
}

// CatalogOption is a row of the service_options table together with its
// service type names.
type CatalogOption struct {
	ID           int
	Name         string
	Description  *string
	ServiceTypes []string
}

// OptionRelation links a parent option to a child option.
type OptionRelation struct {
	ParentID int
	ChildID  int
}

// VehicleTypeLink attaches a root option to a vehicle type by name.
type VehicleTypeLink struct {
	VehicleType string
	OptionID    int
}
