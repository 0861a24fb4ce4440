package model

import "time"

type ResourceType string

const (
	ResourceRoom      ResourceType = "room"
	ResourceEquipment ResourceType = "equipment"
	ResourceVehicle   ResourceType = "vehicle"
	ResourceDesk      ResourceType = "desk"
	ResourceOffice    ResourceType = "office"
	ResourceOther     ResourceType = "other"
)

var ResourceTypes = []ResourceType{
	ResourceRoom,
	ResourceEquipment,
	ResourceVehicle,
	ResourceDesk,
	ResourceOffice,
	ResourceOther,
}

// Resource is owned by the admin side; bookings and locks only reference its ID.
type Resource struct {
	ID        string       `json:"id" bson:"_id" yaml:"id"`
	Name      string       `json:"name" bson:"name" yaml:"name"`
	Type      ResourceType `json:"type" bson:"type" yaml:"type"`
	Capacity  int          `json:"capacity" bson:"capacity" yaml:"capacity"`
	IsActive  bool         `json:"is_active" bson:"is_active" yaml:"is_active"`
	CreatedAt time.Time    `json:"created_at" bson:"created_at" yaml:"-"`
	UpdatedAt time.Time    `json:"updated_at" bson:"updated_at" yaml:"-"`
}

func (t ResourceType) Valid() bool {
	for _, rt := range ResourceTypes {
		if rt == t {
			return true
		}
	}
	return false
}
