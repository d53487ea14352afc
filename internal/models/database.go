package models

import (
	"time"
)

// OperationKind is the type of a ledger entry
type OperationKind string

const (
	OperationCheckout OperationKind = "checkout"
	OperationReturn   OperationKind = "return"
)

func (k OperationKind) Valid() bool {
	return k == OperationCheckout || k == OperationReturn
}

// User represents a registered rider
type User struct {
	Id           int64     `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	CreditCard   string    `db:"credit_card" json:"credit_card"`
	SmartCard    string    `db:"smart_card" json:"smart_card"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Street       string    `db:"street" json:"street"`
	City         string    `db:"city" json:"city"`
	Province     string    `db:"province" json:"province"`
	Region       string    `db:"region" json:"region"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Admin represents a fleet operator account
type Admin struct {
	Id           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Bike represents a fleet bicycle. Availability is never stored on the row;
// it is derived from the operation history (see BikeStatus).
type Bike struct {
	Id               int64     `db:"id" json:"id"`
	TagCode          string    `db:"tag_code" json:"tag_code"`
	Latitude         string    `db:"latitude" json:"latitude"`
	Longitude        string    `db:"longitude" json:"longitude"`
	DistanceTraveled int64     `db:"distance_traveled" json:"distance_traveled"`
	GpsDevice        string    `db:"gps_device" json:"gps_device"`
	HomeStationId    *int64    `db:"home_station_id" json:"home_station_id,omitempty"`
	Version          int64     `db:"version" json:"version"`
	Active           bool      `db:"active" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Station represents a docking station
type Station struct {
	Id        int64     `db:"id" json:"id"`
	NumSlots  int       `db:"num_slots" json:"num_slots"`
	NumBikes  int       `db:"num_bikes" json:"num_bikes"`
	Street    string    `db:"street" json:"street"`
	City      string    `db:"city" json:"city"`
	Province  string    `db:"province" json:"province"`
	Region    string    `db:"region" json:"region"`
	Latitude  float64   `db:"latitude" json:"latitude"`
	Longitude float64   `db:"longitude" json:"longitude"`
	Version   int64     `db:"version" json:"version"`
	Active    bool      `db:"active" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (s *Station) HasFreeSlot() bool {
	return s.NumBikes < s.NumSlots
}

func (s *Station) HasAvailableBike() bool {
	return s.NumBikes > 0
}

// Operation represents an immutable rental ledger entry
type Operation struct {
	Id           int64         `db:"id" json:"id"`
	Kind         OperationKind `db:"kind" json:"kind"`
	OccurredDate string        `db:"occurred_date" json:"occurred_date"`
	OccurredTime string        `db:"occurred_time" json:"occurred_time"`
	Distance     int64         `db:"distance" json:"distance"`
	UserId       int64         `db:"user_id" json:"user_id"`
	BikeId       int64         `db:"bike_id" json:"bike_id"`
	StationId    int64         `db:"station_id" json:"station_id"`
	Fare         *int64        `db:"fare" json:"fare"`
	Reference    string        `db:"reference" json:"reference"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// BikeStatus is a bike snapshot with its state derived from the ledger
type BikeStatus struct {
	Bike
	CheckedOut       bool       `json:"checked_out"`
	CurrentStationId *int64     `json:"current_station_id,omitempty"`
	RentedBy         *int64     `json:"rented_by,omitempty"`
	LastOperation    *Operation `json:"last_operation,omitempty"`
}

// Available reports whether the bike can be checked out: it is docked
// somewhere and not part of an open rental. The station counter is not
// consulted here.
func (b *BikeStatus) Available() bool {
	return !b.CheckedOut && b.CurrentStationId != nil
}

// DeriveBikeStatus computes the ledger view of a bike from its latest operation.
func DeriveBikeStatus(bike Bike, latest *Operation) BikeStatus {
	status := BikeStatus{Bike: bike, LastOperation: latest}
	switch {
	case latest == nil:
		status.CurrentStationId = bike.HomeStationId
	case latest.Kind == OperationCheckout:
		status.CheckedOut = true
		userId := latest.UserId
		status.RentedBy = &userId
	default:
		stationId := latest.StationId
		status.CurrentStationId = &stationId
	}
	return status
}
