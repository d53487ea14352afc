/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

// RegisterRequest carries the fields required to create a rider account
type RegisterRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	CreditCard string `json:"credit_card"`
	Password   string `json:"password"`
	Street     string `json:"street"`
	City       string `json:"city"`
	Province   string `json:"province"`
	Region     string `json:"region"`
}

// LoginRequest carries credentials for either an admin or a rider
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned on successful authentication
type LoginResult struct {
	Role  string `json:"role"` // "admin", "user"
	Token string `json:"token"`
	Admin *Admin `json:"admin,omitempty"`
	User  *User  `json:"user,omitempty"`
}

// ProfileUpdate lists the profile fields a rider may change. Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	CreditCard *string `json:"credit_card,omitempty"`
	Street     *string `json:"street,omitempty"`
	City       *string `json:"city,omitempty"`
	Province   *string `json:"province,omitempty"`
	Region     *string `json:"region,omitempty"`
}

// CreateBikeRequest adds a bike to the fleet. Empty codes are generated;
// a station id docks the new bike there.
type CreateBikeRequest struct {
	TagCode   string `json:"tag_code"`
	GpsDevice string `json:"gps_device"`
	StationId *int64 `json:"station_id,omitempty"`
}

// CreateStationRequest carries the fields required to open a station
type CreateStationRequest struct {
	NumSlots  *int    `json:"num_slots"`
	NumBikes  *int    `json:"num_bikes"`
	Street    string  `json:"street"`
	City      string  `json:"city"`
	Province  string  `json:"province"`
	Region    string  `json:"region"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// OperationRequest is a checkout or return submitted by a rider
type OperationRequest struct {
	Kind      OperationKind `json:"kind"`
	BikeId    int64         `json:"bike_id"`
	StationId int64         `json:"station_id"`
	Distance  int64         `json:"distance"`
}

// PositionUpdate is a GPS report for a bike
type PositionUpdate struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// ApiInfo describes the HTTP API
type ApiInfo struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Currency  string            `json:"currency"`
	Endpoints map[string]string `json:"endpoints"`
}

// ErrorResponse is the error body returned by the HTTP API
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
