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

package database

const (
	userColumns      = `id, first_name, last_name, email, phone, credit_card, smart_card, password_hash, street, city, province, region, created_at`
	bikeColumns      = `id, tag_code, latitude, longitude, distance_traveled, gps_device, home_station_id, version, active, created_at`
	stationColumns   = `id, num_slots, num_bikes, street, city, province, region, latitude, longitude, version, active, created_at`
	operationColumns = `id, kind, occurred_date, occurred_time, distance, user_id, bike_id, station_id, fare, reference, created_at`

	// User queries
	queryInsertUser = `
		INSERT INTO users (first_name, last_name, email, phone, credit_card, smart_card, password_hash,
		                   street, city, province, region, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + userColumns

	queryGetUserById = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = ?`

	queryGetUserByEmail = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = ?`

	queryGetUsers = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY id`

	// Admin queries
	queryInsertAdmin = `
		INSERT INTO admins (email, password_hash, created_at) VALUES (?, ?, ?)
		RETURNING id, email, password_hash, created_at`

	queryGetAdminByEmail = `
		SELECT id, email, password_hash, created_at
		FROM admins
		WHERE email = ?`

	// Bike queries
	queryInsertBike = `
		INSERT INTO bikes (tag_code, gps_device, created_at) VALUES (?, ?, ?)
		RETURNING ` + bikeColumns

	queryGetBike = `
		SELECT ` + bikeColumns + `
		FROM bikes
		WHERE id = ? AND active = 1`

	queryGetBikes = `
		SELECT ` + bikeColumns + `
		FROM bikes
		WHERE active = 1
		ORDER BY distance_traveled DESC, id`

	queryUpdateBikePosition = `
		UPDATE bikes SET latitude = ?, longitude = ?, version = version + 1
		WHERE id = ? AND active = 1`

	queryPlaceBike = `
		UPDATE bikes SET home_station_id = ?, version = version + 1
		WHERE id = ? AND active = 1 AND home_station_id IS NULL`

	queryAddBikeDistance = `
		UPDATE bikes SET distance_traveled = distance_traveled + ?, version = version + 1
		WHERE id = ? AND active = 1 AND distance_traveled <= ? - ?`

	queryRetireBike = `
		UPDATE bikes SET active = 0, version = version + 1
		WHERE id = ? AND active = 1`

	// queryTouchBike marks a bike as changed by a ledger entry that leaves its row as is.
	queryTouchBike = `
		UPDATE bikes SET version = version + 1
		WHERE id = ? AND active = 1`

	queryGetBikeVersion = `
		SELECT version FROM bikes
		WHERE id = ? AND active = 1`

	// Station queries
	queryInsertStation = `
		INSERT INTO stations (num_slots, num_bikes, street, city, province, region, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + stationColumns

	queryGetStation = `
		SELECT ` + stationColumns + `
		FROM stations
		WHERE id = ? AND active = 1`

	queryGetStations = `
		SELECT ` + stationColumns + `
		FROM stations
		WHERE active = 1
		ORDER BY id`

	// Occupancy updates are guarded so the bounds hold even if validation raced.
	queryTakeStationBike = `
		UPDATE stations SET num_bikes = num_bikes - 1, version = version + 1
		WHERE id = ? AND active = 1 AND num_bikes > 0`

	queryDockStationBike = `
		UPDATE stations SET num_bikes = num_bikes + 1, version = version + 1
		WHERE id = ? AND active = 1 AND num_bikes < num_slots`

	queryRetireStation = `
		UPDATE stations SET active = 0, version = version + 1
		WHERE id = ? AND active = 1`

	// Bikes docked at the station plus rentals that started there and are still open.
	queryCountStationInUse = `
		SELECT COUNT(*)
		FROM bikes b
		LEFT JOIN operations o ON o.id = (SELECT MAX(id) FROM operations WHERE bike_id = b.id)
		WHERE b.active = 1 AND (
			(o.id IS NULL AND b.home_station_id = ?) OR
			(o.station_id = ? AND o.kind IN ('return', 'checkout'))
		)`

	// A bike is docked where its latest return left it, or at its placement
	// station when it has no history.
	queryCountDockedBikes = `
		SELECT station_id, COUNT(*)
		FROM (
			SELECT CASE
				WHEN o.id IS NULL THEN b.home_station_id
				WHEN o.kind = 'return' THEN o.station_id
			END AS station_id
			FROM bikes b
			LEFT JOIN operations o ON o.id = (SELECT MAX(id) FROM operations WHERE bike_id = b.id)
			WHERE b.active = 1
		)
		WHERE station_id IS NOT NULL
		GROUP BY station_id`

	// Operation queries
	queryInsertOperation = `
		INSERT INTO operations (kind, occurred_date, occurred_time, distance, user_id, bike_id, station_id,
		                        fare, reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + operationColumns

	queryGetLatestBikeOperation = `
		SELECT ` + operationColumns + `
		FROM operations
		WHERE bike_id = ?
		ORDER BY id DESC
		LIMIT 1`

	queryCountBikeOperations = `
		SELECT COUNT(*) FROM operations WHERE bike_id = ?`

	queryGetUserOperations = `
		SELECT ` + operationColumns + `
		FROM operations
		WHERE user_id = ?
		ORDER BY id DESC`
)
