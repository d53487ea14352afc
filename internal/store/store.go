package store

import (
	"context"
	"errors"
	"fmt"

	"bike-rental-go/internal/models"
)

// Error classes. Every error returned by a LedgerStore or by the rental
// engine wraps exactly one of them, so callers can branch with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	ErrStorage    = errors.New("storage error")
)

// NotFound outcomes
var (
	ErrBikeNotFound    = fmt.Errorf("bike %w", ErrNotFound)
	ErrStationNotFound = fmt.Errorf("station %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrAdminNotFound   = fmt.Errorf("admin %w", ErrNotFound)
)

// Conflict outcomes: a precondition did not hold at commit time. No state was changed.
var (
	ErrBikeAlreadyCheckedOut  = fmt.Errorf("%w: bike already checked out", ErrConflict)
	ErrBikeNotCheckedOut      = fmt.Errorf("%w: bike not checked out", ErrConflict)
	ErrStationFull            = fmt.Errorf("%w: station has no free slot", ErrConflict)
	ErrStationHasNoBike       = fmt.Errorf("%w: station has no available bike", ErrConflict)
	ErrReturnByWrongUser      = fmt.Errorf("%w: bike was checked out by a different user", ErrConflict)
	ErrBikeNotAtStation       = fmt.Errorf("%w: bike is not docked at this station", ErrConflict)
	ErrBikeNotPlaced          = fmt.Errorf("%w: bike is not docked at any station", ErrConflict)
	ErrBikeAlreadyPlaced      = fmt.Errorf("%w: bike already has a station", ErrConflict)
	ErrStationInUse           = fmt.Errorf("%w: station has docked bikes or open rentals", ErrConflict)
	ErrEmailTaken             = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrSmartCardTaken         = fmt.Errorf("%w: smart card already issued", ErrConflict)
	ErrTagCodeTaken           = fmt.Errorf("%w: bike tag code already in use", ErrConflict)
	ErrConcurrentModification = fmt.Errorf("%w: concurrent modification detected", ErrConflict)
	ErrBusy                   = fmt.Errorf("%w: timed out waiting for resource", ErrConflict)
)

// Validationf returns a ValidationError with the given message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Storage wraps a driver error as a retryable StorageError.
func Storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// IsRetryable reports whether the caller may retry the request unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorage) || errors.Is(err, ErrConcurrentModification) || errors.Is(err, ErrBusy)
}

// CreateUserParams contains the parameters for registering a rider.
type CreateUserParams struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	CreditCard   string
	SmartCard    string
	PasswordHash string
	Street       string
	City         string
	Province     string
	Region       string
}

// CreateBikeParams contains the parameters for adding a bike to the fleet.
type CreateBikeParams struct {
	TagCode   string
	GpsDevice string
}

// CreateStationParams contains the parameters for opening a station.
type CreateStationParams struct {
	NumSlots  int
	NumBikes  int
	Street    string
	City      string
	Province  string
	Region    string
	Latitude  float64
	Longitude float64
}

// CheckoutParams contains the parameters for committing a checkout.
type CheckoutParams struct {
	UserId    int64
	BikeId    int64
	StationId int64
}

// ReturnParams contains the parameters for committing a return.
type ReturnParams struct {
	UserId    int64
	BikeId    int64
	StationId int64
	Distance  int64
	Fare      int64
	// AllowThirdParty lets a user other than the renter close the rental.
	AllowThirdParty bool
}

// LedgerStore defines the contract of the entity store and the atomic ledger commits.
type LedgerStore interface {
	// --- Users ---
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)
	GetUserById(ctx context.Context, userId int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	UpdateUserProfile(ctx context.Context, userId int64, update models.ProfileUpdate) (*models.User, error)

	// --- Admins ---
	CreateAdmin(ctx context.Context, email, passwordHash string) (*models.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)

	// --- Bikes ---
	CreateBike(ctx context.Context, params CreateBikeParams) (*models.Bike, error)
	GetBike(ctx context.Context, bikeId int64) (*models.Bike, error)
	GetBikes(ctx context.Context) ([]models.Bike, error)
	GetBikeStatus(ctx context.Context, bikeId int64) (*models.BikeStatus, error)
	// GetBikeVersion returns the bike's row version, bumped by every
	// committed change to the bike or its ledger entries.
	GetBikeVersion(ctx context.Context, bikeId int64) (int64, error)
	UpdateBikePosition(ctx context.Context, bikeId int64, latitude, longitude string) error
	PlaceBike(ctx context.Context, bikeId, stationId int64) error
	RetireBike(ctx context.Context, bikeId int64, expectedStationId *int64) error

	// --- Stations ---
	CreateStation(ctx context.Context, params CreateStationParams) (*models.Station, error)
	GetStation(ctx context.Context, stationId int64) (*models.Station, error)
	GetStations(ctx context.Context) ([]models.Station, error)
	RetireStation(ctx context.Context, stationId int64) error
	// CountDockedBikes derives, per station, how many active bikes the ledger places there.
	CountDockedBikes(ctx context.Context) (map[int64]int, error)

	// --- Operations ---
	CommitCheckout(ctx context.Context, params CheckoutParams) (*models.Operation, error)
	CommitReturn(ctx context.Context, params ReturnParams) (*models.Operation, error)
	GetLatestBikeOperation(ctx context.Context, bikeId int64) (*models.Operation, error)
	GetUserOperations(ctx context.Context, userId int64) ([]models.Operation, error)

	// --- Lifecycle ---
	Ping(ctx context.Context) error
	Close()
}
