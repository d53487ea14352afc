package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bike-rental-go/internal/cache"
	"bike-rental-go/internal/metrics"
	"bike-rental-go/internal/models"
	"bike-rental-go/internal/store"
	"bike-rental-go/internal/tariff"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultLockTimeout = 5 * time.Second
	defaultMaxDistance = 1_000_000
)

// Ledger is the only writer of bike and station occupancy state. Every
// transition runs under the locks of the bike and station it touches, and
// commits through a single store transaction.
type Ledger struct {
	store           store.LedgerStore
	cache           cache.StatusCache
	caching         bool
	tariff          *tariff.Tariff
	metrics         *metrics.Recorder
	locks           *lockManager
	lockTimeout     time.Duration
	maxDistance     int64
	allowThirdParty bool
}

func New(st store.LedgerStore, statusCache cache.StatusCache, fares *tariff.Tariff, recorder *metrics.Recorder, cfg models.LedgerConfig) *Ledger {
	_, disabled := statusCache.(cache.Nop)
	if statusCache == nil {
		statusCache = cache.Nop{}
		disabled = true
	}
	if fares == nil {
		fares = tariff.Default()
	}
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}
	lockTimeout := cfg.LockTimeout
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	maxDistance := cfg.MaxDistance
	if maxDistance <= 0 {
		maxDistance = defaultMaxDistance
	}

	return &Ledger{
		store:           st,
		cache:           statusCache,
		caching:         !disabled,
		tariff:          fares,
		metrics:         recorder,
		locks:           newLockManager(),
		lockTimeout:     lockTimeout,
		maxDistance:     maxDistance,
		allowThirdParty: cfg.AllowThirdPartyReturns,
	}
}

func (l *Ledger) Tariff() *tariff.Tariff {
	return l.tariff
}

// ValidateDistance rejects distances a return cannot carry.
func (l *Ledger) ValidateDistance(distance int64) error {
	if distance < 0 {
		return store.Validationf("distance must be >= 0, got %d", distance)
	}
	if distance > l.maxDistance {
		return store.Validationf("distance %d exceeds the maximum of %d", distance, l.maxDistance)
	}
	return nil
}

// IsBikeAvailable reports whether a checkout of the bike could succeed. Besides
// being docked outside an open rental, its station must still count a bike.
func (l *Ledger) IsBikeAvailable(ctx context.Context, bikeId int64) (bool, error) {
	status, err := l.store.GetBikeStatus(ctx, bikeId)
	if err != nil {
		return false, err
	}
	if !status.Available() {
		return false, nil
	}
	return l.HasAvailableBike(ctx, *status.CurrentStationId)
}

func (l *Ledger) HasFreeSlot(ctx context.Context, stationId int64) (bool, error) {
	station, err := l.store.GetStation(ctx, stationId)
	if err != nil {
		return false, err
	}
	return station.HasFreeSlot(), nil
}

func (l *Ledger) HasAvailableBike(ctx context.Context, stationId int64) (bool, error) {
	station, err := l.store.GetStation(ctx, stationId)
	if err != nil {
		return false, err
	}
	return station.HasAvailableBike(), nil
}

// ApplyCheckout takes a bike out of a station on behalf of a user.
func (l *Ledger) ApplyCheckout(ctx context.Context, userId, bikeId, stationId int64) (*models.Operation, error) {
	t := transition{kind: "checkout", bikeId: bikeId, stationIds: []int64{stationId}, refresh: true}
	return l.run(ctx, t, func(ctx context.Context) (*models.Operation, error) {
		return l.store.CommitCheckout(ctx, store.CheckoutParams{
			UserId:    userId,
			BikeId:    bikeId,
			StationId: stationId,
		})
	})
}

// ApplyReturn docks a rented bike, adds the distance to the bike and charges
// the fare for the completed rental.
func (l *Ledger) ApplyReturn(ctx context.Context, userId, bikeId, stationId, distance int64) (*models.Operation, error) {
	if err := l.ValidateDistance(distance); err != nil {
		l.metrics.Rejected("return", "validation")
		return nil, err
	}
	fare := l.tariff.Fare(distance)

	t := transition{kind: "return", bikeId: bikeId, stationIds: []int64{stationId}, refresh: true}
	op, err := l.run(ctx, t, func(ctx context.Context) (*models.Operation, error) {
		return l.store.CommitReturn(ctx, store.ReturnParams{
			UserId:          userId,
			BikeId:          bikeId,
			StationId:       stationId,
			Distance:        distance,
			Fare:            fare,
			AllowThirdParty: l.allowThirdParty,
		})
	})
	if err != nil {
		return nil, err
	}
	l.metrics.FareCharged(fare)
	return op, nil
}

// DockBike places a bike with no history at a station.
func (l *Ledger) DockBike(ctx context.Context, bikeId, stationId int64) error {
	t := transition{kind: "place", bikeId: bikeId, stationIds: []int64{stationId}, refresh: true}
	_, err := l.run(ctx, t, func(ctx context.Context) (*models.Operation, error) {
		return nil, l.store.PlaceBike(ctx, bikeId, stationId)
	})
	return err
}

// RetireBike removes a docked bike from the fleet. The station observed before
// locking is locked too and re-checked by the store at commit.
func (l *Ledger) RetireBike(ctx context.Context, bikeId int64) error {
	status, err := l.store.GetBikeStatus(ctx, bikeId)
	if err != nil {
		return err
	}
	if status.CheckedOut {
		return store.ErrBikeAlreadyCheckedOut
	}

	var stationIds []int64
	if status.CurrentStationId != nil {
		stationIds = append(stationIds, *status.CurrentStationId)
	}

	t := transition{kind: "retire_bike", bikeId: bikeId, stationIds: stationIds}
	_, err = l.run(ctx, t, func(ctx context.Context) (*models.Operation, error) {
		return nil, l.store.RetireBike(ctx, bikeId, status.CurrentStationId)
	})
	return err
}

func (l *Ledger) RetireStation(ctx context.Context, stationId int64) error {
	t := transition{kind: "retire_station", stationIds: []int64{stationId}}
	_, err := l.run(ctx, t, func(ctx context.Context) (*models.Operation, error) {
		return nil, l.store.RetireStation(ctx, stationId)
	})
	return err
}

// UpdateBikePosition records a GPS report. Coordinates are decimal strings
// within [-90, 90] and [-180, 180].
func (l *Ledger) UpdateBikePosition(ctx context.Context, bikeId int64, latitude, longitude string) error {
	lat, err := parseCoordinate("latitude", latitude, 90)
	if err != nil {
		return err
	}
	lng, err := parseCoordinate("longitude", longitude, 180)
	if err != nil {
		return err
	}

	t := transition{kind: "position", bikeId: bikeId, refresh: true}
	_, err = l.run(ctx, t, func(ctx context.Context) (*models.Operation, error) {
		return nil, l.store.UpdateBikePosition(ctx, bikeId, lat.String(), lng.String())
	})
	return err
}

func parseCoordinate(name, value string, bound int64) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, store.Validationf("%s %q is not a decimal", name, value)
	}
	limit := decimal.NewFromInt(bound)
	if d.GreaterThan(limit) || d.LessThan(limit.Neg()) {
		return decimal.Zero, store.Validationf("%s %s is outside [-%d, %d]", name, d, bound, bound)
	}
	return d, nil
}

type transition struct {
	kind       string
	bikeId     int64
	stationIds []int64
	// refresh writes the committed bike snapshot back to the cache.
	refresh bool
}

func (t transition) keys() []resourceKey {
	keys := make([]resourceKey, 0, len(t.stationIds)+1)
	if t.bikeId != 0 {
		keys = append(keys, bikeKey(t.bikeId))
	}
	for _, id := range t.stationIds {
		keys = append(keys, stationKey(id))
	}
	return keys
}

// run executes commit as a critical section over the transition's resources.
// A context cancelled before the locks are held leaves no trace.
func (l *Ledger) run(ctx context.Context, t transition, commit func(context.Context) (*models.Operation, error)) (*models.Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s cancelled: %w", t.kind, err)
	}

	waitStart := time.Now()
	lockCtx, cancel := context.WithTimeout(ctx, l.lockTimeout)
	release, err := l.locks.acquire(lockCtx, t.keys()...)
	cancel()
	l.metrics.LockWait(t.kind, time.Since(waitStart))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s cancelled: %w", t.kind, ctx.Err())
		}
		l.metrics.Rejected(t.kind, "busy")
		zap.L().Warn("Ledger lock wait timed out",
			zap.String("kind", t.kind),
			zap.Int64("bike_id", t.bikeId),
			zap.Int64s("station_ids", t.stationIds),
			zap.Duration("timeout", l.lockTimeout))
		return nil, fmt.Errorf("%w after %s", store.ErrBusy, l.lockTimeout)
	}
	defer release()

	entered := time.Now()
	defer func() {
		l.metrics.CriticalSection(t.kind, time.Since(entered))
	}()

	if t.bikeId != 0 && l.caching {
		if err := l.cache.Invalidate(ctx, t.bikeId); err != nil {
			l.metrics.Rejected(t.kind, "cache")
			return nil, store.Storage("invalidate bike status", err)
		}
	}

	op, err := commit(ctx)
	if err != nil {
		reason := rejectionReason(err)
		l.metrics.Rejected(t.kind, reason)
		fields := []zap.Field{
			zap.String("kind", t.kind),
			zap.Int64("bike_id", t.bikeId),
			zap.Int64s("station_ids", t.stationIds),
			zap.String("reason", reason),
			zap.Error(err),
		}
		if errors.Is(err, store.ErrStorage) {
			zap.L().Error("Ledger transition failed", fields...)
		} else {
			zap.L().Warn("Ledger transition rejected", fields...)
		}
		return nil, err
	}

	l.metrics.Applied(t.kind)
	if t.refresh && l.caching {
		l.refreshCache(ctx, t.bikeId)
	}
	return op, nil
}

// refreshCache stores the committed snapshot. The transition already stands,
// so cancellation of the caller no longer applies; a failure leaves the entry
// invalidated.
func (l *Ledger) refreshCache(ctx context.Context, bikeId int64) {
	ctx = context.WithoutCancel(ctx)
	status, err := l.store.GetBikeStatus(ctx, bikeId)
	if err != nil {
		zap.L().Warn("Failed to reload bike status for cache", zap.Int64("bike_id", bikeId), zap.Error(err))
		return
	}
	if err := l.cache.Set(ctx, status); err != nil {
		zap.L().Warn("Failed to cache bike status", zap.Int64("bike_id", bikeId), zap.Error(err))
	}
}

var rejectionReasons = []struct {
	err    error
	reason string
}{
	{store.ErrBikeNotFound, "bike_not_found"},
	{store.ErrStationNotFound, "station_not_found"},
	{store.ErrUserNotFound, "user_not_found"},
	{store.ErrBikeAlreadyCheckedOut, "bike_already_checked_out"},
	{store.ErrBikeNotCheckedOut, "bike_not_checked_out"},
	{store.ErrStationFull, "station_full"},
	{store.ErrStationHasNoBike, "station_has_no_bike"},
	{store.ErrReturnByWrongUser, "return_by_wrong_user"},
	{store.ErrBikeNotAtStation, "bike_not_at_station"},
	{store.ErrBikeNotPlaced, "bike_not_placed"},
	{store.ErrBikeAlreadyPlaced, "bike_already_placed"},
	{store.ErrStationInUse, "station_in_use"},
	{store.ErrConcurrentModification, "concurrent_modification"},
	{store.ErrValidation, "validation"},
	{store.ErrStorage, "storage"},
}

func rejectionReason(err error) string {
	for _, r := range rejectionReasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "other"
}
