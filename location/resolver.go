// Package location turns device permission, position and reverse geocoding
// into one resolved address per session.
package location

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"tree-tracker/models"
	"tree-tracker/utils"
)

var (
	// ErrPermissionDenied means the user refused location access.
	ErrPermissionDenied = errors.New("permission to access location was denied")
	// ErrLocationUnavailable means the position or address could not be
	// determined.
	ErrLocationUnavailable = errors.New("location is unavailable")
)

// State is where a Resolver is in its permission → address sequence.
type State int

const (
	Unrequested State = iota
	PermissionDenied
	PermissionGranted
	CoordinatesAcquired
	AddressResolved
	Unavailable
)

func (s State) String() string {
	switch s {
	case Unrequested:
		return "unrequested"
	case PermissionDenied:
		return "permission-denied"
	case PermissionGranted:
		return "permission-granted"
	case CoordinatesAcquired:
		return "coordinates-acquired"
	case AddressResolved:
		return "address-resolved"
	case Unavailable:
		return "unavailable"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == PermissionDenied || s == AddressResolved || s == Unavailable
}

// PermissionRequester asks the user for location access.
type PermissionRequester interface {
	RequestPermission(ctx context.Context) (bool, error)
}

// PositionProvider reports the device's current position.
type PositionProvider interface {
	CurrentPosition(ctx context.Context) (models.Coordinates, error)
}

// ReverseGeocoder turns a position into candidate places, best first.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, coords models.Coordinates) ([]models.Place, error)
}

// Resolver resolves the session address once and caches it. Terminal
// failures are cached too; there is no automatic retry.
type Resolver struct {
	permission PermissionRequester
	position   PositionProvider
	geocoder   ReverseGeocoder
	logger     *utils.Logger

	mu      sync.Mutex
	state   State
	coords  models.Coordinates
	address *models.ResolvedAddress
	err     error

	inflight chan struct{}
}

// NewResolver creates a Resolver in the Unrequested state.
func NewResolver(p PermissionRequester, pos PositionProvider, g ReverseGeocoder, logger *utils.Logger) *Resolver {
	return &Resolver{
		permission: p,
		position:   pos,
		geocoder:   g,
		logger:     logger,
		state:      Unrequested,
	}
}

// State returns the current state.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Address returns the cached address, or nil before AddressResolved.
func (r *Resolver) Address() *models.ResolvedAddress {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.address == nil {
		return nil
	}
	a := *r.address
	return &a
}

// Resolve walks permission → coordinates → address. The steps run without
// holding the lock, so State and Address answer immediately while a
// resolution is in flight; concurrent Resolve calls share that flight. A
// cancelled ctx discards the partial result and leaves the resolver
// Unrequested so a later call can start over.
func (r *Resolver) Resolve(ctx context.Context) (*models.ResolvedAddress, error) {
	for {
		r.mu.Lock()
		switch r.state {
		case AddressResolved:
			a := *r.address
			r.mu.Unlock()
			return &a, nil
		case PermissionDenied, Unavailable:
			err := r.err
			r.mu.Unlock()
			return nil, err
		}

		if r.inflight == nil {
			r.inflight = make(chan struct{})
			r.state = Unrequested
			r.mu.Unlock()
			return r.run(ctx)
		}

		done := r.inflight
		r.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, fmt.Errorf("location: %w", ctx.Err())
		}
	}
}

// Resolving reports whether a resolution is in flight.
func (r *Resolver) Resolving() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight != nil
}

func (r *Resolver) run(ctx context.Context) (*models.ResolvedAddress, error) {
	defer r.finish()

	granted, err := r.permission.RequestPermission(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, r.abandon(ctxErr)
	}
	if err != nil {
		return nil, r.fail(Unavailable, fmt.Errorf("location: request permission: %v: %w", err, ErrLocationUnavailable))
	}
	if !granted {
		return nil, r.fail(PermissionDenied, ErrPermissionDenied)
	}
	r.transition(PermissionGranted)

	coords, err := r.position.CurrentPosition(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, r.abandon(ctxErr)
	}
	if err != nil {
		return nil, r.fail(Unavailable, fmt.Errorf("location: current position: %v: %w", err, ErrLocationUnavailable))
	}
	r.mu.Lock()
	r.coords = coords
	r.mu.Unlock()
	r.transition(CoordinatesAcquired)

	places, err := r.geocoder.ReverseGeocode(ctx, coords)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, r.abandon(ctxErr)
	}
	if err != nil {
		return nil, r.fail(Unavailable, fmt.Errorf("location: reverse geocode: %v: %w", err, ErrLocationUnavailable))
	}
	if len(places) == 0 {
		return nil, r.fail(Unavailable, fmt.Errorf("location: no address for %.5f,%.5f: %w",
			coords.Latitude, coords.Longitude, ErrLocationUnavailable))
	}

	p := places[0]
	addr := &models.ResolvedAddress{
		Country:   strings.TrimSpace(p.Country),
		Region:    strings.TrimSpace(p.Region),
		County:    strings.TrimSpace(p.Subregion),
		City:      strings.TrimSpace(p.City),
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
	}

	r.mu.Lock()
	r.address = addr
	r.mu.Unlock()
	r.transition(AddressResolved)
	r.logger.Info("[location] Resolved %s, %s, %s", addr.City, addr.Region, addr.Country)

	a := *addr
	return &a, nil
}

func (r *Resolver) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	close(r.inflight)
	r.inflight = nil
}

func (r *Resolver) transition(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Debug("[location] %s → %s", r.state, s)
	r.state = s
}

func (r *Resolver) fail(s State, err error) error {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	r.transition(s)
	r.logger.Warn("[location] %v", err)
	return err
}

func (r *Resolver) abandon(err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Debug("[location] resolution abandoned in %s: %v", r.state, err)
	r.state = Unrequested
	r.address = nil
	return fmt.Errorf("location: %w", err)
}
