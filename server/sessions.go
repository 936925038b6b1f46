package server

import (
	"errors"
	"sync"

	"tree-tracker/models"
)

// SessionHeader carries the session ID issued by POST /api/location/resolve.
const SessionHeader = "X-Session-ID"

// ErrNoPosition is returned when a session is opened without coordinates
// and no default device position is configured.
var ErrNoPosition = errors.New("no device position: send latitude and longitude")

// ResolverFactory builds the resolver of a new session for a device at
// coords.
type ResolverFactory func(coords models.Coordinates) LocationResolver

// sessions holds one resolver per client session.
type sessions struct {
	mu        sync.Mutex
	resolvers map[string]LocationResolver
}

func (s *sessions) get(id string) LocationResolver {
	if id == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolvers[id]
}

// open returns the resolver of id, creating it with build when absent.
func (s *sessions) open(id string, build func() LocationResolver) LocationResolver {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.resolvers[id]; ok {
		return r
	}
	if s.resolvers == nil {
		s.resolvers = make(map[string]LocationResolver)
	}
	r := build()
	s.resolvers[id] = r
	return r
}

// resolveRequest optionally carries the device position of a new session.
type resolveRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (r resolveRequest) position(fallback *models.Coordinates) (models.Coordinates, bool) {
	if r.Latitude != nil && r.Longitude != nil {
		return models.Coordinates{Latitude: *r.Latitude, Longitude: *r.Longitude}, true
	}
	if fallback != nil {
		return *fallback, true
	}
	return models.Coordinates{}, false
}
