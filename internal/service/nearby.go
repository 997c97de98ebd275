package service

import (
	"context"
	"math"
	"sort"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/model"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/repo"

	"go.uber.org/zap"
)

const (
	earthRadiusMeters  = 6371000.0
	nearbyRadiusMeters = 10000.0
	defaultPageSize    = 20
)

// Haversine returns the great-circle distance in meters between two
// coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

type NearbyService interface {
	FindNearby(ctx context.Context, userID string, page, pageSize int) (*model.PaginatedUsers, error)
}

type nearbyService struct {
	users  repo.UserRepository
	logger *zap.Logger
}

func NewNearbyService(users repo.UserRepository, logger *zap.Logger) NearbyService {
	return &nearbyService{users: users, logger: logger}
}

// FindNearby returns every other located user within 10 km of the requester,
// ascending by distance, as a 1-indexed page. A requester without a recorded
// location gets an empty page, not an error. The radius filter is inclusive
// at both bounds, so a co-located user (distance 0) is returned.
func (s *nearbyService) FindNearby(ctx context.Context, userID string, page, pageSize int) (*model.PaginatedUsers, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	me, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !me.Location.HasCoordinates() {
		return &model.PaginatedUsers{
			Users:    []model.NearbyUser{},
			Page:     page,
			PageSize: pageSize,
		}, nil
	}

	candidates, err := s.users.ListWithLocation(ctx)
	if err != nil {
		return nil, err
	}

	myID := me.ID.Hex()
	hits := make([]model.NearbyUser, 0, len(candidates))
	for i := range candidates {
		u := &candidates[i]
		if u.ID.Hex() == myID || !u.Location.HasCoordinates() {
			continue
		}
		d := Haversine(*me.Location.Latitude, *me.Location.Longitude,
			*u.Location.Latitude, *u.Location.Longitude)
		if d > nearbyRadiusMeters {
			continue
		}
		hits = append(hits, model.NearbyUser{
			ID:          u.ID.Hex(),
			Username:    u.Username,
			DisplayName: u.DisplayName,
			PhotoURL:    u.PhotoURL,
			Distance:    d,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })

	total := len(hits)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &model.PaginatedUsers{
		Users:       hits[start:end],
		Page:        page,
		PageSize:    pageSize,
		Total:       total,
		HasNextPage: page*pageSize < total,
	}, nil
}
