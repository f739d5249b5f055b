package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bborn/wakeup/internal/alarm"
	"github.com/bborn/wakeup/internal/api"
	"github.com/bborn/wakeup/internal/config"
	"github.com/bborn/wakeup/internal/db"
	"github.com/bborn/wakeup/internal/geo"
)

// Business failures, shown to the user as-is.
const (
	errMissingFields   = "Missing required fields."
	errInvalidArrival  = "Invalid arrival time."
	errInvalidPrep     = "Invalid preparation time."
	errInvalidLocation = "Invalid locations entered."
	errNoRoute         = "No route found between these locations."
)

// unknownWeather is reported when the weather lookup fails.
const unknownWeather = "unknown"

func businessError(msg string) error {
	return &api.BusinessError{Message: msg}
}

// calculate works out the wake-up time for a trip: arrival minus getting
// ready, travel time and the bad-weather margin, on a 24h clock.
func (s *Server) calculate(ctx context.Context, req api.CalcRequest) (*api.CalcResult, error) {
	if req.Start == "" || req.End == "" || req.ArrivalTime == "" || req.GettingReady == "" {
		return nil, businessError(errMissingFields)
	}
	arrival, err := alarm.ParseTimeOfDay(req.ArrivalTime)
	if err != nil {
		return nil, businessError(errInvalidArrival)
	}
	prep, err := strconv.Atoi(req.GettingReady)
	if err != nil || prep < 0 || prep >= 24*60 {
		return nil, businessError(errInvalidPrep)
	}

	from, err := s.locate(ctx, req.Start)
	if err != nil {
		return nil, err
	}
	to, err := s.locate(ctx, req.End)
	if err != nil {
		return nil, err
	}

	travel, err := s.router.Duration(ctx, from, to)
	if errors.Is(err, geo.ErrNoRoute) {
		return nil, businessError(errNoRoute)
	}
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	eta := int(travel.Minutes())

	cfg := s.store.Get().Server
	condition, margin := s.weatherMargin(ctx, req.Start, &cfg)

	wake := arrival.Add(-(prep + eta + margin))
	res := &api.CalcResult{
		ArrivalTime:  arrival.String(),
		GettingReady: prep,
		ETA:          eta,
		Margin:       margin,
		AlarmTime:    wake.String(),
		Weather:      condition,
	}
	s.remember(req, res)
	return res, nil
}

// locate geocodes a place. No match is a business error.
func (s *Server) locate(ctx context.Context, query string) (geo.Place, error) {
	places, err := s.geocoder.Search(ctx, query, 1)
	if err != nil {
		return geo.Place{}, fmt.Errorf("geocode %q: %w", query, err)
	}
	if len(places) == 0 {
		return geo.Place{}, businessError(errInvalidLocation)
	}
	return places[0], nil
}

// weatherMargin looks up the weather at the start. A failed lookup costs
// no margin.
func (s *Server) weatherMargin(ctx context.Context, place string, cfg *config.ServerConfig) (string, int) {
	if s.weather == nil {
		return "", 0
	}
	condition, err := s.weather.Condition(ctx, place)
	if err != nil {
		s.logger.Warn("weather lookup failed", "place", place, "err", err)
		return unknownWeather, 0
	}
	if cfg.IsBadWeather(condition) {
		return condition, cfg.BadWeatherMargin
	}
	return condition, 0
}

// remember fills in the previous alarm for the route and stores the new one.
func (s *Server) remember(req api.CalcRequest, res *api.CalcResult) {
	if s.history == nil {
		return
	}
	prev, err := s.history.LatestAlarm(req.Start, req.End)
	if err != nil {
		s.logger.Warn("could not read alarm history", "err", err)
	} else if prev != nil {
		res.CurrentAlarm = prev.AlarmTime
	}

	err = s.history.RecordAlarm(&db.Alarm{
		Start:        req.Start,
		End:          req.End,
		ArrivalTime:  res.ArrivalTime,
		GettingReady: res.GettingReady,
		ETA:          res.ETA,
		Margin:       res.Margin,
		AlarmTime:    res.AlarmTime,
		CreatedAt:    s.now(),
	})
	if err != nil {
		s.logger.Warn("could not record alarm", "err", err)
	}
}
