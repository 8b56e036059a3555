package service

import (
	"context"
	"fmt"
	"time"

	"github.com/limaJavier/roomassign/pkg/forecast"
)

type sensorReader interface {
	LatestRoomData(ctx context.Context, roomId string, before time.Time) (forecast.Reading, error)
	HourlyRoomData(ctx context.Context, roomId string, at time.Time) (forecast.HourlyReading, error)
}

// SensorService serves room readings through the cache. It satisfies forecast.SensorSource.
type SensorService struct {
	reader sensorReader
	cache  *CacheService
	ttl    time.Duration
}

func NewSensorService(reader sensorReader, cache *CacheService, ttl time.Duration) *SensorService {
	return &SensorService{reader: reader, cache: cache, ttl: ttl}
}

// Cache failures are logged by the cache service and never fail a lookup
func (s *SensorService) LatestRoomData(ctx context.Context, roomId string, before time.Time) (forecast.Reading, error) {
	key := fmt.Sprintf("sensor:latest:%s:%d", roomId, before.Unix())

	var cached forecast.Reading
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	reading, err := s.reader.LatestRoomData(ctx, roomId, before)
	if err != nil {
		return forecast.Reading{}, err
	}
	_ = s.cache.Set(ctx, key, reading, s.ttl)
	return reading, nil
}

func (s *SensorService) HourlyRoomData(ctx context.Context, roomId string, at time.Time) (forecast.HourlyReading, error) {
	key := fmt.Sprintf("sensor:hourly:%s:%d", roomId, at.Truncate(time.Hour).Unix())

	var cached forecast.HourlyReading
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	reading, err := s.reader.HourlyRoomData(ctx, roomId, at)
	if err != nil {
		return forecast.HourlyReading{}, err
	}
	_ = s.cache.Set(ctx, key, reading, s.ttl)
	return reading, nil
}
