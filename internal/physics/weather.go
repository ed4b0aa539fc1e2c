package physics

import "strings"

// Weather selects an entry of the weather modifier table.
type Weather string

const (
	WeatherNone Weather = "none"
	WeatherRain Weather = "rain"
	WeatherSnow Weather = "snow"
	WeatherWind Weather = "wind"
)

// WeatherEffect holds the per-condition modifiers applied by Ball.Update.
// Friction and AirResistance are per-tick velocity ratios. Wind is a force
// scaled by a gust multiplier drawn from [1, 1+Variation).
type WeatherEffect struct {
	Friction      float64 `json:"friction"`
	AirResistance float64 `json:"air_resistance"`
	Wind          Vec2    `json:"wind"`
	Variation     float64 `json:"variation"`
}

var weatherTable = map[Weather]WeatherEffect{
	WeatherRain: {Friction: 0.02, AirResistance: 0.005},
	WeatherSnow: {Friction: 0.05, AirResistance: 0.01},
	WeatherWind: {AirResistance: 0.002, Wind: Vec2{X: 0.5, Y: 0.1}, Variation: 0.5},
}

// LookupWeather returns the modifiers for w. "none" and unknown keys report false.
func LookupWeather(w Weather) (WeatherEffect, bool) {
	e, ok := weatherTable[w]
	return e, ok
}

// ParseWeather normalizes user input. Empty input means WeatherNone.
// Unknown names are returned as-is so the ball can ignore them.
func ParseWeather(s string) Weather {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return WeatherNone
	}
	return Weather(s)
}

// Known reports whether w is "none" or one of the table entries.
func (w Weather) Known() bool {
	if w == WeatherNone {
		return true
	}
	_, ok := weatherTable[w]
	return ok
}
