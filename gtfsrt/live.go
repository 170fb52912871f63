package gtfsrt

import (
	"github.com/TableMateio/home-finder/gtfs"
)

// LiveDeparture is a scheduled departure with realtime state applied.
type LiveDeparture struct {
	gtfs.Departure
	DelaySeconds    int    `json:"delay_seconds"`
	ExpectedTime    string `json:"expected_time"`
	ExpectedDisplay string `json:"expected_display"`
	Cancelled       bool   `json:"cancelled"`
	Skipped         bool   `json:"skipped"`
	Realtime        bool   `json:"realtime"`
}

// LiveDepartures applies updates to deps in order. Departures without an
// update, or all of them when updates is nil, keep their scheduled time with
// a zero delay. Times that are not HH:MM:SS are never shifted.
func LiveDepartures(deps []gtfs.Departure, updates *Updates) []LiveDeparture {
	out := make([]LiveDeparture, 0, len(deps))
	for _, d := range deps {
		ld := LiveDeparture{
			Departure:       d,
			ExpectedTime:    d.DepartureTime,
			ExpectedDisplay: d.Display,
			Cancelled:       updates.Cancelled(d.TripID),
			Skipped:         updates.Skipped(d.TripID, d.StopID),
		}
		if delay, ok := updates.Delay(d.TripID, d.StopID); ok {
			ld.Realtime = true
			ld.DelaySeconds = int(delay.Seconds())
			if secs, ok := gtfs.ParseClock(d.DepartureTime); ok {
				ld.ExpectedTime = gtfs.FormatClock(secs + ld.DelaySeconds)
				ld.ExpectedDisplay = gtfs.FormatTime(ld.ExpectedTime)
			}
		}
		if ld.Cancelled || ld.Skipped {
			ld.Realtime = true
		}
		out = append(out, ld)
	}
	return out
}
