package gtfs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// DefaultCurrentTime is used when no time of day is given
	DefaultCurrentTime = "08:00:00"
	// NextTrainsLimit caps NextTrains results
	NextTrainsLimit = 5
)

// NextTrains returns the display times of the next scheduled departures at
// stationID at or after currentTime (HH:MM:SS, "" means 08:00:00).
//
// Times compare as strings, which orders zero-padded HH:MM:SS values within
// one service day. There is no wrap past midnight: late queries only match
// trips the feed encodes with hours >= 24.
func (d *Dataset) NextTrains(stationID, currentTime string) []string {
	deps := d.NextDepartures(stationID, currentTime, NextTrainsLimit)
	out := make([]string, len(deps))
	for i, dep := range deps {
		out[i] = dep.Display
	}
	return out
}

// NextDepartures is NextTrains with trip and route details attached.
// A non-positive limit means NextTrainsLimit.
func (d *Dataset) NextDepartures(stationID, currentTime string, limit int) []Departure {
	if currentTime == "" {
		currentTime = DefaultCurrentTime
	}
	if limit <= 0 {
		limit = NextTrainsLimit
	}
	times := d.byStop[stationID]
	// byStop is sorted by departure_time, so the first match starts the window
	start := sort.Search(len(times), func(i int) bool { return times[i].DepartureTime >= currentTime })
	end := start + limit
	if end > len(times) {
		end = len(times)
	}

	out := make([]Departure, 0, end-start)
	for _, st := range times[start:end] {
		dep := Departure{
			TripID:        st.TripID,
			StopID:        st.StopID,
			DepartureTime: st.DepartureTime,
			Display:       FormatTime(st.DepartureTime),
		}
		if trip, ok := d.trips[st.TripID]; ok {
			dep.RouteID = trip.RouteID
			dep.Headsign = trip.Headsign
			if r, ok := d.routes[trip.RouteID]; ok {
				dep.RouteName = r.LongName
				if dep.RouteName == "" {
					dep.RouteName = r.ShortName
				}
			}
		}
		out = append(out, dep)
	}
	return out
}

// FormatTime renders HH:MM[:SS] as a 12-hour clock string, e.g. "13:30:00"
// becomes "1:30 PM". Minutes are passed through as given. Hours past 23 use
// the same arithmetic ("25:10:00" is "13:10 PM"). Input that has no hour and
// minute part is returned unchanged.
func FormatTime(t string) string {
	parts := strings.Split(t, ":")
	if len(parts) < 2 {
		return t
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return t
	}
	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	display := hour
	switch {
	case hour > 12:
		display = hour - 12
	case hour == 0:
		display = 12
	}
	return fmt.Sprintf("%d:%s %s", display, parts[1], ampm)
}

// ParseClock converts HH:MM:SS to seconds since the start of the service day.
func ParseClock(t string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(t), ":")
	if len(parts) != 3 {
		return 0, false
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		v[i] = n
	}
	return v[0]*3600 + v[1]*60 + v[2], true
}

// FormatClock renders seconds since the start of the service day as
// zero-padded HH:MM:SS. Negative values clamp to 00:00:00.
func FormatClock(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
