/*
Package gtfs provides GTFS static schedule loading and the station queries
built on it.

This package is data-source agnostic: a Source hands over the raw text of
stops.txt, routes.txt, trips.txt and stop_times.txt and the Schedule parses it
into an immutable Dataset.

# Basic Usage

	schedule := gtfs.NewSchedule(gtfs.WithLogger(logger))

	// Directory, zip file or zip URL
	src := gtfs.SourceFor("/data/gtfs.zip", http.DefaultClient)
	if !schedule.LoadGTFSData(ctx, src) {
	    // keep serving the previous (possibly empty) schedule
	}

	// Closest three stations to a point
	nearest := schedule.FindNearestStations(41.00, -73.78, 3)

	// Next five departures after 08:00:00, as "8:05 AM" style strings
	times := schedule.NextTrains(nearest[0].Stop.ID, "08:00:00")

# Parsing

ParseCSV is deliberately loose: it splits on every comma and strips quote
characters, so quoted fields containing commas are not supported.

# Reloading

Load builds a complete Dataset before swapping it in with a single atomic
store. Concurrent queries see either the old or the new Dataset, never a mix,
and a failed load leaves the old one in place.

# Times

Departure times are compared as HH:MM:SS strings. That is chronological only
within one service day and only for zero-padded values. Hours of 24 and above
are kept as the feed writes them; nothing wraps past midnight.

# Distances

All distances are haversine great-circle miles with an Earth radius of 3959.
*/
package gtfs
