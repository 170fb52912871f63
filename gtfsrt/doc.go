// Package gtfsrt decodes GTFS-Realtime trip updates and overlays their
// delays on scheduled departures.
//
// Only the trip updates feed is read. Vehicle positions and service alerts
// are ignored.
//
// The main types are Updates, an immutable index built by Decode, and
// Poller, which keeps the latest Updates fresh in the background.
package gtfsrt
