// Package commute ranks nearby stations by door-to-destination time: drive
// to the station, then ride the train.
//
// A Planner needs a StationFinder (normally a *gtfs.Schedule), a Geocoder
// to turn addresses into coordinates and a Router for drive times. Routers
// compose; wrap a slow one in a CachedRouter.
package commute
