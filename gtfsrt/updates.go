package gtfsrt

import (
	"fmt"
	"sort"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

type stopUpdate struct {
	delay    int32
	hasDelay bool
	skipped  bool
}

type tripUpdate struct {
	routeID   string
	cancelled bool
	delay     int32
	hasDelay  bool
	stops     map[string]stopUpdate
}

// Updates is the decoded content of one trip updates feed message. A nil
// *Updates is valid and reports no realtime data.
type Updates struct {
	timestamp time.Time
	trips     map[string]*tripUpdate
}

// Decode parses a GTFS-RT FeedMessage and indexes its trip updates by trip
// and stop. Entities without a trip ID are skipped.
func Decode(pb []byte) (*Updates, error) {
	var fm gtfs.FeedMessage
	if err := proto.Unmarshal(pb, &fm); err != nil {
		return nil, fmt.Errorf("failed to parse protobuf: %w", err)
	}
	u := &Updates{trips: map[string]*tripUpdate{}}
	if ts := fm.GetHeader().GetTimestamp(); ts > 0 {
		u.timestamp = time.Unix(int64(ts), 0).UTC()
	}

	for _, e := range fm.GetEntity() {
		tu := e.GetTripUpdate()
		if tu == nil {
			continue
		}
		tripID := tu.GetTrip().GetTripId()
		if tripID == "" {
			continue
		}
		t := u.trips[tripID]
		if t == nil {
			t = &tripUpdate{stops: map[string]stopUpdate{}}
			u.trips[tripID] = t
		}
		if rid := tu.GetTrip().GetRouteId(); rid != "" {
			t.routeID = rid
		}
		if tu.GetTrip().GetScheduleRelationship() == gtfs.TripDescriptor_CANCELED {
			t.cancelled = true
		}
		if tu.Delay != nil {
			t.delay, t.hasDelay = tu.GetDelay(), true
		}

		for _, stu := range tu.GetStopTimeUpdate() {
			sid := stu.GetStopId()
			if sid == "" {
				continue
			}
			su := stopUpdate{
				skipped: stu.GetScheduleRelationship() == gtfs.TripUpdate_StopTimeUpdate_SKIPPED,
			}
			// departure delay wins: it is what a waiting rider sees
			if dep := stu.GetDeparture(); dep != nil && dep.Delay != nil {
				su.delay, su.hasDelay = dep.GetDelay(), true
			} else if arr := stu.GetArrival(); arr != nil && arr.Delay != nil {
				su.delay, su.hasDelay = arr.GetDelay(), true
			}
			t.stops[sid] = su
		}
	}
	return u, nil
}

// Timestamp is the feed header time, zero when the feed has none.
func (u *Updates) Timestamp() time.Time {
	if u == nil {
		return time.Time{}
	}
	return u.timestamp
}

// Len is the number of trips with an update.
func (u *Updates) Len() int {
	if u == nil {
		return 0
	}
	return len(u.trips)
}

// Trips returns the updated trip IDs in lexical order.
func (u *Updates) Trips() []string {
	if u == nil {
		return nil
	}
	ids := make([]string, 0, len(u.trips))
	for id := range u.trips {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RouteID returns the route the feed reports for tripID.
func (u *Updates) RouteID(tripID string) string {
	if t := u.trip(tripID); t != nil {
		return t.routeID
	}
	return ""
}

// Delay returns the delay of tripID at stopID. A stop without its own delay
// falls back to the trip level delay. ok is false when neither is present.
func (u *Updates) Delay(tripID, stopID string) (time.Duration, bool) {
	t := u.trip(tripID)
	if t == nil {
		return 0, false
	}
	if su, ok := t.stops[stopID]; ok && su.hasDelay {
		return time.Duration(su.delay) * time.Second, true
	}
	if t.hasDelay {
		return time.Duration(t.delay) * time.Second, true
	}
	return 0, false
}

// Skipped reports whether tripID will not serve stopID.
func (u *Updates) Skipped(tripID, stopID string) bool {
	t := u.trip(tripID)
	return t != nil && t.stops[stopID].skipped
}

// Cancelled reports whether the whole trip is cancelled.
func (u *Updates) Cancelled(tripID string) bool {
	t := u.trip(tripID)
	return t != nil && t.cancelled
}

func (u *Updates) trip(tripID string) *tripUpdate {
	if u == nil {
		return nil
	}
	return u.trips[tripID]
}
