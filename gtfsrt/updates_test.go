package gtfsrt

import (
	"testing"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

type stopFixture struct {
	stopID   string
	arrDelay *int32
	depDelay *int32
	skipped  bool
}

type tripFixture struct {
	tripID    string
	routeID   string
	cancelled bool
	delay     *int32
	stops     []stopFixture
}

func buildFeed(t *testing.T, ts uint64, trips []tripFixture) []byte {
	t.Helper()
	entity := make([]*gtfs.FeedEntity, 0, len(trips))
	for _, tr := range trips {
		stus := make([]*gtfs.TripUpdate_StopTimeUpdate, 0, len(tr.stops))
		for _, s := range tr.stops {
			rel := gtfs.TripUpdate_StopTimeUpdate_SCHEDULED
			if s.skipped {
				rel = gtfs.TripUpdate_StopTimeUpdate_SKIPPED
			}
			stu := &gtfs.TripUpdate_StopTimeUpdate{
				StopId:               proto.String(s.stopID),
				ScheduleRelationship: &rel,
			}
			if s.arrDelay != nil {
				stu.Arrival = &gtfs.TripUpdate_StopTimeEvent{Delay: s.arrDelay}
			}
			if s.depDelay != nil {
				stu.Departure = &gtfs.TripUpdate_StopTimeEvent{Delay: s.depDelay}
			}
			stus = append(stus, stu)
		}
		rel := gtfs.TripDescriptor_SCHEDULED
		if tr.cancelled {
			rel = gtfs.TripDescriptor_CANCELED
		}
		entity = append(entity, &gtfs.FeedEntity{
			Id: proto.String("e-" + tr.tripID),
			TripUpdate: &gtfs.TripUpdate{
				Trip: &gtfs.TripDescriptor{
					TripId:               proto.String(tr.tripID),
					RouteId:              proto.String(tr.routeID),
					ScheduleRelationship: &rel,
				},
				Delay:          tr.delay,
				StopTimeUpdate: stus,
			},
		})
	}

	incrementality := gtfs.FeedHeader_FULL_DATASET
	data, err := proto.Marshal(&gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Incrementality:      &incrementality,
			Timestamp:           proto.Uint64(ts),
		},
		Entity: entity,
	})
	require.NoError(t, err)
	return data
}

func harlemFeed(t *testing.T) []byte {
	return buildFeed(t, 1760430000, []tripFixture{
		{tripID: "H103", routeID: "HAR", stops: []stopFixture{
			{stopID: "WP", arrDelay: proto.Int32(60), depDelay: proto.Int32(180)},
			{stopID: "SC", arrDelay: proto.Int32(240)},
		}},
		{tripID: "H105", routeID: "HAR", delay: proto.Int32(300), stops: []stopFixture{
			{stopID: "SC", skipped: true},
		}},
		{tripID: "H107", routeID: "HAR", cancelled: true},
	})
}

func TestDecode(t *testing.T) {
	u, err := Decode(harlemFeed(t))
	require.NoError(t, err)

	assert.Equal(t, time.Unix(1760430000, 0).UTC(), u.Timestamp())
	assert.Equal(t, 3, u.Len())
	assert.Equal(t, []string{"H103", "H105", "H107"}, u.Trips())
	assert.Equal(t, "HAR", u.RouteID("H103"))

	tests := []struct {
		name   string
		trip   string
		stop   string
		want   time.Duration
		wantOK bool
	}{
		{"departure delay preferred", "H103", "WP", 3 * time.Minute, true},
		{"arrival delay used alone", "H103", "SC", 4 * time.Minute, true},
		{"unknown stop on trip without trip delay", "H103", "GCT", 0, false},
		{"trip level delay fallback", "H105", "WP", 5 * time.Minute, true},
		{"unknown trip", "H999", "WP", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := u.Delay(tt.trip, tt.stop)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, u.Skipped("H105", "SC"))
	assert.False(t, u.Skipped("H105", "WP"))
	assert.True(t, u.Cancelled("H107"))
	assert.False(t, u.Cancelled("H103"))
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte("definitely not protobuf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse protobuf")
}

func TestDecode_EmptyFeed(t *testing.T) {
	u, err := Decode(buildFeed(t, 0, nil))
	require.NoError(t, err)
	assert.Equal(t, 0, u.Len())
	assert.True(t, u.Timestamp().IsZero())
	assert.Empty(t, u.Trips())
}

func TestUpdates_NilSafe(t *testing.T) {
	var u *Updates
	assert.Equal(t, 0, u.Len())
	assert.Nil(t, u.Trips())
	assert.True(t, u.Timestamp().IsZero())
	assert.False(t, u.Cancelled("x"))
	assert.False(t, u.Skipped("x", "y"))
	_, ok := u.Delay("x", "y")
	assert.False(t, ok)
}
