package gtfsrt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TableMateio/home-finder/gtfs"
)

func scheduled() []gtfs.Departure {
	mk := func(trip, stop, t string) gtfs.Departure {
		return gtfs.Departure{TripID: trip, StopID: stop, DepartureTime: t, Display: gtfs.FormatTime(t)}
	}
	return []gtfs.Departure{
		mk("H103", "WP", "08:05:00"),
		mk("H105", "WP", "08:20:00"),
		mk("H107", "WP", "08:35:00"),
		mk("H109", "WP", "09:05:00"),
		mk("H105", "SC", "08:30:00"),
	}
}

func TestLiveDepartures(t *testing.T) {
	u, err := Decode(harlemFeed(t))
	require.NoError(t, err)

	got := LiveDepartures(scheduled(), u)
	require.Len(t, got, 5)

	assert.Equal(t, 180, got[0].DelaySeconds)
	assert.Equal(t, "08:08:00", got[0].ExpectedTime)
	assert.Equal(t, "8:08 AM", got[0].ExpectedDisplay)
	assert.Equal(t, "8:05 AM", got[0].Display)
	assert.True(t, got[0].Realtime)

	assert.Equal(t, 300, got[1].DelaySeconds)
	assert.Equal(t, "8:25 AM", got[1].ExpectedDisplay)

	assert.True(t, got[2].Cancelled)
	assert.True(t, got[2].Realtime)
	assert.Equal(t, 0, got[2].DelaySeconds)

	assert.False(t, got[3].Realtime)
	assert.Equal(t, "09:05:00", got[3].ExpectedTime)
	assert.Equal(t, "9:05 AM", got[3].ExpectedDisplay)

	assert.True(t, got[4].Skipped)
}

func TestLiveDepartures_NilUpdates(t *testing.T) {
	deps := scheduled()
	got := LiveDepartures(deps, nil)
	require.Len(t, got, len(deps))
	for i, ld := range got {
		assert.Equal(t, deps[i], ld.Departure)
		assert.Equal(t, 0, ld.DelaySeconds)
		assert.Equal(t, deps[i].DepartureTime, ld.ExpectedTime)
		assert.False(t, ld.Realtime)
	}
}

func TestLiveDepartures_EarlyAfterMidnightAndBadTimes(t *testing.T) {
	u, err := Decode(buildFeed(t, 1, []tripFixture{
		{tripID: "LATE", stops: []stopFixture{{stopID: "A", depDelay: proto32(600)}}},
		{tripID: "EARLY", stops: []stopFixture{{stopID: "A", depDelay: proto32(-120)}}},
		{tripID: "ODD", stops: []stopFixture{{stopID: "A", depDelay: proto32(60)}}},
	}))
	require.NoError(t, err)

	got := LiveDepartures([]gtfs.Departure{
		{TripID: "LATE", StopID: "A", DepartureTime: "23:55:00", Display: "11:55 PM"},
		{TripID: "EARLY", StopID: "A", DepartureTime: "00:01:00", Display: "12:01 AM"},
		{TripID: "ODD", StopID: "A", DepartureTime: "soon", Display: "soon"},
	}, u)

	assert.Equal(t, "24:05:00", got[0].ExpectedTime)
	assert.Equal(t, "12:05 PM", got[0].ExpectedDisplay)
	assert.Equal(t, "00:00:00", got[1].ExpectedTime)
	assert.Equal(t, "soon", got[2].ExpectedTime)
	assert.Equal(t, 60, got[2].DelaySeconds)
}

func proto32(v int32) *int32 { return &v }

func TestLiveDepartures_Empty(t *testing.T) {
	assert.Empty(t, LiveDepartures(nil, nil))
	assert.NotNil(t, LiveDepartures(nil, nil))
}
