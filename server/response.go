package server

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/TableMateio/home-finder/commute"
	"github.com/TableMateio/home-finder/gtfs"
)

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// writeJSON encodes before writing the header so a value that cannot be
// encoded becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: "Failed to encode response", Details: map[string]any{"internal": err.Error()}})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string, details map[string]any) {
	writeJSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// JSON has no NaN, so malformed coordinates and their distances go out as null

// Station is the JSON form of a stop
type Station struct {
	StopID        string   `json:"stop_id"`
	Name          string   `json:"stop_name"`
	Code          string   `json:"stop_code,omitempty"`
	Lat           *float64 `json:"stop_lat"`
	Lon           *float64 `json:"stop_lon"`
	DistanceMiles *float64 `json:"distance_miles,omitempty"`
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// StationFromStop projects s, mapping non-finite coordinates to null.
func StationFromStop(s gtfs.Stop) Station {
	return Station{StopID: s.ID, Name: s.Name, Code: s.Code, Lat: finite(s.Lat), Lon: finite(s.Lon)}
}

// StationFromDistance is StationFromStop plus the distance.
func StationFromDistance(sd gtfs.StationDistance) Station {
	st := StationFromStop(sd.Stop)
	st.DistanceMiles = finite(sd.DistanceMiles)
	return st
}

// StationsFromDistances projects a nearest-stations result.
func StationsFromDistances(found []gtfs.StationDistance) []Station {
	out := make([]Station, 0, len(found))
	for _, sd := range found {
		out = append(out, StationFromDistance(sd))
	}
	return out
}

// OptionBody is the JSON form of one commute option
type OptionBody struct {
	Station      Station  `json:"station"`
	DriveMinutes float64  `json:"drive_minutes"`
	RideMinutes  float64  `json:"ride_minutes"`
	TotalMinutes float64  `json:"total_minutes"`
	Estimated    bool     `json:"estimated"`
	NextTrains   []string `json:"next_trains"`
}

// PlanBody is the JSON form of a commute plan
type PlanBody struct {
	Address string          `json:"address,omitempty"`
	Origin  gtfs.Coordinate `json:"origin"`
	Time    string          `json:"time"`
	Options []OptionBody    `json:"options"`
}

// PlanResponse projects p for encoding.
func PlanResponse(p *commute.Plan) PlanBody {
	out := PlanBody{Address: p.Address, Origin: p.Origin, Time: p.Time, Options: make([]OptionBody, 0, len(p.Options))}
	for _, o := range p.Options {
		st := StationFromStop(o.Station)
		st.DistanceMiles = finite(o.DistanceMiles)
		out.Options = append(out.Options, OptionBody{
			Station:      st,
			DriveMinutes: o.DriveMinutes,
			RideMinutes:  o.RideMinutes,
			TotalMinutes: o.TotalMinutes,
			Estimated:    o.Estimated,
			NextTrains:   o.NextTrains,
		})
	}
	return out
}
