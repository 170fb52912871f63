package gtfs

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"time"
)

// snapshot is the gob wire form of a Dataset. Indexes are rebuilt on decode.
type snapshot struct {
	Stops     []Stop
	Routes    []Route
	Trips     []Trip
	StopTimes []StopTime
	LoadedAt  time.Time
}

func (d *Dataset) snapshot() snapshot {
	return snapshot{
		Stops:     d.stops,
		Routes:    d.Routes(),
		Trips:     d.Trips(),
		StopTimes: d.stopTimes,
		LoadedAt:  d.loadedAt,
	}
}

func (s snapshot) dataset() *Dataset {
	ds := NewDataset(s.Stops, s.Routes, s.Trips, s.StopTimes)
	if s.LoadedAt.IsZero() {
		return ds
	}
	return ds.WithLoadedAt(s.LoadedAt)
}

// SerializeDataset encodes a Dataset to bytes using gob encoding.
// This is useful for disk-based caching to avoid re-parsing the feed on
// every start.
//
// Example:
//
//	data, err := gtfs.SerializeDataset(schedule.Dataset())
//	if err != nil {
//	    // handle error
//	}
//	os.WriteFile("/path/to/cache/schedule.gob", data, 0644)
func SerializeDataset(ds *Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := SerializeDatasetToWriter(ds, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeserializeDataset decodes a Dataset from bytes written by SerializeDataset.
//
// Example:
//
//	data, _ := os.ReadFile("/path/to/cache/schedule.gob")
//	ds, err := gtfs.DeserializeDataset(data)
//	if err != nil {
//	    // Cache is corrupted or invalid, load the feed instead
//	}
//	schedule.Replace(ds)
func DeserializeDataset(data []byte) (*Dataset, error) {
	return DeserializeDatasetFromReader(bytes.NewReader(data))
}

// SerializeDatasetToFile writes a Dataset to a file using gob encoding.
func SerializeDatasetToFile(ds *Dataset, filepath string) error {
	data, err := SerializeDataset(ds)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, data, 0644)
}

// DeserializeDatasetFromFile reads a Dataset written by SerializeDatasetToFile.
func DeserializeDatasetFromFile(filepath string) (*Dataset, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	return DeserializeDataset(data)
}

// SerializeDatasetToWriter writes a Dataset to an io.Writer using gob encoding.
func SerializeDatasetToWriter(ds *Dataset, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(ds.snapshot()); err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}
	return nil
}

// DeserializeDatasetFromReader reads a Dataset from an io.Reader using gob encoding.
func DeserializeDatasetFromReader(r io.Reader) (*Dataset, error) {
	var s snapshot
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return s.dataset(), nil
}
