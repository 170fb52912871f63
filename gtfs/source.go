package gtfs

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Table file names read by the loader
const (
	StopsFile     = "stops.txt"
	RoutesFile    = "routes.txt"
	TripsFile     = "trips.txt"
	StopTimesFile = "stop_times.txt"
)

var feedFiles = []string{StopsFile, RoutesFile, TripsFile, StopTimesFile}

// Feed holds the raw text of each schedule table, keyed by file name.
type Feed map[string]string

// Source produces the raw feed text. It does not parse anything.
type Source interface {
	Fetch(ctx context.Context) (Feed, error)
}

// StaticFeed is a Source that returns itself
type StaticFeed Feed

func (f StaticFeed) Fetch(context.Context) (Feed, error) { return Feed(f), nil }

// DirSource reads the tables from a directory of .txt files. Missing files
// are skipped.
type DirSource struct {
	Path string
}

func (s DirSource) Fetch(ctx context.Context) (Feed, error) {
	feed := Feed{}
	for _, name := range feedFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := os.ReadFile(filepath.Join(s.Path, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		feed[name] = string(b)
	}
	return feed, nil
}

// ZipFileSource reads the tables from a GTFS zip archive on disk
type ZipFileSource struct {
	Path string
}

func (s ZipFileSource) Fetch(ctx context.Context) (Feed, error) {
	zr, err := zip.OpenReader(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()
	return feedFromZip(ctx, &zr.Reader)
}

// ZipBytes is a Source over an in-memory GTFS zip archive
type ZipBytes []byte

func (b ZipBytes) Fetch(ctx context.Context) (Feed, error) {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	return feedFromZip(ctx, zr)
}

// HTTPSource downloads a GTFS zip archive
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Fetch(ctx context.Context) (Feed, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, s.URL)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return ZipBytes(b).Fetch(ctx)
}

// SourceFor picks a Source for a location: http(s) URLs are downloaded,
// *.zip paths are opened as archives and anything else is a directory.
func SourceFor(location string, client *http.Client) Source {
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return HTTPSource{URL: location, Client: client}
	case strings.EqualFold(filepath.Ext(location), ".zip"):
		return ZipFileSource{Path: location}
	default:
		return DirSource{Path: location}
	}
}

func feedFromZip(ctx context.Context, zr *zip.Reader) (Feed, error) {
	feed := Feed{}
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// some agencies nest the tables in a folder
		name := strings.ToLower(path.Base(f.Name))
		if !isFeedFile(name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		feed[name] = string(b)
	}
	return feed, nil
}

func isFeedFile(name string) bool {
	for _, n := range feedFiles {
		if n == name {
			return true
		}
	}
	return false
}
