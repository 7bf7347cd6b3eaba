// Package trackmate reads TrackMate XML save files into the host model the
// exporter consumes.
package trackmate

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/marsarchive/trackmate-export/internal/geo"
	"github.com/marsarchive/trackmate-export/pkg/core"
)

// ErrNoModel is returned when the document has no Model element
var ErrNoModel = errors.New("trackmate: no model in document")

// spot attributes that are identifiers rather than features
var reservedAttrs = map[string]bool{
	"ID":           true,
	"name":         true,
	"ROI_N_POINTS": true,
}

type document struct {
	XMLName  xml.Name  `xml:"TrackMate"`
	Version  string    `xml:"version,attr"`
	Model    *model    `xml:"Model"`
	Settings *settings `xml:"Settings"`
}

type model struct {
	SpatialUnits string        `xml:"spatialunits,attr"`
	TimeUnits    string        `xml:"timeunits,attr"`
	Features     []feature     `xml:"FeatureDeclarations>SpotFeatures>Feature"`
	Frames       []spotsFrame  `xml:"AllSpots>SpotsInFrame"`
	Tracks       []track       `xml:"AllTracks>Track"`
	Filtered     *filteredList `xml:"FilteredTracks"`
}

type feature struct {
	Key       string `xml:"feature,attr"`
	Name      string `xml:"name,attr"`
	Dimension string `xml:"dimension,attr"`
	IsInt     bool   `xml:"isint,attr"`
}

type spotsFrame struct {
	Frame int       `xml:"frame,attr"`
	Spots []xmlSpot `xml:"Spot"`
}

type xmlSpot struct {
	Attrs   []xml.Attr `xml:",any,attr"`
	Contour string     `xml:",chardata"`
}

type track struct {
	Name  string `xml:"name,attr"`
	ID    int    `xml:"TRACK_ID,attr"`
	Edges []edge `xml:"Edge"`
}

type edge struct {
	Source int `xml:"SPOT_SOURCE_ID,attr"`
	Target int `xml:"SPOT_TARGET_ID,attr"`
}

type filteredList struct {
	IDs []filteredRef `xml:"TrackID"`
}

type filteredRef struct {
	ID int `xml:"TRACK_ID,attr"`
}

// visible reports whether a track survived filtering. A session saved
// without a FilteredTracks element shows every track.
func (f *filteredList) visible() func(id int) bool {
	if f == nil {
		return func(int) bool { return true }
	}
	ids := make(map[int]bool, len(f.IDs))
	for _, r := range f.IDs {
		ids[r.ID] = true
	}
	return func(id int) bool { return ids[id] }
}

type settings struct {
	Image *imageData `xml:"ImageData"`
}

type imageData struct {
	FileName     string  `xml:"filename,attr"`
	Folder       string  `xml:"folder,attr"`
	Width        int     `xml:"width,attr"`
	Height       int     `xml:"height,attr"`
	Slices       int     `xml:"nslices,attr"`
	Frames       int     `xml:"nframes,attr"`
	Channels     int     `xml:"nchannels,attr"`
	PixelWidth   float64 `xml:"pixelwidth,attr"`
	PixelHeight  float64 `xml:"pixelheight,attr"`
	VoxelDepth   float64 `xml:"voxeldepth,attr"`
	TimeInterval float64 `xml:"timeinterval,attr"`
}

// Model is a TrackMate session loaded from disk. It implements host.Model.
type Model struct {
	tracks []core.Track
	run    core.RunContext
}

// Tracks returns the tracks in file order, optionally only the filtered ones
func (m *Model) Tracks(visibleOnly bool) []core.Track {
	if !visibleOnly {
		return m.tracks
	}
	out := make([]core.Track, 0, len(m.tracks))
	for _, t := range m.tracks {
		if t.Visible {
			out = append(out, t)
		}
	}
	return out
}

// Run returns the session settings
func (m *Model) Run() core.RunContext {
	return m.run
}

// ReadFile loads a TrackMate XML file
func ReadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a TrackMate XML document
func Read(r io.Reader) (*Model, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("trackmate: decoding document: %w", err)
	}
	if doc.Model == nil {
		return nil, ErrNoModel
	}

	spots, err := indexSpots(doc.Model.Frames)
	if err != nil {
		return nil, err
	}

	visible := doc.Model.Filtered.visible()

	m := &Model{run: runContext(&doc)}
	for _, t := range doc.Model.Tracks {
		ct, err := buildTrack(t, spots)
		if err != nil {
			return nil, err
		}
		ct.Visible = visible(t.ID)
		m.tracks = append(m.tracks, ct)
	}
	return m, nil
}

func runContext(doc *document) core.RunContext {
	run := core.RunContext{
		SpaceUnits: doc.Model.SpatialUnits,
		TimeUnits:  doc.Model.TimeUnits,
	}
	if doc.Version != "" {
		run.Provenance = "TrackMate v" + doc.Version
	}

	for _, f := range doc.Model.Features {
		run.Catalog = append(run.Catalog, core.Feature{
			Key:   f.Key,
			Name:  f.Name,
			Units: f.Dimension,
			IsInt: f.IsInt,
		})
	}

	if doc.Settings != nil && doc.Settings.Image != nil {
		img := doc.Settings.Image
		run.FrameInterval = img.TimeInterval
		run.Image = &core.ImageInfo{
			Directory:   img.Folder,
			FileName:    img.FileName,
			SizeX:       img.Width,
			SizeY:       img.Height,
			SizeC:       img.Channels,
			SizeZ:       img.Slices,
			SizeT:       img.Frames,
			PixelWidth:  img.PixelWidth,
			PixelHeight: img.PixelHeight,
			VoxelDepth:  img.VoxelDepth,
		}
	}
	return run
}

// indexSpots parses every spot and keys it by ID
func indexSpots(frames []spotsFrame) (map[int]core.Spot, error) {
	spots := make(map[int]core.Spot)
	for _, fr := range frames {
		for _, xs := range fr.Spots {
			s, err := parseSpot(xs, fr.Frame)
			if err != nil {
				return nil, err
			}
			spots[s.ID] = s
		}
	}
	return spots, nil
}

func parseSpot(xs xmlSpot, frame int) (core.Spot, error) {
	s := core.Spot{
		ID:       -1,
		Frame:    frame + 1,
		Features: make(map[string]float64, len(xs.Attrs)),
	}
	nPoints := 0

	for _, a := range xs.Attrs {
		switch a.Name.Local {
		case "ID":
			id, err := strconv.Atoi(a.Value)
			if err != nil {
				return s, fmt.Errorf("trackmate: spot id %q: %w", a.Value, err)
			}
			s.ID = id
		case "ROI_N_POINTS":
			n, err := strconv.Atoi(a.Value)
			if err != nil {
				return s, fmt.Errorf("trackmate: spot ROI_N_POINTS %q: %w", a.Value, err)
			}
			nPoints = n
		}
		if reservedAttrs[a.Name.Local] {
			continue
		}
		v, err := strconv.ParseFloat(a.Value, 64)
		if err != nil {
			continue
		}
		s.Features[a.Name.Local] = v
	}
	if s.ID < 0 {
		return s, errors.New("trackmate: spot without ID")
	}

	s.Position = core.Position3D{
		X: s.Features[core.FeaturePositionX],
		Y: s.Features[core.FeaturePositionY],
		Z: s.Features[core.FeaturePositionZ],
	}
	if f, ok := s.Features[core.FeatureFrame]; ok {
		s.Frame = int(f) + 1
	}

	if nPoints > 0 {
		vertices, err := geo.ParseContour(xs.Contour)
		if err != nil {
			return s, fmt.Errorf("trackmate: spot %d: %w", s.ID, err)
		}
		if len(vertices) != nPoints {
			return s, fmt.Errorf("trackmate: spot %d: %w: expected %d vertices, got %d",
				s.ID, geo.ErrInvalidContour, nPoints, len(vertices))
		}
		s.Shape = &core.Shape{Vertices: vertices}
	} else if strings.TrimSpace(xs.Contour) != "" {
		return s, fmt.Errorf("trackmate: spot %d: contour without ROI_N_POINTS", s.ID)
	}
	return s, nil
}

// buildTrack collects the spots touched by the track's edges, ordered by ID
func buildTrack(t track, spots map[int]core.Spot) (core.Track, error) {
	ids := make(map[int]struct{}, len(t.Edges)+1)
	for _, e := range t.Edges {
		ids[e.Source] = struct{}{}
		ids[e.Target] = struct{}{}
	}

	ct := core.Track{ID: t.ID, Name: t.Name, Spots: make([]core.Spot, 0, len(ids))}
	for id := range ids {
		s, ok := spots[id]
		if !ok {
			return ct, fmt.Errorf("trackmate: track %d references unknown spot %d", t.ID, id)
		}
		ct.Spots = append(ct.Spots, s)
	}
	sort.Slice(ct.Spots, func(i, j int) bool { return ct.Spots[i].ID < ct.Spots[j].ID })
	return ct, nil
}
