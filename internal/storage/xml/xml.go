// Package xml writes archives as the plain TrackMate-style track document:
// a Tracks root holding one particle element per record and one detection
// per table row.
package xml

import (
	"context"
	encxml "encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/marsarchive/trackmate-export/internal/config"
	"github.com/marsarchive/trackmate-export/pkg/core"
)

// DateLayout is the generationDateTime format
const DateLayout = "Mon, 2 Jan 2006 15:04:05"

// ErrMissingColumn is returned for records lacking a T, x, y or z column
var ErrMissingColumn = errors.New("record table lacks a position column")

// Document is the root element
type Document struct {
	XMLName            encxml.Name `xml:"Tracks"`
	NTracks            int         `xml:"nTracks,attr"`
	SpaceUnits         string      `xml:"spaceUnits,attr"`
	FrameInterval      string      `xml:"frameInterval,attr"`
	TimeUnits          string      `xml:"timeUnits,attr"`
	GenerationDateTime string      `xml:"generationDateTime,attr"`
	From               string      `xml:"from,attr"`
	Particles          []Particle  `xml:"particle"`
}

// Particle is one exported track
type Particle struct {
	NSpots     int         `xml:"nSpots,attr"`
	Detections []Detection `xml:"detection"`
}

// Detection is one spot; T is the zero-based frame
type Detection struct {
	T int     `xml:"t,attr"`
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
	Z float64 `xml:"z,attr"`
}

// Build converts an archive into a Document
func Build(a *core.Archive) (Document, error) {
	props := a.Properties
	doc := Document{
		SpaceUnits:         props.SpaceUnits,
		FrameInterval:      strconv.FormatFloat(props.FrameInterval, 'g', -1, 64),
		TimeUnits:          props.TimeUnits,
		GenerationDateTime: props.GeneratedAt.Format(DateLayout),
		From:               props.Provenance,
	}

	for _, r := range a.Records() {
		p, err := buildParticle(r)
		if err != nil {
			return Document{}, fmt.Errorf("record %s: %w", r.UID, err)
		}
		doc.Particles = append(doc.Particles, p)
	}
	doc.NTracks = len(doc.Particles)
	return doc, nil
}

func buildParticle(r *core.Record) (Particle, error) {
	idx := make([]int, 4)
	for i, name := range []string{core.ColumnFrame, core.ColumnX, core.ColumnY, core.ColumnZ} {
		idx[i] = r.Table.ColumnIndex(name)
		if idx[i] < 0 {
			return Particle{}, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	p := Particle{
		NSpots:     len(r.Table.Rows),
		Detections: make([]Detection, 0, len(r.Table.Rows)),
	}
	for _, row := range r.Table.Rows {
		p.Detections = append(p.Detections, Detection{
			T: int(row[idx[0]]),
			X: row[idx[1]],
			Y: row[idx[2]],
			Z: row[idx[3]],
		})
	}
	return p, nil
}

// Encode writes the document with an XML header
func Encode(w io.Writer, doc Document, indent bool) error {
	if _, err := io.WriteString(w, encxml.Header); err != nil {
		return err
	}
	enc := encxml.NewEncoder(w)
	if indent {
		enc.Indent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Backend writes every saved archive to the configured output file
type Backend struct {
	cfg config.XMLConfig
	now func() time.Time

	outputPath     string
	lastExportPath string
	mu             sync.Mutex
}

// New creates an XML document backend
func New(cfg config.XMLConfig) *Backend {
	return &Backend{cfg: cfg, now: time.Now}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// Extension is ".xml"
func (b *Backend) Extension() string {
	return ".xml"
}

// SetOutputPath sets the file the next archive is written to
func (b *Backend) SetOutputPath(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outputPath = path
}

// GetExportedFilePath returns the path of the last written file
func (b *Backend) GetExportedFilePath() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastExportPath
}

// SaveArchive writes the archive to the output path
func (b *Backend) SaveArchive(ctx context.Context, a *core.Archive) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.outputPath == "" {
		return errors.New("xml backend: no output path set")
	}

	doc, err := Build(a)
	if err != nil {
		return err
	}
	if a.Properties.GeneratedAt.IsZero() {
		doc.GenerationDateTime = b.now().Format(DateLayout)
	}

	if err := os.MkdirAll(filepath.Dir(b.outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(b.outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Encode(f, doc, b.cfg.Indent); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	b.lastExportPath = b.outputPath
	b.outputPath = ""
	return nil
}
