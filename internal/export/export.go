// Package export writes final temperature fields to disk in formats that
// external viewers understand: VTK ImageData (.vti), plain CSV, and a
// ParaView collection (.pvd) that groups several .vti files.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/agbru/heatsolve/internal/errors"
	"github.com/agbru/heatsolve/internal/heat"
)

// PlateWidth is the physical side of the plate, used for grid spacing.
const PlateWidth = 9.0

// ScalarName labels the exported field.
const ScalarName = "Temperature"

// Format selects an output encoding.
type Format string

const (
	FormatVTI Format = "vti"
	FormatCSV Format = "csv"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatVTI, FormatCSV:
		return f, nil
	}
	return "", apperrors.NewConfigError("unknown export format %q (want vti or csv)", s)
}

// Spacing returns the distance between neighbouring points of an n×n grid.
func Spacing(n int) float64 {
	if n < 2 {
		return PlateWidth
	}
	return PlateWidth / float64(n-1)
}

type vtkFile struct {
	XMLName   xml.Name       `xml:"VTKFile"`
	Type      string         `xml:"type,attr"`
	Version   string         `xml:"version,attr"`
	ByteOrder string         `xml:"byte_order,attr"`
	Image     *imageData     `xml:"ImageData,omitempty"`
	Coll      *collectionXML `xml:"Collection,omitempty"`
}

type imageData struct {
	WholeExtent string `xml:"WholeExtent,attr"`
	Origin      string `xml:"Origin,attr"`
	Spacing     string `xml:"Spacing,attr"`
	Piece       piece  `xml:"Piece"`
}

type piece struct {
	Extent    string    `xml:"Extent,attr"`
	PointData pointData `xml:"PointData"`
	CellData  struct{}  `xml:"CellData"`
}

type pointData struct {
	Scalars string    `xml:"Scalars,attr"`
	Array   dataArray `xml:"DataArray"`
}

type dataArray struct {
	Type   string `xml:"type,attr"`
	Name   string `xml:"Name,attr"`
	Format string `xml:"format,attr"`
	Values string `xml:",innerxml"`
}

type collectionXML struct {
	DataSets []DataSet `xml:"DataSet"`
}

// DataSet is one entry of a .pvd collection.
type DataSet struct {
	Timestep float64 `xml:"timestep,attr"`
	File     string  `xml:"file,attr"`
}

// WriteVTI encodes g as ASCII Float32 ImageData with x varying fastest.
func WriteVTI(w io.Writer, g heat.Grid) error {
	extent := fmt.Sprintf("0 %d 0 %d 0 0", g.N-1, g.N-1)
	h := formatFloat(Spacing(g.N))

	var values strings.Builder
	values.WriteByte('\n')
	for i := 0; i < g.N; i++ {
		for j := 0; j < g.N; j++ {
			if j > 0 {
				values.WriteByte(' ')
			}
			values.WriteString(strconv.FormatFloat(g.At(i, j), 'f', 6, 32))
		}
		values.WriteByte('\n')
	}

	doc := vtkFile{
		Type: "ImageData", Version: "0.1", ByteOrder: "LittleEndian",
		Image: &imageData{
			WholeExtent: extent,
			Origin:      "0 0 0",
			Spacing:     h + " " + h + " 1",
			Piece: piece{
				Extent: extent,
				PointData: pointData{
					Scalars: ScalarName,
					Array:   dataArray{Type: "Float32", Name: ScalarName, Format: "ascii", Values: values.String()},
				},
			},
		},
	}
	return encodeXML(w, doc)
}

// WritePVD encodes a ParaView collection referencing the given data sets.
func WritePVD(w io.Writer, sets []DataSet) error {
	doc := vtkFile{
		Type: "Collection", Version: "0.1", ByteOrder: "LittleEndian",
		Coll: &collectionXML{DataSets: sets},
	}
	return encodeXML(w, doc)
}

// WriteCSV encodes g as "i,j,T" rows where i is the column and j the row.
func WriteCSV(w io.Writer, g heat.Grid) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"i", "j", "T"}); err != nil {
		return err
	}
	for row := 0; row < g.N; row++ {
		for col := 0; col < g.N; col++ {
			rec := []string{strconv.Itoa(col), strconv.Itoa(row), strconv.FormatFloat(g.At(row, col), 'f', 6, 64)}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func encodeXML(w io.Writer, doc vtkFile) error {
	bw := bufio.NewWriter(w)
	if _, err := io.WriteString(bw, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(bw)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if _, err := bw.WriteString("\n"); err != nil {
		return err
	}
	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FileName returns the base name used for simulation idx of a run.
func FileName(idx int, cfg heat.SimulationConfig, f Format) string {
	return fmt.Sprintf("sim_%02d_f%.3f_n%d.%s", idx, cfg.HotFraction, cfg.GridSize, f)
}

// WriteResult writes the final grid of res into dir, creating the directory
// if needed, and returns the path of the written file.
func WriteResult(dir string, idx int, res heat.SolveResult, f Format) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, FileName(idx, res.Config, f))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	switch f {
	case FormatCSV:
		err = WriteCSV(file, res.FinalGrid)
	default:
		err = WriteVTI(file, res.FinalGrid)
	}
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, file.Close()
}

// WriteCollection writes series.pvd in dir referencing files, one time step
// per entry in order.
func WriteCollection(dir string, files []string) (string, error) {
	sets := make([]DataSet, len(files))
	for i, f := range files {
		sets[i] = DataSet{Timestep: float64(i), File: filepath.Base(f)}
	}
	path := filepath.Join(dir, "series.pvd")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create collection: %w", err)
	}
	defer file.Close()
	if err := WritePVD(file, sets); err != nil {
		return "", err
	}
	return path, file.Close()
}
