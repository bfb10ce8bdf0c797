// Package loader reads a directory of per-position spectrum CSV files into a
// single point cloud.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"emiheatmap/internal/models"
)

// Extension is the suffix of measurement files. Matching is case sensitive.
const Extension = ".csv"

// positionPattern matches x<X>_y<Y>.csv
var positionPattern = regexp.MustCompile(`^x([-+]?[0-9]*\.?[0-9]+)_y([-+]?[0-9]*\.?[0-9]+)\.csv$`)

// ParsePosition extracts the probe position encoded in a measurement file name
func ParsePosition(name string) (x, y float64, err error) {
	m := positionPattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q does not match x<X>_y<Y>%s", models.ErrMalformedFilename, name, Extension)
	}
	if x, err = strconv.ParseFloat(m[1], 64); err != nil {
		return 0, 0, fmt.Errorf("%w: %q: bad x value: %v", models.ErrMalformedFilename, name, err)
	}
	if y, err = strconv.ParseFloat(m[2], 64); err != nil {
		return 0, 0, fmt.Errorf("%w: %q: bad y value: %v", models.ErrMalformedFilename, name, err)
	}
	return x, y, nil
}

// ListMeasurementFiles returns the names of the measurement files in dir in
// lexical order
func ListMeasurementFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// LoadPointCloud reads every measurement file in dir and concatenates their
// rows. Files are read in lexical order so two scans of the same grid
// enumerate their samples identically.
func LoadPointCloud(dir string) (*models.PointCloud, error) {
	names, err := ListMeasurementFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read measurement directory: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", models.ErrNoMeasurements, dir)
	}

	// Validate every name before touching file contents
	positions := make([][2]float64, len(names))
	for i, name := range names {
		x, y, err := ParsePosition(name)
		if err != nil {
			return nil, err
		}
		positions[i] = [2]float64{x, y}
	}

	cloud := &models.PointCloud{}
	for i, name := range names {
		path := filepath.Join(dir, name)
		n, err := readFile(path, positions[i][0], positions[i][1], cloud)
		if err != nil {
			return nil, err
		}
		log.Debug().
			Str("file", name).
			Float64("x", positions[i][0]).
			Float64("y", positions[i][1]).
			Int("rows", n).
			Msg("loaded measurement")
	}

	return cloud, nil
}

// readFile appends the rows of one measurement file to cloud and returns the
// number of rows read
func readFile(path string, x, y float64, cloud *models.PointCloud) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	return ReadSamples(file, path, x, y, cloud)
}

// ReadSamples parses measurement rows from r. The first line is the column
// header (normally "# f[Hz], a[dB]") and is discarded; the columns are always
// interpreted as frequency then amplitude.
func ReadSamples(r io.Reader, name string, x, y float64, cloud *models.PointCloud) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	rows := 0
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("%w: %s: %v", models.ErrMalformedRow, name, err)
		}
		if header {
			header = false
			continue
		}

		line, _ := reader.FieldPos(0)
		if len(record) != 2 {
			return rows, fmt.Errorf("%w: %s:%d: expected 2 fields, got %d",
				models.ErrMalformedRow, name, line, len(record))
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			return rows, fmt.Errorf("%w: %s:%d: frequency %q is not a number",
				models.ErrMalformedRow, name, line, record[0])
		}
		a, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return rows, fmt.Errorf("%w: %s:%d: amplitude %q is not a number",
				models.ErrMalformedRow, name, line, record[1])
		}

		cloud.Samples = append(cloud.Samples, models.Sample{X: x, Y: y, F: f, A: a})
		rows++
	}

	return rows, nil
}
