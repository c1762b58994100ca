package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/errors"
)

var csvHeader = []string{
	"framework",
	"timestamp",
	"mean_fps",
	"mean_memory_mb",
	"load_time_ms",
	"mean_latency_ms",
}

// ExportCSV writes the session summary as a one-line header plus one
// data row
func (c *Collector) ExportCSV(w io.Writer) error {
	errFactory := errors.New()

	summary := c.Summary()

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return errFactory.Wrap(ErrExportFailed, err)
	}

	row := []string{
		summary.Framework,
		time.Now().UTC().Format(time.RFC3339),
		strconv.Itoa(summary.MeanFPS),
		strconv.Itoa(summary.MeanMemoryMB),
		strconv.Itoa(summary.LoadTimeMS),
		strconv.Itoa(summary.MeanLatencyMS),
	}
	if err := writer.Write(row); err != nil {
		return errFactory.Wrap(ErrExportFailed, err)
	}

	writer.Flush()

	return writer.Error()
}

// WriteCSVFile exports the current session to a timestamped file in dir
// and returns its path
func (c *Collector) WriteCSVFile(dir string) (string, error) {
	errFactory := errors.New()

	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return "", errFactory.Wrap(ErrExportFailed, err)
	}

	summary := c.Summary()
	name := fmt.Sprintf("metrics_%s_%s.csv", summary.Framework, time.Now().Format("20060102T150405"))
	path := filepath.Join(dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", errFactory.Wrap(ErrExportFailed, err)
	}
	defer file.Close()

	if err := c.ExportCSV(file); err != nil {
		return "", err
	}

	return path, nil
}
