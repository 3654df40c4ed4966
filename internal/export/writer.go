package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

// Output file locations, relative to the output directory.
const (
	RecordsJSONPath = "json/extracted_data.json"
	ReportJSONPath  = "json/validation_report.json"
	RecordsXLSXPath = "excel/extracted_data.xlsx"
	ReportXLSXPath  = "excel/validation_report.xlsx"
	RecordsCSVPath  = "csv/extracted_data.csv"
)

// Writer persists records and reports to the output directory in the
// configured formats.
type Writer struct {
	dir     string
	formats map[string]bool
	schema  *jsonschema.Schema
	logger  *slog.Logger
}

// NewWriter creates a Writer. An empty formats list writes every format.
func NewWriter(dir string, formats []string, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(formats) == 0 {
		formats = []string{common.FormatJSON, common.FormatXLSX, common.FormatCSV}
	}
	schema, err := RecordSchema()
	if err != nil {
		return nil, common.NewAppError(common.CodeExport, "record schema", err)
	}
	set := make(map[string]bool, len(formats))
	for _, f := range formats {
		set[f] = true
	}
	return &Writer{dir: dir, formats: set, schema: schema, logger: logger}, nil
}

// Write serializes docs and report. Records that do not match the output
// schema abort the write before any file is touched.
func (w *Writer) Write(docs []entity.ProcessedDocument, report Report) ([]string, error) {
	start := time.Now()

	records := make([]entity.OutputRecord, 0, len(docs))
	for _, d := range docs {
		rec := d.ToOutput()
		if err := ValidateRecord(w.schema, rec); err != nil {
			return nil, common.NewAppError(common.CodeExport, "invalid output record", err)
		}
		records = append(records, rec)
	}

	var written []string
	if w.formats[common.FormatJSON] {
		if err := w.writeJSON(RecordsJSONPath, records); err != nil {
			return written, err
		}
		if err := w.writeJSON(ReportJSONPath, report); err != nil {
			return written, err
		}
		written = append(written, w.path(RecordsJSONPath), w.path(ReportJSONPath))
	}
	if w.formats[common.FormatXLSX] {
		if err := w.writeFile(RecordsXLSXPath, func(f *os.File) error { return WriteRecordsXLSX(f, records) }); err != nil {
			return written, err
		}
		if err := w.writeFile(ReportXLSXPath, func(f *os.File) error { return WriteReportXLSX(f, report) }); err != nil {
			return written, err
		}
		written = append(written, w.path(RecordsXLSXPath), w.path(ReportXLSXPath))
	}
	if w.formats[common.FormatCSV] {
		if err := w.writeFile(RecordsCSVPath, func(f *os.File) error { return WriteRecordsCSV(f, records) }); err != nil {
			return written, err
		}
		written = append(written, w.path(RecordsCSVPath))
	}

	w.logger.Info("export.write.ok",
		"dir", w.dir,
		"records", len(records),
		"files", len(written),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return written, nil
}

func (w *Writer) path(rel string) string {
	return filepath.Join(w.dir, filepath.FromSlash(rel))
}

func (w *Writer) writeJSON(rel string, v any) error {
	return w.writeFile(rel, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

func (w *Writer) writeFile(rel string, fill func(*os.File) error) error {
	path := w.path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return common.NewAppError(common.CodeExport, "create output directory", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return common.NewAppError(common.CodeExport, fmt.Sprintf("create %s", path), err)
	}
	if err := fill(f); err != nil {
		_ = f.Close()
		return common.NewAppError(common.CodeExport, fmt.Sprintf("write %s", path), err)
	}
	if err := f.Close(); err != nil {
		return common.NewAppError(common.CodeExport, fmt.Sprintf("close %s", path), err)
	}
	return nil
}
