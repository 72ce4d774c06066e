package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// Record describes the outcome of a single arbitrage attempt.
type Record struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Token      string    `json:"token"`
	Timestamp  time.Time `json:"timestamp"`
	LoanAmount uint64    `json:"loan_amount"`
	NetProfit  int64     `json:"net_profit"`
	Executed   bool      `json:"executed"`
	Signature  string    `json:"signature,omitempty"`
	SkipReason string    `json:"skip_reason,omitempty"`
}

func csvHeaders() []string {
	return []string{"id", "name", "token", "timestamp", "loan_amount", "net_profit", "executed", "signature", "skip_reason"}
}

func (r Record) toCSV() []string {
	return []string{
		r.ID,
		r.Name,
		r.Token,
		r.Timestamp.UTC().Format(time.RFC3339),
		strconv.FormatUint(r.LoanAmount, 10),
		strconv.FormatInt(r.NetProfit, 10),
		strconv.FormatBool(r.Executed),
		r.Signature,
		r.SkipReason,
	}
}

// Options configures the export behavior
type Options struct {
	Format       ExportFormat
	TokenFilter  string // Filter by loan token
	OnlyExecuted bool   // Only export executed attempts
	OutputDir    string
}

// Exporter writes attempt outcome reports.
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new outcome exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// ExportRecords exports attempt records based on the provided options
func (e *Exporter) ExportRecords(records []Record, options Options) (string, error) {
	filtered := e.filter(records, options)

	if len(filtered) == 0 {
		return "", fmt.Errorf("no records match the export criteria")
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	filename := fmt.Sprintf("attempts_%s.%s", time.Now().Format("20060102_150405"), options.Format)
	outputPath := filepath.Join(options.OutputDir, filename)

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	switch options.Format {
	case FormatCSV:
		err = e.exportToCSV(filtered, outputPath)
	case FormatJSON:
		err = e.exportToJSON(filtered, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		return "", err
	}

	e.logger.Info("Attempt records exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

func (e *Exporter) filter(records []Record, options Options) []Record {
	var filtered []Record
	for _, r := range records {
		if options.TokenFilter != "" && r.Token != options.TokenFilter {
			continue
		}
		if options.OnlyExecuted && !r.Executed {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

func (e *Exporter) exportToCSV(records []Record, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(csvHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, r := range records {
		if err := writer.Write(r.toCSV()); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	return nil
}

func (e *Exporter) exportToJSON(records []Record, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	exportData := struct {
		ExportTime  time.Time `json:"export_time"`
		RecordCount int       `json:"record_count"`
		Records     []Record  `json:"records"`
		Summary     Summary   `json:"summary"`
	}{
		ExportTime:  time.Now(),
		RecordCount: len(records),
		Records:     records,
		Summary:     calculateSummary(records),
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// Summary contains aggregate statistics for exported records
type Summary struct {
	TotalAttempts    int       `json:"total_attempts"`
	ExecutedAttempts int       `json:"executed_attempts"`
	SkippedAttempts  int       `json:"skipped_attempts"`
	UniqueTokens     int       `json:"unique_tokens"`
	TotalProfit      int64     `json:"total_profit"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
}

func calculateSummary(records []Record) Summary {
	summary := Summary{TotalAttempts: len(records)}
	if len(records) == 0 {
		return summary
	}

	summary.StartDate = records[0].Timestamp
	summary.EndDate = records[len(records)-1].Timestamp

	tokenSet := make(map[string]bool)
	for _, r := range records {
		tokenSet[r.Token] = true
		if r.Executed {
			summary.ExecutedAttempts++
			summary.TotalProfit += r.NetProfit
		} else {
			summary.SkippedAttempts++
		}
	}
	summary.UniqueTokens = len(tokenSet)
	return summary
}
