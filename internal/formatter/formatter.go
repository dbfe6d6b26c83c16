// package formatter serializes session decisions for external auditing
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/20uf/tidy-ur-spotify/internal/models"
)

// DecisionsToCSV renders decisions with columns: track_id, track_name,
// artist, themes (| joined), skipped. Row order follows resolution order.
func DecisionsToCSV(decisions []models.Decision) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"track_id", "track_name", "artist", "themes", "skipped"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, decision := range decisions {
		record := []string{
			decision.TrackID,
			decision.TrackName,
			decision.Artist,
			strings.Join(decision.Themes, "|"),
			strconv.FormatBool(decision.Skipped),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// CSVExporter writes decision CSVs to disk. Implements the session
// engine's export contract.
type CSVExporter struct{}

// ExportDecisions writes the CSV to path and returns the path written.
func (CSVExporter) ExportDecisions(decisions []models.Decision, path string) (string, error) {
	data, err := DecisionsToCSV(decisions)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
