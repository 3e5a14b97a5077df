package pantry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"kitchensync/internal/models"
)

// MaxImportRows bounds the size of a pantry import.
const MaxImportRows = 10000

var csvHeader = []string{"name", "category", "quantity", "unit"}

// ExportCSV writes the pantry as CSV with a header row.
func (s *Store) ExportCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, ing := range s.items {
		record := []string{ing.Name, string(ing.Category), ing.Quantity, ing.Unit}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ImportCSV appends every row of r to the pantry. The first row is a header
// and is skipped. All rows are validated before any of them is added; a bad
// row rejects the whole import. It returns the number of rows added.
func (s *Store) ImportCSV(r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)

	var rows []models.NewIngredient
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, models.Invalid("csv", fmt.Sprintf("parse error at line %d: %v", line+1, err))
		}

		line++
		if line == 1 {
			continue
		}
		if line > MaxImportRows+1 {
			return 0, models.Invalid("csv", fmt.Sprintf("too many rows (max %d)", MaxImportRows))
		}

		n := models.NewIngredient{
			Name:     record[0],
			Category: models.IngredientCategory(strings.TrimSpace(record[1])),
			Quantity: record[2],
			Unit:     record[3],
		}
		if err := n.Validate(); err != nil {
			var ve *models.ValidationError
			if errors.As(err, &ve) {
				return 0, models.Invalid("csv", fmt.Sprintf("line %d: %s", line, ve.Message))
			}
			return 0, err
		}
		rows = append(rows, n)
	}

	for _, n := range rows {
		s.items = append(s.items, models.Ingredient{
			ID:       uuid.NewString(),
			Name:     n.Name,
			Category: n.Category,
			Quantity: n.Quantity,
			Unit:     n.Unit,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return len(rows), s.persist()
}
