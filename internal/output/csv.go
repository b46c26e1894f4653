package output

import (
	"encoding/csv"
	"io"
	"maps"
	"slices"

	"github.com/jmylchreest/countryleaders/internal/model"
)

// csvHeader is the fixed leading column order of CSV output.
var csvHeader = []string{
	"country", "id", "first_name", "last_name", "birth_date", "death_date",
	"place_of_birth", "wikipedia_url", "start_mandate", "end_mandate", "first_paragraph",
}

// CSVWriter writes one row per leader with a leading country column.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// Write writes the header and all leaders, countries in commit order.
// A missing paragraph is an empty cell. Extra API fields follow the fixed
// columns, one column per key seen in the result, sorted by key.
func (w *CSVWriter) Write(result *model.ScrapeResult) error {
	extra := extraColumns(result)
	if err := w.w.Write(append(slices.Clone(csvHeader), extra...)); err != nil {
		return err
	}

	var err error
	result.Each(func(country model.Country, leaders []model.Leader) {
		for _, l := range leaders {
			if err != nil {
				return
			}
			err = w.w.Write(csvRow(country, l, extra))
		}
	})
	if err != nil {
		return err
	}

	w.w.Flush()
	return w.w.Error()
}

// extraColumns lists the Extra keys of every leader that are not already
// fixed columns.
func extraColumns(result *model.ScrapeResult) []string {
	seen := make(map[string]bool)
	result.Each(func(_ model.Country, leaders []model.Leader) {
		for _, l := range leaders {
			for key := range l.Extra {
				if !slices.Contains(csvHeader, key) {
					seen[key] = true
				}
			}
		}
	})
	return slices.Sorted(maps.Keys(seen))
}

func csvRow(country model.Country, l model.Leader, extra []string) []string {
	paragraph := ""
	if l.FirstParagraph != nil {
		paragraph = *l.FirstParagraph
	}
	row := []string{
		string(country), l.ID, l.FirstName, l.LastName, l.BirthDate, l.DeathDate,
		l.PlaceOfBirth, l.WikipediaURL, l.StartMandate, l.EndMandate, paragraph,
	}
	for _, key := range extra {
		row = append(row, l.ExtraText(key))
	}
	return row
}
