package usecase

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/J-Mash24/worldz1/internal/domain/models"
)

// WriteCSV renders aggregated series as CSV: a year column followed by one
// column per group. Years a group did not report stay empty, matching the
// no-zero-fill rule of the aggregation.
func WriteCSV(w io.Writer, series []*models.AggregatedSeries) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(series)+1)
	header = append(header, "year")
	for _, s := range series {
		header = append(header, s.Group)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	years := make(map[int]bool)
	byGroup := make([]map[int]float64, len(series))
	for i, s := range series {
		byGroup[i] = make(map[int]float64, len(s.Points))
		for _, obs := range s.Points {
			years[obs.Year] = true
			byGroup[i][obs.Year] = obs.Value
		}
	}

	sorted := make([]int, 0, len(years))
	for y := range years {
		sorted = append(sorted, y)
	}
	sort.Ints(sorted)

	row := make([]string, len(series)+1)
	for _, y := range sorted {
		row[0] = strconv.Itoa(y)
		for i := range series {
			row[i+1] = ""
			if v, ok := byGroup[i][y]; ok {
				row[i+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
