/*
Copyright © 2026 the GridShift authors.
This file is part of GridShift.

GridShift is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

GridShift is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with GridShift.  If not, see <http://www.gnu.org/licenses/>.
*/

package gridshiftutil

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spatialmodel/gridshift"
	"github.com/tealeg/xlsx"
)

// universalFields lead every output row, before the per-metric fields.
var universalFields = []string{"fromTime", "toTime", "timeSpan"}

// WriteRecords writes one table row per record to filename, choosing the
// format from the extension (.csv or .xlsx). Undefined values appear as
// empty cells, never as zero.
func WriteRecords(filename string, fields []string, records []*gridshift.Record) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return writeCSV(filename, fields, records)
	case ".xlsx":
		return writeXLSX(filename, fields, records)
	}
	return fmt.Errorf("gridshift: unknown output format for file %s", filename)
}

func writeCSV(filename string, fields []string, records []*gridshift.Record) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("gridshift: creating output file: %v", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(append(append([]string{}, universalFields...), fields...)); err != nil {
		return err
	}
	row := make([]string, 0, len(universalFields)+len(fields))
	for _, rec := range records {
		row = row[:0]
		row = append(row, formatCell(rec.FromTime), formatCell(rec.ToTime), formatCell(rec.TimeSpan))
		for _, name := range fields {
			row = append(row, formatCell(rec.Field(name)))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeXLSX(filename string, fields []string, records []*gridshift.Record) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("velocity")
	if err != nil {
		return fmt.Errorf("gridshift: creating output sheet: %v", err)
	}
	header := sheet.AddRow()
	for _, name := range append(append([]string{}, universalFields...), fields...) {
		header.AddCell().SetString(name)
	}
	for _, rec := range records {
		row := sheet.AddRow()
		for _, v := range []float64{rec.FromTime, rec.ToTime, rec.TimeSpan} {
			row.AddCell().SetFloat(v)
		}
		for _, name := range fields {
			v := rec.Field(name)
			if math.IsNaN(v) {
				row.AddCell().SetString("")
			} else {
				row.AddCell().SetFloat(v)
			}
		}
	}
	if err := file.Save(filename); err != nil {
		return fmt.Errorf("gridshift: saving output file: %v", err)
	}
	return nil
}

// formatCell renders a value for CSV output, with NaN (undefined) as an
// empty cell.
func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
