// Package importer turns raw tabular rows into vetted plan-item candidates.
// The pipeline is read-only with respect to stored state: parsing and
// validation can be re-run or discarded freely, and only an explicit commit
// (in the service layer) writes anything.
package importer

import (
	"encoding/csv"
	"io"

	"github.com/png-egov/procurement-plans/internal/catalog"
)

// ColumnCount is the fixed width of the import format. Columns are
// positional; the first row is a header and is skipped.
const ColumnCount = 21

// Column positions in the import format.
const (
	colTitle = iota
	colDescription
	colClassificationCode
	colMethodCode
	colContractTypeCode
	colQuantity
	colUoMCode
	colUnitCost
	colStartDate
	colEndDate
	colQ1Budget
	colQ2Budget
	colQ3Budget
	colQ4Budget
	colLocationScope
	colProvinceCode
	colMultiYearFlag
	colMultiYearTotal
	colThirdPartyFlag
	colComments
	colRiskNotes
)

// Row is the validation result for one input row. It exists only for the
// duration of an import operation.
type Row struct {
	RowNumber int        `json:"row_number"` // 1-based position in the file, header included
	Candidate *Candidate `json:"candidate,omitempty"`
	Errors    []string   `json:"errors,omitempty"`
	Warnings  []string   `json:"warnings,omitempty"`
}

// IsValid reports whether the row has zero blocking errors. Warnings do not
// affect validity.
func (r *Row) IsValid() bool { return len(r.Errors) == 0 }

// Report is the outcome of validating one batch.
type Report struct {
	Rows        []*Row `json:"rows"`
	TotalRows   int    `json:"total_rows"`
	ValidRows   int    `json:"valid_rows"`
	InvalidRows int    `json:"invalid_rows"`
	WarnedRows  int    `json:"warned_rows"`
}

// ValidRowsOnly returns the committable subset.
func (rep *Report) ValidRowsOnly() []*Row {
	out := make([]*Row, 0, rep.ValidRows)
	for _, r := range rep.Rows {
		if r.IsValid() {
			out = append(out, r)
		}
	}
	return out
}

// ValidateGrid parses and validates a rectangular grid of cells. The first
// row is treated as a header and skipped; entirely blank rows are skipped
// silently. Rows are validated independently: one row's failure never
// affects another row's parsing. Sequence numbers are assigned starting at
// startSeq in file order, against the single snapshot the caller took at
// batch start (concurrent imports on one plan must be serialized by the
// caller).
func ValidateGrid(grid [][]string, catalogs *catalog.Set, startSeq int) *Report {
	rep := &Report{}
	seq := startSeq

	for i, cells := range grid {
		rowNumber := i + 1
		if rowNumber == 1 {
			continue // header
		}
		if isBlankRow(cells) {
			continue
		}

		row := parseRow(rowNumber, cells)
		validateRow(row, catalogs)
		if row.Candidate != nil {
			row.Candidate.SequenceNo = seq
		}
		seq++

		rep.Rows = append(rep.Rows, row)
		rep.TotalRows++
		if row.IsValid() {
			rep.ValidRows++
		} else {
			rep.InvalidRows++
		}
		if len(row.Warnings) > 0 {
			rep.WarnedRows++
		}
	}

	return rep
}

// ReadCSV reads the import grid from CSV. Ragged rows are tolerated here;
// the parser pads or rejects per cell.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if trim(c) != "" {
			return false
		}
	}
	return true
}
