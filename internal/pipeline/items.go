package pipeline

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dgallion1/matclass/internal/tabular"
)

// Column aliases accepted for batch sheets, in preference order.
var (
	MaterialColumns    = []string{"Material", "codigo_material", "id"}
	DescriptionColumns = []string{"Texto - pt", "Texto", "descritivo", "Descrição", "description"}
)

// ErrNoItems is returned when a batch input has no classifiable rows.
var ErrNoItems = errors.New("batch has no items")

// ItemsFromTable extracts items from a sheet. Rows without a description are
// skipped. When there is no material column the 1-based row number is used.
func ItemsFromTable(tbl *tabular.Table) ([]Item, error) {
	descCol := tbl.Column(DescriptionColumns...)
	if descCol < 0 {
		return nil, fmt.Errorf("batch table: missing description column (header %v)", tbl.Header)
	}
	idCol := tbl.Column(MaterialColumns...)

	var items []Item
	for i, row := range tbl.Rows {
		desc := tabular.Cell(row, descCol)
		if desc == "" {
			continue
		}
		id := tabular.Cell(row, idCol)
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		items = append(items, Item{ID: id, Description: desc})
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	return items, nil
}

// ReadItems reads an .xlsx or .csv batch file.
func ReadItems(r io.Reader, filename string) ([]Item, error) {
	tbl, err := tabular.Read(r, filename)
	if err != nil {
		return nil, err
	}
	return ItemsFromTable(tbl)
}
