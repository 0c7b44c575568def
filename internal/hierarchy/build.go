package hierarchy

import (
	"fmt"
	"sort"

	"github.com/dgallion1/matclass/internal/tabular"
)

// Column aliases accepted for hierarchy sheets, in preference order.
var (
	CodeColumns        = []string{"GrpMercads.", "Grupo de mercadorias", "GRMP", "codigo_grupo", "code"}
	DescriptionColumns = []string{"Descrição GrpMercadoria", "descricao_grupo", "description"}
)

// Row is one (group code, group description) record from a hierarchy source.
type Row struct {
	Code        string
	Description string
}

// BuildStats summarizes what happened while building a tree.
type BuildStats struct {
	Rows       int `json:"rows"`
	Nodes      int `json:"nodes"`
	Attached   int `json:"attached"`
	Orphans    int `json:"orphans"`
	Duplicates int `json:"duplicates"`
	Dropped    int `json:"dropped"`
}

// Build normalizes rows, orders them by code length and inserts them.
// Rows with an empty code or description are dropped. Rows whose parent is
// absent become orphans; that is a data-quality condition, not an error.
func Build(rows []Row) (*Tree, BuildStats) {
	stats := BuildStats{Rows: len(rows)}

	clean := make([]Row, 0, len(rows))
	for _, r := range rows {
		code := NormalizeCode(r.Code)
		if code == "" || r.Description == "" {
			stats.Dropped++
			continue
		}
		clean = append(clean, Row{Code: code, Description: r.Description})
	}

	// Stable so siblings keep source order, which is the candidate order.
	sort.SliceStable(clean, func(i, j int) bool {
		return len(clean[i].Code) < len(clean[j].Code)
	})

	t := New()
	for _, r := range clean {
		if _, dup := t.nodes[r.Code]; dup {
			stats.Duplicates++
			continue
		}
		if t.AddNode(r.Code, r.Description) {
			stats.Attached++
		} else {
			stats.Orphans++
		}
	}
	stats.Nodes = t.Len()
	return t, stats
}

// FromTable extracts hierarchy rows from a table using the known column
// aliases and builds the tree.
func FromTable(tbl *tabular.Table) (*Tree, BuildStats, error) {
	codeCol := tbl.Column(CodeColumns...)
	descCol := tbl.Column(DescriptionColumns...)
	if codeCol < 0 || descCol < 0 {
		return nil, BuildStats{}, fmt.Errorf("hierarchy table: missing code or description column (header %v)", tbl.Header)
	}

	rows := make([]Row, 0, len(tbl.Rows))
	for _, rec := range tbl.Rows {
		rows = append(rows, Row{
			Code:        tabular.Cell(rec, codeCol),
			Description: tabular.Cell(rec, descCol),
		})
	}
	t, stats := Build(rows)
	return t, stats, nil
}

// Load reads a hierarchy from an .xlsx or .csv file.
func Load(path string) (*Tree, BuildStats, error) {
	tbl, err := tabular.ReadFile(path)
	if err != nil {
		return nil, BuildStats{}, fmt.Errorf("load hierarchy: %w", err)
	}
	return FromTable(tbl)
}
