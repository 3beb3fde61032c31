package catalog

import (
	"sort"
	"strings"
)

// TermEntry maps a domain phrase to its canonical form.
type TermEntry struct {
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
}

type ColumnMeta struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type TableMeta struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Columns     []ColumnMeta `json:"columns"`
}

// Snapshot bundles the three catalogs (term dictionary, schema metadata,
// domain knowledge) loaded once at startup. It is shared read-only across
// concurrent requests and must not be mutated after New returns.
type Snapshot struct {
	Terms     []TermEntry // longest pattern first
	Tables    []TableMeta
	Knowledge []string

	tableIndex map[string]int
}

func New(terms []TermEntry, tables []TableMeta, knowledge []string) *Snapshot {
	s := &Snapshot{
		Terms:      make([]TermEntry, len(terms)),
		Tables:     tables,
		Knowledge:  knowledge,
		tableIndex: make(map[string]int, len(tables)),
	}
	copy(s.Terms, terms)
	// Longer patterns first so e.g. "1라인" is rewritten before a shorter
	// entry that is a substring of it could corrupt the match.
	sort.SliceStable(s.Terms, func(i, j int) bool {
		return len(s.Terms[i].Pattern) > len(s.Terms[j].Pattern)
	})
	for i, t := range tables {
		s.tableIndex[t.Name] = i
	}
	return s
}

func (s *Snapshot) Table(name string) (TableMeta, bool) {
	i, ok := s.tableIndex[name]
	if !ok {
		return TableMeta{}, false
	}
	return s.Tables[i], true
}

func (s *Snapshot) HasTable(name string) bool {
	_, ok := s.tableIndex[name]
	return ok
}

func (s *Snapshot) HasColumn(table, column string) bool {
	t, ok := s.Table(table)
	if !ok {
		return false
	}
	for _, c := range t.Columns {
		if c.Name == column {
			return true
		}
	}
	return false
}

// IdentityColumn returns the table's stable ordering key: the column named
// "id" when present, otherwise the first declared column. Unknown tables
// fall back to "id".
func (s *Snapshot) IdentityColumn(table string) string {
	t, ok := s.Table(table)
	if !ok {
		return "id"
	}
	for _, c := range t.Columns {
		if c.Name == "id" {
			return c.Name
		}
	}
	if len(t.Columns) > 0 {
		return t.Columns[0].Name
	}
	return "id"
}

// KnowledgeFor returns up to max knowledge notes that mention the given table.
func (s *Snapshot) KnowledgeFor(table string, max int) []string {
	var hits []string
	for _, note := range s.Knowledge {
		if strings.Contains(note, table) {
			hits = append(hits, note)
			if len(hits) == max {
				break
			}
		}
	}
	return hits
}

func (s *Snapshot) Empty() bool {
	return len(s.Terms) == 0 && len(s.Tables) == 0 && len(s.Knowledge) == 0
}
