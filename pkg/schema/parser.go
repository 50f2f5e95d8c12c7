package schema

import (
	"regexp"
	"strings"
)

// syntheticTable is the table name used by strategies that cannot recover a
// table name from the input.
const syntheticTable = "data"

// sqlReservedWords filters identifier candidates in the generic strategies so
// that fragments of SQL text are not mistaken for column declarations.
var sqlReservedWords = map[string]struct{}{
	"select": {}, "from": {}, "where": {}, "join": {}, "inner": {}, "outer": {},
	"left": {}, "right": {}, "group": {}, "order": {}, "having": {}, "limit": {},
	"offset": {}, "union": {}, "insert": {}, "update": {}, "delete": {},
	"create": {}, "drop": {}, "alter": {}, "table": {}, "database": {},
	"and": {}, "or": {}, "not": {}, "null": {}, "nullable": {}, "as": {},
	"on": {}, "in": {}, "is": {}, "by": {}, "with": {}, "root": {}, "struct": {},
}

// knownTypeWords is the type vocabulary accepted by the generic key:type
// strategy. A pair only counts as a column when its type token is listed here.
var knownTypeWords = map[string]struct{}{
	"int": {}, "integer": {}, "bigint": {}, "long": {}, "string": {},
	"varchar": {}, "text": {}, "char": {}, "double": {}, "float": {},
	"real": {}, "boolean": {}, "bool": {}, "date": {}, "timestamp": {},
	"datetime": {}, "binary": {}, "tinyint": {}, "smallint": {},
	"decimal": {}, "numeric": {}, "array": {}, "map": {}, "struct": {},
}

var (
	// Strategy 1: Spark printSchema tree dumps.
	//   |-- employees: struct (nullable = true)
	//   |    |-- emp_id: integer (nullable = true)
	treeTablePattern  = regexp.MustCompile(`^\|--\s*(\w+):\s*struct\b`)
	treeColumnPattern = regexp.MustCompile(`^\|\s+\|--\s*(\w+):\s*([\w<>,().]+).*\(nullable`)

	// Strategy 2: same shape with the tree-drawing characters degraded.
	looseTablePattern  = regexp.MustCompile(`^[|+\-\s]*(\w+):\s*struct\b`)
	looseColumnPattern = regexp.MustCompile(`^[|+\-\s]*(\w+):\s*([\w<>,().]+)`)

	// Strategy 3: a lone printSchema root with no named struct nodes.
	rootMarkerPattern = regexp.MustCompile(`(?m)^\s*root\s*$`)

	// Strategy 4: DDL-like "TABLE name (col TYPE, ...)" blocks.
	tableBlockPattern = regexp.MustCompile(`(?i)\bTABLE\s+(\w+)\s*\(`)

	// Strategy 5: free-form identifier:type or identifier=type pairs.
	genericPairPattern = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*[:=]\s*([A-Za-z_][\w<>,()]*)`)
)

// Parse turns a raw schema dump into a Model. It never fails: strategies are
// tried in order and the first one to produce at least one table wins; if all
// fail the returned model is empty, which callers must treat as an upstream
// hard failure.
//
// Parsing the same cleaned text twice yields structurally identical models.
func Parse(raw string) *Model {
	cleaned := cleanInput(raw)
	if cleaned == "" {
		return NewModel()
	}

	for _, strat := range []func(string) *Model{
		parseTreeIndented,
		parseLooseStruct,
		parseSingleTable,
		parseTableBlocks,
		parseGenericPairs,
	} {
		if m := strat(cleaned); !m.IsEmpty() {
			return m
		}
	}

	return NewModel()
}

// cleanInput strips control characters except newline and tab, normalizes all
// line-ending styles to \n, and trims surrounding whitespace.
func cleanInput(raw string) string {
	var sb strings.Builder
	sb.Grow(len(raw))
	for _, r := range raw {
		if r == '\r' || r == '\n' || r == '\t' || r >= 0x20 {
			sb.WriteRune(r)
		}
	}
	s := strings.ReplaceAll(sb.String(), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}

// parseTreeIndented handles Spark printSchema output where each top-level
// struct node names a table and each nested line with a nullable marker is a
// column. Array columns are skipped; nested structs are flattened into the
// owning table as one STRUCT column. Lines nested deeper than one level
// (struct members) do not match the column pattern and are ignored.
func parseTreeIndented(text string) *Model {
	model := NewModel()
	var current string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		if m := treeTablePattern.FindStringSubmatch(line); m != nil {
			current = m[1]
			model.AddTable(current)
			continue
		}

		if current == "" {
			continue
		}
		if m := treeColumnPattern.FindStringSubmatch(line); m != nil {
			colType := MapType(m[2])
			if colType == TypeArray {
				continue
			}
			model.AddColumn(current, m[1], colType)
		}
	}

	return pruneEmpty(model)
}

// parseLooseStruct is the permissive variant for dumps whose tree-drawing
// characters were mangled in transit. Any "name: struct" line opens a table;
// any following "name: type" line is a column of the current table.
func parseLooseStruct(text string) *Model {
	model := NewModel()
	var current string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		if m := looseTablePattern.FindStringSubmatch(line); m != nil {
			current = m[1]
			model.AddTable(current)
			continue
		}

		if current == "" {
			continue
		}
		if m := looseColumnPattern.FindStringSubmatch(line); m != nil {
			name := m[1]
			if _, reserved := sqlReservedWords[strings.ToLower(name)]; reserved {
				continue
			}
			colType := MapType(m[2])
			if colType == TypeArray {
				continue
			}
			model.AddColumn(current, name, colType)
		}
	}

	return pruneEmpty(model)
}

// parseSingleTable handles a printSchema dump with a root marker but no named
// struct nodes: every column line is attributed to one synthetic table.
func parseSingleTable(text string) *Model {
	if !rootMarkerPattern.MatchString(text) {
		return NewModel()
	}

	model := NewModel()
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if m := looseColumnPattern.FindStringSubmatch(line); m != nil {
			name := m[1]
			if _, reserved := sqlReservedWords[strings.ToLower(name)]; reserved {
				continue
			}
			if strings.EqualFold(m[2], "struct") {
				continue
			}
			colType := MapType(m[2])
			if colType == TypeArray {
				continue
			}
			model.AddColumn(syntheticTable, name, colType)
		}
	}

	return pruneEmpty(model)
}

// parseTableBlocks handles DDL-like text: TABLE name (col TYPE, col TYPE).
// The column list is scanned with paren-depth tracking so parameterized types
// like DECIMAL(10,2) survive.
func parseTableBlocks(text string) *Model {
	model := NewModel()

	for _, loc := range tableBlockPattern.FindAllStringSubmatchIndex(text, -1) {
		tableName := text[loc[2]:loc[3]]
		body, ok := balancedParenBody(text[loc[1]-1:])
		if !ok {
			continue
		}

		for _, item := range splitTopLevel(body, ',') {
			fields := strings.Fields(strings.TrimSpace(item))
			if len(fields) < 2 {
				continue
			}
			name := fields[0]
			if _, reserved := sqlReservedWords[strings.ToLower(name)]; reserved {
				continue
			}
			model.AddColumn(tableName, name, MapType(strings.Join(fields[1:], "")))
		}
	}

	return pruneEmpty(model)
}

// parseGenericPairs scans the whole text for identifier:type / identifier=type
// pairs, keeping only pairs whose identifier is not a SQL reserved word and
// whose type token is in the known vocabulary. All matches land in one
// synthetic table.
func parseGenericPairs(text string) *Model {
	model := NewModel()

	for _, m := range genericPairPattern.FindAllStringSubmatch(text, -1) {
		name, typeWord := m[1], m[2]
		if _, reserved := sqlReservedWords[strings.ToLower(name)]; reserved {
			continue
		}
		base := strings.ToLower(typeWord)
		if idx := strings.IndexAny(base, "<("); idx > 0 {
			base = base[:idx]
		}
		if _, known := knownTypeWords[base]; !known {
			continue
		}
		model.AddColumn(syntheticTable, name, MapType(typeWord))
	}

	return pruneEmpty(model)
}

// MapType normalizes a source type token to the canonical vocabulary.
// Matching is case-insensitive; unrecognized tokens pass through uppercased.
func MapType(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))

	switch {
	case strings.HasPrefix(lower, "array<"), lower == "array":
		return TypeArray
	case strings.HasPrefix(lower, "map<"), lower == "map":
		return TypeMap
	case strings.HasPrefix(lower, "struct"):
		return TypeStruct
	case strings.HasPrefix(lower, "decimal("), strings.HasPrefix(lower, "numeric("):
		// Keep precision/scale, e.g. DECIMAL(10,2).
		return "DECIMAL" + strings.ToUpper(lower[strings.Index(lower, "("):])
	}

	switch lower {
	case "integer", "int":
		return TypeInt
	case "long", "bigint":
		return TypeBigInt
	case "string", "varchar", "text", "char":
		return TypeString
	case "double":
		return TypeDouble
	case "float", "real":
		return TypeFloat
	case "boolean", "bool":
		return TypeBoolean
	case "date":
		return TypeDate
	case "timestamp", "datetime":
		return TypeTimestamp
	case "binary":
		return TypeBinary
	case "tinyint":
		return TypeTinyInt
	case "smallint":
		return TypeSmallInt
	case "decimal", "numeric":
		return TypeDecimal
	default:
		return strings.ToUpper(raw)
	}
}

// balancedParenBody returns the content between the leading '(' of s and its
// matching close paren.
func balancedParenBody(s string) (string, bool) {
	if len(s) == 0 || s[0] != '(' {
		return "", false
	}
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[1:i], true
			}
		}
	}
	return "", false
}

// splitTopLevel splits s on sep, ignoring separators inside parentheses.
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// pruneEmpty drops tables that ended up with zero columns, unless the whole
// model would vanish: a struct node with no parsable members is still a table.
func pruneEmpty(m *Model) *Model {
	withCols := 0
	for _, t := range m.Tables() {
		if len(t.Columns) > 0 {
			withCols++
		}
	}
	if withCols == 0 || withCols == m.Len() {
		return m
	}

	out := NewModel()
	for _, t := range m.Tables() {
		if len(t.Columns) == 0 {
			continue
		}
		tbl := out.AddTable(t.Name)
		tbl.Columns = append(tbl.Columns, t.Columns...)
	}
	return out
}
