// Package catalog loads delimited image catalogs into column-oriented label
// tables and builds the identity index used to pick same-identity partner
// rows.
//
// A catalog is a comma-delimited text file with one record per line. Each
// record carries an identity key and one or more file paths relative to a
// data root, for example:
//
//	1,frames/01/00001.jpg
//	1,frames/01/00002.jpg
//	2,frames/02/00001.jpg
//
// Columns are described by an explicit Schema, or inferred from a header
// row. The catalog is loaded once and immutable afterwards; row order
// defines canonical indices 0..N-1.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrFormat reports a malformed or incomplete catalog: missing file, rows
// with fewer fields than the schema expects, or a schema that cannot be
// resolved against the file.
var ErrFormat = errors.New("catalog format")

// Role describes how a column is interpreted after loading.
type Role int

const (
	// RolePassthrough stores the column values verbatim.
	RolePassthrough Role = iota
	// RoleIdentity marks the column holding the identity/character key
	// that groups rows into partner pools. A catalog has exactly one.
	RoleIdentity
	// RolePath marks a column holding a file path relative to the data
	// root. A resolved absolute sibling column is added under the name
	// with the "relative_" prefix stripped.
	RolePath
)

// Column pairs a column name with its role.
type Column struct {
	Name string
	Role Role
}

// Schema is the ordered list of expected catalog columns. If the file has
// more columns than the schema, the extras are ignored; fewer is a format
// error.
type Schema []Column

// relativePrefix marks path columns by naming convention; resolved
// siblings drop it.
const relativePrefix = "relative_"

// identityName is the conventional identity column name used by role
// inference.
const identityName = "character_id"

// InferRoles builds a Schema from plain column names using the naming
// convention of the catalog files: a name containing "character_id" is the
// identity key, a name starting with "relative_" is a root-relative path,
// anything else passes through.
func InferRoles(names []string) Schema {
	s := make(Schema, len(names))
	for i, name := range names {
		col := Column{Name: name, Role: RolePassthrough}
		switch {
		case strings.Contains(name, identityName):
			col.Role = RoleIdentity
		case strings.HasPrefix(name, relativePrefix):
			col.Role = RolePath
		}
		s[i] = col
	}
	return s
}

// PairSchema is the default layout for plain pair catalogs:
// character_id,relative_file_path_.
func PairSchema() Schema {
	return InferRoles([]string{"character_id", "relative_file_path_"})
}

// MaskSchema adds a mask path column to PairSchema.
func MaskSchema() Schema {
	return InferRoles([]string{"character_id", "relative_file_path_", "relative_mask_path_"})
}

// SegmentSchema adds mask and segment path columns to PairSchema.
func SegmentSchema() Schema {
	return InferRoles([]string{
		"character_id", "relative_file_path_", "relative_mask_path_", "relative_segment_path_",
	})
}

// Catalog is an immutable column-oriented label table. Path columns are
// resolved against the data root at load time and stored alongside the raw
// relative values.
type Catalog struct {
	root     string
	schema   Schema
	columns  map[string][]string
	identity []string
	n        int

	choices [][]int
}

// Load reads the comma-delimited catalog at csvPath, resolving path
// columns against root.
//
// If schema is nil, the file must have a header row (hasHeader true) and
// column names plus roles are inferred from it via InferRoles. If schema
// is non-nil and hasHeader is true, the header line is skipped. Rows with
// fewer fields than the schema expects fail with ErrFormat; extra fields
// are ignored.
func Load(root, csvPath string, schema Schema, hasHeader bool) (*Catalog, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrFormat, csvPath, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	// Row width is validated against the schema below; catalogs may carry
	// extra trailing columns that are ignored.
	reader.FieldsPerRecord = -1

	if schema == nil {
		if !hasHeader {
			return nil, fmt.Errorf("%w: no schema given and %s has no header row to infer from", ErrFormat, csvPath)
		}
		header, err := reader.Read()
		if err != nil {
			return nil, fmt.Errorf("%w: read header of %s: %v", ErrFormat, csvPath, err)
		}
		for i := range header {
			header[i] = strings.TrimSpace(header[i])
		}
		schema = InferRoles(header)
	} else if hasHeader {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("%w: skip header of %s: %v", ErrFormat, csvPath, err)
		}
	}

	if err := validateSchema(schema); err != nil {
		return nil, err
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrFormat, csvPath, err)
	}

	cat := &Catalog{
		root:    root,
		schema:  schema,
		columns: make(map[string][]string),
		n:       len(records),
	}
	for _, col := range schema {
		cat.columns[col.Name] = make([]string, len(records))
		if col.Role == RolePath {
			cat.columns[resolvedName(col.Name)] = make([]string, len(records))
		}
	}

	for rowIdx, record := range records {
		if len(record) < len(schema) {
			return nil, fmt.Errorf("%w: %s row %d has %d fields, schema expects %d",
				ErrFormat, csvPath, rowIdx, len(record), len(schema))
		}
		for colIdx, col := range schema {
			value := record[colIdx]
			cat.columns[col.Name][rowIdx] = value
			if col.Role == RolePath {
				cat.columns[resolvedName(col.Name)][rowIdx] = filepath.Join(root, value)
			}
		}
	}

	for _, col := range schema {
		if col.Role == RoleIdentity {
			cat.identity = cat.columns[col.Name]
		}
	}
	cat.buildChoices()
	return cat, nil
}

// validateSchema checks for exactly one identity column.
func validateSchema(schema Schema) error {
	identities := 0
	for _, col := range schema {
		if col.Role == RoleIdentity {
			identities++
		}
	}
	if identities != 1 {
		return fmt.Errorf("%w: schema needs exactly one identity column, found %d", ErrFormat, identities)
	}
	return nil
}

// resolvedName strips the relative marker so resolved absolute paths live
// under e.g. "file_path_" next to "relative_file_path_".
func resolvedName(name string) string {
	return strings.Replace(name, relativePrefix, "", 1)
}

// Len returns the number of catalog rows.
func (c *Catalog) Len() int { return c.n }

// Schema returns the schema the catalog was loaded with (after inference).
func (c *Catalog) Schema() Schema { return c.schema }

// Identity returns the identity key of row i.
func (c *Catalog) Identity(i int) string { return c.identity[i] }

// Get returns the value of the named column at row i. Resolved path
// columns are available under the name with "relative_" stripped. The
// second return is false if the column does not exist.
func (c *Catalog) Get(name string, i int) (string, bool) {
	col, ok := c.columns[name]
	if !ok {
		return "", false
	}
	return col[i], true
}

// Path returns the resolved absolute path stored under name for row i,
// failing if the column is absent. Use the stripped column name, e.g.
// "file_path_" for a schema column "relative_file_path_".
func (c *Catalog) Path(name string, i int) (string, error) {
	v, ok := c.Get(name, i)
	if !ok {
		return "", fmt.Errorf("%w: no resolved path column %q", ErrFormat, name)
	}
	return v, nil
}
