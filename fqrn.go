package reliq

import (
	"fmt"
	"regexp"
	"strings"
)

// quotedFQRNRe matches the fully-quoted form "db"."schema"."name", where
// the schema segment is free to contain literal dots because it is
// delimited by quotes rather than split on them.
var quotedFQRNRe = regexp.MustCompile(`^"([^"]*)"\s*\.\s*"([^"]*)"\s*\.\s*"([^"]*)"$`)

// FQRN is a parsed, normalized fully-qualified relation name: db, schema,
// and name segments. Schemas may themselves contain dots; db and name may
// not (GLOSSARY, spec §6).
type FQRN struct {
	DB     string
	Schema string
	Name   string
}

// ParseFQRN parses either the bare form db.schema.name or the quoted form
// "db"."schema"."name". In the bare form the schema segment may not
// contain a dot (ambiguous without quoting); use the quoted form for
// schemas with dots in their name.
func ParseFQRN(s string) (FQRN, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, `"`) {
		m := quotedFQRNRe.FindStringSubmatch(s)
		if m == nil {
			return FQRN{}, fmt.Errorf(`reliq: invalid FQRN %q: expected "db"."schema"."name"`, s)
		}
		return FQRN{DB: m[1], Schema: m[2], Name: m[3]}, nil
	}
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return FQRN{}, fmt.Errorf("reliq: invalid FQRN %q: expected db.schema.name (quote the schema segment if it contains a dot)", s)
	}
	for _, p := range parts {
		if p == "" {
			return FQRN{}, fmt.Errorf("reliq: invalid FQRN %q: empty segment", s)
		}
	}
	return FQRN{DB: parts[0], Schema: parts[1], Name: parts[2]}, nil
}

// Normalize returns the canonical quoted form "db"."schema"."name".
func (f FQRN) Normalize() string {
	return fmt.Sprintf(`"%s"."%s"."%s"`, f.DB, f.Schema, f.Name)
}

// String implements fmt.Stringer as Normalize.
func (f FQRN) String() string {
	return f.Normalize()
}

// QRN returns the FQRN without its db segment: "schema"."name".
func (f FQRN) QRN() string {
	return fmt.Sprintf(`"%s"."%s"`, f.Schema, f.Name)
}

// Equal reports whether two FQRNs name the same relation.
func (f FQRN) Equal(o FQRN) bool {
	return f.DB == o.DB && f.Schema == o.Schema && f.Name == o.Name
}
