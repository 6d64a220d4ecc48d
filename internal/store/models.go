package store

// Package is one indexed package record. Score and Present are computed at
// query time and are never written to the index.
type Package struct {
	Attribute       string  `json:"attribute"`
	Name            *string `json:"name"`
	Version         *string `json:"version"`
	Description     *string `json:"description"`
	LongDescription *string `json:"longDescription"`
	StorePath       *string `json:"storePath"`
	Homepage        *string `json:"homepage,omitempty"`

	Score   *int64 `json:"score,omitempty"`
	Present *bool  `json:"present,omitempty"`
}

// Installable reports whether the record has a primary output path.
func (p Package) Installable() bool {
	return p.StorePath != nil
}

// Meta keys written alongside every build.
const (
	MetaBuiltAt       = "built_at"
	MetaSource        = "source"
	MetaPackageCount  = "package_count"
	MetaSchemaVersion = "schema_version"
)

// Str returns a pointer to s, or nil when s is empty.
func Str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string, or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
