package registry

import (
	"sort"

	"nixdex/internal/store"
)

// Installable reports whether the package has a non-empty "out" output.
// A null "out" decodes to the empty string.
func (p RawPackage) Installable() bool {
	return p.Outputs["out"] != ""
}

// Normalize converts one registry entry into a package record. It returns
// false when the entry has no "out" output and must not be indexed.
func Normalize(attr string, raw RawPackage) (store.Package, bool) {
	if !raw.Installable() {
		return store.Package{}, false
	}
	out := raw.Outputs["out"]

	name := attr
	if raw.Pname != nil && *raw.Pname != "" {
		name = *raw.Pname
	}

	pkg := store.Package{
		Attribute: attr,
		Name:      &name,
		Version:   raw.Version,
		StorePath: &out,
	}
	if m := raw.Meta; m != nil {
		pkg.Description = m.Description
		pkg.LongDescription = m.LongDescription
		if m.Homepage != nil {
			if url, ok := m.Homepage.First(); ok {
				pkg.Homepage = &url
			}
		}
	}
	return pkg, true
}

// NormalizeAll normalizes every entry, ordered by attribute. skipped counts
// the entries without an "out" output.
func NormalizeAll(reg Registry) (pkgs []store.Package, skipped int) {
	attrs := make([]string, 0, len(reg))
	for attr := range reg {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	pkgs = make([]store.Package, 0, len(attrs))
	for _, attr := range attrs {
		pkg, ok := Normalize(attr, reg[attr])
		if !ok {
			skipped++
			continue
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, skipped
}

// Flags tallies meta flags across the registry.
type Flags struct {
	Broken   int
	Insecure int
	Unfree   int
}

// CountFlags counts broken, insecure and unfree entries.
func CountFlags(reg Registry) Flags {
	var f Flags
	for _, raw := range reg {
		if raw.Meta == nil {
			continue
		}
		if raw.Meta.Broken {
			f.Broken++
		}
		if raw.Meta.Insecure {
			f.Insecure++
		}
		if raw.Meta.Unfree {
			f.Unfree++
		}
	}
	return f
}
