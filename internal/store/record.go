package store

import "database/sql"

// record is the scan target for one packages row joined with its homepage.
// attribute is a plain string on purpose: a NULL key is a decode error.
type record struct {
	attribute       string
	storePath       sql.NullString
	name            sql.NullString
	version         sql.NullString
	description     sql.NullString
	longDescription sql.NullString
	homepage        sql.NullString
}

func (r *record) dest() []any {
	return []any{
		&r.attribute,
		&r.storePath,
		&r.name,
		&r.version,
		&r.description,
		&r.longDescription,
		&r.homepage,
	}
}

func (r *record) pkg() Package {
	return Package{
		Attribute:       r.attribute,
		StorePath:       nullable(r.storePath),
		Name:            nullable(r.name),
		Version:         nullable(r.version),
		Description:     nullable(r.description),
		LongDescription: nullable(r.longDescription),
		Homepage:        nullable(r.homepage),
	}
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
