package postgres

import (
	"fmt"

	domerr "github.com/datapress/datapress/pkg/domain/errors"
)

// requested record is missing.
type Missing struct {
	Table    string
	Identity string
}

var _ error = Missing{}

func (m Missing) Error() string {
	return fmt.Sprintf("%s is not found in %s", m.Identity, m.Table)
}
func (m Missing) Unwrap() error {
	return domerr.ErrMissing
}

// write collides with an existing record.
type Duplication struct {
	Table    string
	Identity string
}

var _ error = Duplication{}

func (d Duplication) Error() string {
	return fmt.Sprintf("%s already exists in %s", d.Identity, d.Table)
}
func (d Duplication) Unwrap() error {
	return domerr.ErrConflict
}
