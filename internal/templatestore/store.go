// Package templatestore resolves template ids to template bodies. Bodies
// live as HTML files in a configured directory; ids are validated so a
// request cannot escape it.
package templatestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// ErrUnknownTemplate is returned for ids with no backing template file.
var ErrUnknownTemplate = errors.New("templatestore: unknown template id")

var idRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Resolve reads the template body for id from <dir>/<id>.html.
func (s *Store) Resolve(id string) (string, error) {
	if !idRe.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
	}
	body, err := os.ReadFile(filepath.Join(s.dir, id+".html"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
		}
		return "", err
	}
	return string(body), nil
}
