package source

import (
	"context"
	"os"
	"testing"

	"github.com/spf13/afero"
	"gotest.tools/v3/assert"
)

func TestFile_Fetch(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NilError(t, afero.WriteFile(fs, "/srv/de.json", []byte(`{"certificates":[{"kid":"A"},{"kid":"B"}]}`), 0o644))

	f := NewFile(fs, FileConfig{Path: "/srv/de.json", Field: "certificates"})
	set, err := f.Fetch(context.Background())
	assert.NilError(t, err)
	assert.DeepEqual(t, asStrings(t, set), []string{`{"kid":"A"}`, `{"kid":"B"}`})
}

func TestFile_FetchMissing(t *testing.T) {
	f := NewFile(afero.NewMemMapFs(), FileConfig{Path: "/srv/missing.json"})
	_, err := f.Fetch(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFile_FetchNull(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NilError(t, afero.WriteFile(fs, "/srv/de.json", []byte(`null`), 0o644))

	set, err := NewFile(fs, FileConfig{Path: "/srv/de.json"}).Fetch(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, len(set), 0)
	assert.Assert(t, set != nil)
}
