package source

import (
	"context"

	"github.com/spf13/afero"

	"github.com/infrahq/trustlist/certcache"
)

type FileConfig struct {
	Path  string `config:"path" validate:"required"`
	Field string `config:"field"`
}

// File reads the certificate list of an issuer from a local JSON file, for
// issuers that distribute their list out of band.
type File struct {
	fs     afero.Fs
	config FileConfig
}

var _ certcache.Source = (*File)(nil)

func NewFile(fs afero.Fs, config FileConfig) *File {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &File{fs: fs, config: config}
}

func (f *File) Fetch(context.Context) (certcache.RawCertificateSet, error) {
	body, err := afero.ReadFile(f.fs, f.config.Path)
	if err != nil {
		return nil, err
	}
	return decodeSet(body, f.config.Field)
}
