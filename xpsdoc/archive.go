package xpsdoc

import (
	"archive/zip"
	"fmt"
	"io"
	"io/ioutil"
	"strings"

	"github.com/benoitkugler/okxps/xpspage"
)

// zipArchive exposes the parts of an XPS container, which is an
// Open Packaging Conventions zip file.
type zipArchive struct {
	reader *zip.Reader
	parts  map[string]*zip.File // keys have no leading slash
}

func newZipArchive(r io.ReaderAt, size int64) (*zipArchive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("invalid container: %s", err)
	}
	out := &zipArchive{reader: zr, parts: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		out.parts[strings.TrimPrefix(f.Name, "/")] = f
	}
	return out, nil
}

// ReadPart returns the bytes of the named part. Part names are
// resolved without their leading slash.
func (a *zipArchive) ReadPart(name string) ([]byte, error) {
	f, ok := a.parts[strings.TrimPrefix(name, "/")]
	if !ok {
		return nil, fmt.Errorf("%w: %s", xpspage.ErrPartNotFound, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("reading part %s: %s", name, err)
	}
	defer rc.Close()
	data, err := ioutil.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading part %s: %s", name, err)
	}
	return data, nil
}

func (a *zipArchive) Parts() []string {
	out := make([]string, 0, len(a.parts))
	for name := range a.parts {
		out = append(out, name)
	}
	return out
}
