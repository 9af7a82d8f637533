package xpspage

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"io"
	"path"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

// DefaultWidth and DefaultHeight are used when a page does not
// declare its size (US Letter at 96 dpi).
const (
	DefaultWidth  = 816.
	DefaultHeight = 1056.
)

var errNoPageSize = errors.New("missing or invalid page size attributes")

// ScanPageSize reads the size declared on the root element of a
// page part. Only the first element is consumed; the rest of the
// stream is left unread.
func ScanPageSize(r io.Reader) (width, height float64, err error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel
	for {
		t, err := decoder.Token()
		if err != nil {
			return 0, 0, fmt.Errorf("invalid page markup: %s", err)
		}
		se, ok := t.(xml.StartElement)
		if !ok {
			continue
		}
		var w, h float64
		for _, attr := range se.Attr {
			// PageWidth and PageHeight are legacy spellings
			switch attr.Name.Local {
			case "Width", "PageWidth":
				w, _ = strconv.ParseFloat(attr.Value, 64)
			case "Height", "PageHeight":
				h, _ = strconv.ParseFloat(attr.Value, 64)
			}
		}
		if w <= 0 || h <= 0 {
			return 0, 0, errNoPageSize
		}
		return w, h, nil
	}
}

// PageOptions configures how a page is rendered.
type PageOptions struct {
	// NewDriver allocates the canvas backing one render.
	NewDriver func(width, height int) Driver

	ErrorMode ErrorMode

	// ThumbnailPath is the part holding the page thumbnail,
	// empty when the document declares none.
	ThumbnailPath string
}

// Page is one page of a document. It owns its font cache and its
// two independent lazy caches (the final raster and the
// thumbnail); it is not safe for two renders of the same Page to
// run concurrently, but distinct Pages share no state.
type Page struct {
	archive Archive
	path    string
	opts    PageOptions

	width, height float64

	fonts map[string]FontHandle

	rendered  bool
	raster    *image.RGBA
	renderErr error

	thumb       image.Image
	thumbLoaded bool
}

// NewPage prepares the page stored at `partPath`. Its size is
// scanned immediately; a page not declaring it falls back to
// DefaultWidth x DefaultHeight.
func NewPage(archive Archive, partPath string, opts PageOptions) *Page {
	p := &Page{
		archive: archive,
		path:    strings.TrimPrefix(partPath, "/"),
		opts:    opts,
		width:   DefaultWidth,
		height:  DefaultHeight,
		fonts:   map[string]FontHandle{},
	}
	if data, err := archive.ReadPart(p.path); err == nil {
		if w, h, errScan := ScanPageSize(bytes.NewReader(data)); errScan == nil {
			p.width, p.height = w, h
		}
	}
	return p
}

// Size returns the page dimensions, in page units (1/96 inch).
func (p *Page) Size() (width, height float64) { return p.width, p.height }

// Render paints the page and returns the raster. The first call
// performs the full parse and paint; later calls return the
// cached raster with no archive or font access. A page whose
// part is missing or whose markup cannot be parsed at all yields
// a blank raster and an error; any further corruption only
// degrades the affected elements.
func (p *Page) Render() (*image.RGBA, error) {
	if p.rendered {
		return p.raster, p.renderErr
	}
	p.rendered = true

	driver := p.opts.NewDriver(int(p.width+0.5), int(p.height+0.5))
	p.raster = driver.Image()

	data, err := p.archive.ReadPart(p.path)
	if err != nil {
		p.renderErr = fmt.Errorf("page part %s: %w", p.path, err)
		return p.raster, p.renderErr
	}

	h := &pageHandler{page: p, driver: driver, errorMode: p.opts.ErrorMode}
	h.fonter, _ = driver.(Fonter)
	if err := h.run(bytes.NewReader(data)); err != nil {
		p.renderErr = err
	} else if !h.sawRoot {
		p.renderErr = fmt.Errorf("page part %s: no markup found", p.path)
	}
	return p.raster, p.renderErr
}

// Thumbnail returns the page thumbnail, loaded from the archive
// on the first call. The boolean is false when the page has none.
func (p *Page) Thumbnail() (image.Image, bool) {
	if !p.thumbLoaded {
		p.thumbLoaded = true
		if p.opts.ThumbnailPath != "" {
			if data, err := p.archive.ReadPart(p.opts.ThumbnailPath); err == nil {
				if img, _, errDec := image.Decode(bytes.NewReader(data)); errDec == nil {
					p.thumb = img
				}
			}
		}
	}
	return p.thumb, p.thumb != nil
}

// resolve interprets a part reference relative to the page part.
func (p *Page) resolve(ref string) string {
	if strings.HasPrefix(ref, "/") {
		return strings.TrimPrefix(ref, "/")
	}
	return path.Join(path.Dir(p.path), ref)
}
