// Package xpsdoc reads XPS containers: it locates the fixed
// representation through the package relationships, walks the
// fixed document sequence and its documents, and hands out the
// pages as xpspage.Page values, rendered by xpsraster.
package xpsdoc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	"io"
	"io/ioutil"
	"path"
	"strings"

	"github.com/benoitkugler/okxps/xpspage"
	"github.com/benoitkugler/okxps/xpsraster"
	"golang.org/x/net/html/charset"
)

// DefaultPageOptions configures the pages created by Open. The
// zero ThumbnailPath is replaced per page from the package
// relationships.
var DefaultPageOptions = xpspage.PageOptions{
	NewDriver: xpsraster.NewDriver,
	ErrorMode: xpspage.WarnErrorMode,
}

// DocumentInfo is the metadata found in the core properties part.
// Missing fields are left empty.
type DocumentInfo struct {
	Title       string
	Subject     string
	Creator     string
	Keywords    string
	Description string
	Created     string
	Modified    string
}

// Document is one fixed document of a file, listing its pages in
// reading order.
type Document struct {
	path  string
	pages []*xpspage.Page
}

// NumPages returns the number of pages of this document.
func (d *Document) NumPages() int { return len(d.pages) }

// Page returns the page with 0 based index `i`.
func (d *Document) Page(i int) *xpspage.Page { return d.pages[i] }

// File is the content of one XPS container. Pages are flattened
// across the documents of the fixed document sequence.
type File struct {
	archive xpspage.Archive

	documents []*Document
	pages     []*xpspage.Page

	corePath string

	thumbPath   string
	thumb       image.Image
	thumbLoaded bool
}

// Open reads the container exposed by `r` and lists its
// documents and pages. Pages are rendered with
// DefaultPageOptions.
func Open(r io.ReaderAt, size int64) (*File, error) {
	return OpenOptions(r, size, DefaultPageOptions)
}

// OpenBytes is a convenience wrapper around Open.
func OpenBytes(data []byte) (*File, error) {
	return Open(bytes.NewReader(data), int64(len(data)))
}

// OpenFile opens the container stored in the file `filename`.
func OpenFile(filename string) (*File, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return OpenBytes(data)
}

// OpenOptions is the same as Open, with explicit page options.
func OpenOptions(r io.ReaderAt, size int64, opts xpspage.PageOptions) (*File, error) {
	archive, err := newZipArchive(r, size)
	if err != nil {
		return nil, err
	}
	file := &File{archive: archive}

	rels, err := file.relationships("_rels/.rels")
	if err != nil {
		return nil, fmt.Errorf("package relationships: %s", err)
	}
	var seqPath string
	for _, rel := range rels {
		switch {
		case isRelType(rel.Type, "fixedrepresentation"):
			seqPath = resolveRef("", rel.Target)
		case isRelType(rel.Type, "thumbnail"):
			file.thumbPath = resolveRef("", rel.Target)
		case isRelType(rel.Type, "core-properties"):
			file.corePath = resolveRef("", rel.Target)
		}
	}
	if seqPath == "" {
		return nil, fmt.Errorf("package declares no fixed representation")
	}

	seq, err := file.fixedDocumentSequence(seqPath)
	if err != nil {
		return nil, err
	}
	for _, docPath := range seq {
		doc, err := file.fixedDocument(docPath, opts)
		if err != nil {
			return nil, err
		}
		file.documents = append(file.documents, doc)
		file.pages = append(file.pages, doc.pages...)
	}
	return file, nil
}

// NumDocuments returns the number of documents in the fixed
// document sequence.
func (f *File) NumDocuments() int { return len(f.documents) }

// Document returns the document with 0 based index `i`.
func (f *File) Document(i int) *Document { return f.documents[i] }

// NumPages returns the number of pages, summed over the
// documents.
func (f *File) NumPages() int { return len(f.pages) }

// Page returns the page with 0 based index `i`, counted across
// the documents.
func (f *File) Page(i int) *xpspage.Page { return f.pages[i] }

// Info reads the document metadata. A file without a core
// properties part yields an empty DocumentInfo.
func (f *File) Info() (DocumentInfo, error) {
	var out DocumentInfo
	if f.corePath == "" {
		return out, nil
	}
	data, err := f.archive.ReadPart(f.corePath)
	if err != nil {
		return out, err
	}
	var props struct {
		Title       string `xml:"title"`
		Subject     string `xml:"subject"`
		Creator     string `xml:"creator"`
		Keywords    string `xml:"keywords"`
		Description string `xml:"description"`
		Created     string `xml:"created"`
		Modified    string `xml:"modified"`
	}
	if err := decodeXML(data, &props); err != nil {
		return out, fmt.Errorf("core properties: %s", err)
	}
	out = DocumentInfo{
		Title:       props.Title,
		Subject:     props.Subject,
		Creator:     props.Creator,
		Keywords:    props.Keywords,
		Description: props.Description,
		Created:     props.Created,
		Modified:    props.Modified,
	}
	return out, nil
}

// Thumbnail returns the file level thumbnail, loading and
// caching it on the first call. The boolean is false when the
// package declares none or the image cannot be decoded.
func (f *File) Thumbnail() (image.Image, bool) {
	if f.thumbLoaded {
		return f.thumb, f.thumb != nil
	}
	f.thumbLoaded = true
	if f.thumbPath == "" {
		return nil, false
	}
	data, err := f.archive.ReadPart(f.thumbPath)
	if err != nil {
		return nil, false
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	f.thumb = img
	return img, true
}

func (f *File) fixedDocumentSequence(part string) ([]string, error) {
	data, err := f.archive.ReadPart(part)
	if err != nil {
		return nil, err
	}
	var seq struct {
		References []struct {
			Source string `xml:"Source,attr"`
		} `xml:"DocumentReference"`
	}
	if err := decodeXML(data, &seq); err != nil {
		return nil, fmt.Errorf("document sequence %s: %s", part, err)
	}
	out := make([]string, len(seq.References))
	for i, ref := range seq.References {
		out[i] = resolveRef(part, ref.Source)
	}
	return out, nil
}

func (f *File) fixedDocument(part string, opts xpspage.PageOptions) (*Document, error) {
	data, err := f.archive.ReadPart(part)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Contents []struct {
			Source string `xml:"Source,attr"`
		} `xml:"PageContent"`
	}
	if err := decodeXML(data, &doc); err != nil {
		return nil, fmt.Errorf("document %s: %s", part, err)
	}
	out := &Document{path: part}
	for _, content := range doc.Contents {
		pagePath := resolveRef(part, content.Source)
		pageOpts := opts
		pageOpts.ThumbnailPath = f.pageThumbnail(pagePath)
		out.pages = append(out.pages, xpspage.NewPage(f.archive, pagePath, pageOpts))
	}
	return out, nil
}

// pageThumbnail looks for a thumbnail relationship in the rels
// part of one page; a page without one is the common case.
func (f *File) pageThumbnail(pagePath string) string {
	relsPart := path.Join(path.Dir(pagePath), "_rels", path.Base(pagePath)+".rels")
	rels, err := f.relationships(relsPart)
	if err != nil {
		return ""
	}
	for _, rel := range rels {
		if isRelType(rel.Type, "thumbnail") {
			return resolveRef(pagePath, rel.Target)
		}
	}
	return ""
}

type relationship struct {
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

func (f *File) relationships(part string) ([]relationship, error) {
	data, err := f.archive.ReadPart(part)
	if err != nil {
		return nil, err
	}
	var rels struct {
		Rels []relationship `xml:"Relationship"`
	}
	if err := decodeXML(data, &rels); err != nil {
		return nil, fmt.Errorf("relationships %s: %s", part, err)
	}
	return rels.Rels, nil
}

// isRelType matches a relationship type URI by its last segment,
// so that vendor and OPC variants of the same relation are both
// accepted.
func isRelType(uri, suffix string) bool {
	uri = strings.ToLower(strings.TrimSuffix(uri, "/"))
	return strings.HasSuffix(uri, suffix)
}

// resolveRef resolves the part reference `ref` against the part
// `base`. Absolute references (leading slash) ignore the base.
func resolveRef(base, ref string) string {
	if strings.HasPrefix(ref, "/") {
		return strings.TrimPrefix(ref, "/")
	}
	return path.Join(path.Dir(base), ref)
}

func decodeXML(data []byte, dst interface{}) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	return dec.Decode(dst)
}
