package xpsdoc

import (
	"archive/zip"
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/benoitkugler/okxps/xpspage"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, parts map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, c)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testContainer(t *testing.T) []byte {
	return buildZip(t, map[string][]byte{
		"_rels/.rels": []byte(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
			<Relationship Id="rId1" Type="http://schemas.microsoft.com/xps/2005/06/fixedrepresentation" Target="/FixedDocSeq.fdseq"/>
			<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/thumbnail" Target="/Metadata/thumbnail.png"/>
			<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="/docProps/core.xml"/>
		</Relationships>`),
		"FixedDocSeq.fdseq": []byte(`<FixedDocumentSequence xmlns="http://schemas.microsoft.com/xps/2005/06">
			<DocumentReference Source="/Documents/1/FixedDocument.fdoc"/>
		</FixedDocumentSequence>`),
		"Documents/1/FixedDocument.fdoc": []byte(`<FixedDocument xmlns="http://schemas.microsoft.com/xps/2005/06">
			<PageContent Source="Pages/1.fpage"/>
			<PageContent Source="Pages/2.fpage"/>
		</FixedDocument>`),
		"Documents/1/Pages/1.fpage": []byte(`<FixedPage Width="100" Height="200">
			<Path Fill="#FF0000" Data="M 10,10 L 90,10 L 90,190 Z"/>
		</FixedPage>`),
		"Documents/1/Pages/2.fpage": []byte(`<FixedPage Width="50" Height="60"/>`),
		"Documents/1/Pages/_rels/1.fpage.rels": []byte(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
			<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/thumbnail" Target="/Metadata/page1.png"/>
		</Relationships>`),
		"Metadata/thumbnail.png": pngBytes(t, color.NRGBA{R: 0xff, A: 0xff}),
		"Metadata/page1.png":     pngBytes(t, color.NRGBA{B: 0xff, A: 0xff}),
		"docProps/core.xml": []byte(`<coreProperties xmlns="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
			xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">
			<dc:title>Sample</dc:title>
			<dc:creator>Jo</dc:creator>
			<dc:subject>Testing</dc:subject>
			<dcterms:created>2008-01-02T03:04:05Z</dcterms:created>
		</coreProperties>`),
	})
}

func TestOpenStructure(t *testing.T) {
	file, err := OpenBytes(testContainer(t))
	require.NoError(t, err)

	require.Equal(t, 1, file.NumDocuments())
	require.Equal(t, 2, file.NumPages())
	require.Equal(t, 2, file.Document(0).NumPages())
	require.Same(t, file.Page(0), file.Document(0).Page(0))

	w, h := file.Page(0).Size()
	require.Equal(t, 100., w)
	require.Equal(t, 200., h)
	w, h = file.Page(1).Size()
	require.Equal(t, 50., w)
	require.Equal(t, 60., h)
}

func TestRenderFromContainer(t *testing.T) {
	file, err := OpenBytes(testContainer(t))
	require.NoError(t, err)

	img, err := file.Page(0).Render()
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 100, 200), img.Bounds())
	_, _, _, a := img.At(50, 20).RGBA()
	require.NotZero(t, a)
}

func TestInfo(t *testing.T) {
	file, err := OpenBytes(testContainer(t))
	require.NoError(t, err)

	info, err := file.Info()
	require.NoError(t, err)
	require.Equal(t, "Sample", info.Title)
	require.Equal(t, "Jo", info.Creator)
	require.Equal(t, "Testing", info.Subject)
	require.Equal(t, "2008-01-02T03:04:05Z", info.Created)
	require.Empty(t, info.Keywords)
}

func TestFileThumbnail(t *testing.T) {
	file, err := OpenBytes(testContainer(t))
	require.NoError(t, err)

	thumb, ok := file.Thumbnail()
	require.True(t, ok)
	require.Equal(t, image.Rect(0, 0, 2, 2), thumb.Bounds())

	again, ok := file.Thumbnail()
	require.True(t, ok)
	require.Equal(t, thumb, again)
}

func TestPageThumbnail(t *testing.T) {
	file, err := OpenBytes(testContainer(t))
	require.NoError(t, err)

	thumb, ok := file.Page(0).Thumbnail()
	require.True(t, ok)
	require.NotNil(t, thumb)

	// the second page has no rels part
	_, ok = file.Page(1).Thumbnail()
	require.False(t, ok)
}

func TestMissingFixedRepresentation(t *testing.T) {
	data := buildZip(t, map[string][]byte{
		"_rels/.rels": []byte(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`),
	})
	_, err := OpenBytes(data)
	require.Error(t, err)
}

func TestInvalidContainer(t *testing.T) {
	_, err := OpenBytes([]byte("not a zip file"))
	require.Error(t, err)
}

func TestZipArchiveParts(t *testing.T) {
	data := testContainer(t)
	archive, err := newZipArchive(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	require.Len(t, archive.Parts(), 9)

	content, err := archive.ReadPart("/Documents/1/Pages/2.fpage")
	require.NoError(t, err)
	require.Contains(t, string(content), "FixedPage")

	_, err = archive.ReadPart("nonexistent.part")
	require.True(t, errors.Is(err, xpspage.ErrPartNotFound))
}
