package xpspage

import (
	"encoding/hex"
	"fmt"
	"path"
	"strings"
)

// Per page memoization of font loads: one archive read and one
// Register call per distinct font reference, entries never
// evicted for the lifetime of the page.

// loadFont returns the handle of the font part, registering it
// with the fonter on first use. A failed load is cached as the
// fallback handle, so the archive is probed at most once per name.
func (p *Page) loadFont(uri string, fonter Fonter) (FontHandle, error) {
	if h, ok := p.fonts[uri]; ok {
		return h, nil
	}
	part := p.resolve(uri)
	data, err := p.archive.ReadPart(part)
	if err != nil {
		p.fonts[uri] = FallbackFont
		return FallbackFont, fmt.Errorf("font %s: %w", uri, err)
	}
	if strings.HasSuffix(strings.ToLower(part), ".odttf") {
		data, err = deobfuscateFont(part, data)
		if err != nil {
			p.fonts[uri] = FallbackFont
			return FallbackFont, err
		}
	}
	h, err := fonter.Register(data)
	if err != nil {
		p.fonts[uri] = FallbackFont
		return FallbackFont, fmt.Errorf("font %s: %s", uri, err)
	}
	p.fonts[uri] = h
	return h, nil
}

// deobfuscateFont undoes the standard font obfuscation: the
// first 32 bytes of the file are XORed with the GUID encoded in
// the part file name.
func deobfuscateFont(partPath string, data []byte) ([]byte, error) {
	name := path.Base(partPath)
	name = strings.TrimSuffix(name, path.Ext(name))
	var digits []byte
	for i := 0; i < len(name); i++ {
		c := name[i]
		if '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F' {
			digits = append(digits, c)
		}
	}
	if len(digits) < 32 {
		return nil, fmt.Errorf("obfuscated font %s: no GUID in part name", partPath)
	}
	guid, err := hex.DecodeString(string(digits[:32]))
	if err != nil {
		return nil, fmt.Errorf("obfuscated font %s: %s", partPath, err)
	}
	if len(data) < 32 {
		return nil, fmt.Errorf("obfuscated font %s: truncated file", partPath)
	}
	out := append([]byte(nil), data...)
	for i := 0; i < 32; i++ {
		out[i] ^= guid[15-i%16]
	}
	return out, nil
}
