package archive

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"path"

	"github.com/odyssey-erp/ledger-archive/web"
)

const (
	staticDir = web.ArchiveAssets
	logoFile  = "logo.png"
)

// copyAssets writes the bundled stylesheet, viewer script, help page and
// application logo into the archive root.
func copyAssets(out *Output) (int, error) {
	entries, err := fs.ReadDir(web.Static, staticDir)
	if err != nil {
		return 0, fmt.Errorf("archive: read bundled assets: %w", err)
	}
	copied := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := fs.ReadFile(web.Static, path.Join(staticDir, entry.Name()))
		if err != nil {
			return copied, fmt.Errorf("archive: read asset %s: %w", entry.Name(), err)
		}
		if err := out.WriteFile(entry.Name(), data); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}

// encodeLogo decodes a PNG or JPEG logo and re-encodes it as PNG.
func encodeLogo(raw []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("encode logo: %w", err)
	}
	return buf.Bytes(), nil
}
