package bridge

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"fmt"
)

// viewerBase renders exported markup read-only, with chrome that could
// tempt edits switched off.
const viewerBase = "https://viewer.diagrams.net/?lightbox=1&nav=1&layers=1&noSaveBtn=1#R"

// ViewerURL packs diagram markup into a self-contained preview link:
// raw deflate, then standard base64, in the fragment the viewer
// expects. No server round-trip is needed to share it.
func ViewerURL(markup string) (string, error) {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write([]byte(markup)); err != nil {
		return "", fmt.Errorf("compress markup: %w", err)
	}
	if err := fw.Close(); err != nil {
		return "", fmt.Errorf("compress markup: %w", err)
	}
	return viewerBase + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
