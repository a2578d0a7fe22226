package decode

import (
	"bytes"
	"image"
	"image/jpeg"
)

// jpegSOI is the JPEG start-of-image marker followed by the first byte of
// the next marker, which is always 0xFF.
var jpegSOI = []byte{0xFF, 0xD8, 0xFF}

// maxPreviewCandidates bounds the marker scan so a pathological container
// cannot turn extraction into a full-file decode loop.
const maxPreviewCandidates = 64

// previewOffsets finds byte offsets of embedded JPEG streams in a RAW
// container by scanning for SOI markers.
func previewOffsets(data []byte) []int {
	var offsets []int
	pos := 0
	for len(offsets) < maxPreviewCandidates {
		i := bytes.Index(data[pos:], jpegSOI)
		if i < 0 {
			break
		}
		offsets = append(offsets, pos+i)
		pos += i + len(jpegSOI)
	}
	return offsets
}

// largestPreviewConfig returns the dimensions of the largest embedded JPEG
// rendition without decoding its pixels.
func largestPreviewConfig(data []byte) (image.Config, error) {
	offset, cfg, err := findLargestPreview(data)
	if offset < 0 {
		return image.Config{}, err
	}
	return cfg, nil
}

// extractLargestPreview decodes the largest embedded JPEG rendition. RAW
// containers typically hold a thumbnail plus one or two larger renditions;
// the largest by pixel area is the most useful first phase.
func extractLargestPreview(data []byte) (image.Image, error) {
	offset, _, err := findLargestPreview(data)
	if offset < 0 {
		return nil, err
	}
	img, err := jpeg.Decode(bytes.NewReader(data[offset:]))
	if err != nil {
		return nil, ErrNoPreview
	}
	return img, nil
}

func findLargestPreview(data []byte) (int, image.Config, error) {
	best := -1
	var bestCfg image.Config
	bestArea := 0

	for _, offset := range previewOffsets(data) {
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(data[offset:]))
		if err != nil {
			continue
		}
		if area := cfg.Width * cfg.Height; area > bestArea {
			best, bestCfg, bestArea = offset, cfg, area
		}
	}
	if best < 0 {
		return -1, image.Config{}, ErrNoPreview
	}
	return best, bestCfg, nil
}
