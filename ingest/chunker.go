/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package ingest

import (
	"strings"
	"unicode/utf8"
)

// Chunker splits text into bounded, overlapping chunks. It accumulates
// whole paragraphs up to Size, and hard-splits oversized paragraphs with
// Overlap runes of context carried between consecutive windows. Hard
// splits prefer function-end, blank-line, then line boundaries.
type Chunker struct {
	// Size is the maximum chunk length in runes.
	Size int
	// Overlap is the number of runes carried over between consecutive
	// windows of a hard split.
	Overlap int
}

// DefaultChunker returns the standard chunking parameters.
func DefaultChunker() Chunker {
	return Chunker{Size: 1000, Overlap: 200}
}

// Split breaks text into chunks of at most c.Size runes.
func (c Chunker) Split(text string) []string {
	size := c.Size
	if size <= 0 {
		size = 1000
	}
	overlap := c.Overlap
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}

	if strings.TrimSpace(text) == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= size {
		return []string{strings.TrimSpace(text)}
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
		curLen = 0
	}

	for _, para := range splitParagraphs(text) {
		paraLen := utf8.RuneCountInString(para)

		if paraLen > size {
			flush()
			chunks = append(chunks, hardSplit(para, size, overlap)...)
			continue
		}

		// +2 accounts for the paragraph separator.
		if curLen > 0 && curLen+paraLen+2 > size {
			flush()
		}
		if curLen > 0 {
			cur.WriteString("\n\n")
			curLen += 2
		}
		cur.WriteString(para)
		curLen += paraLen
	}
	flush()
	return chunks
}

// splitParagraphs splits on blank lines, dropping empty segments.
func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.Trim(p, "\n"))
		}
	}
	return out
}

// hardSplit windows an oversized paragraph into size-rune pieces. When a
// natural boundary exists in the back half of a window, the window ends
// there and the next one starts fresh; otherwise the next window rewinds
// by overlap runes.
func hardSplit(para string, size, overlap int) []string {
	runes := []rune(para)

	var chunks []string
	start := 0
	for start < len(runes) {
		end := min(start+size, len(runes))
		boundaryUsed := false
		if end < len(runes) {
			if cut := lastBoundary(runes[start:end]); cut > (end-start)/2 {
				end = start + cut
				boundaryUsed = true
			}
		}
		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			chunks = append(chunks, piece)
		}
		if end >= len(runes) {
			break
		}
		if boundaryUsed {
			start = end
		} else {
			start = max(end-overlap, start+1)
		}
	}
	return chunks
}

// lastBoundary returns the rune offset just past the best split point in
// the window, or -1 if the window has no line breaks. A function-closing
// brace on its own line wins over a blank line, which wins over any line
// break.
func lastBoundary(window []rune) int {
	s := string(window)
	for _, sep := range []string{"\n}\n", "\n\n", "\n"} {
		if i := strings.LastIndex(s, sep); i >= 0 {
			return utf8.RuneCountInString(s[:i+len(sep)])
		}
	}
	return -1
}
