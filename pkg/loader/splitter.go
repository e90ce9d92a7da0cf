package loader

import (
	"strings"
	"unicode/utf8"
)

// separators in preference order: paragraph break, line break, space,
// hard character cut.
var separators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts text into chunks of at most chunkSize characters,
// preferring the largest boundary that fits and overlapping consecutive
// chunks by roughly overlap characters so context survives the cut.
type Splitter struct {
	chunkSize int
	overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split returns the chunk contents in document order. Text within the
// chunk size comes back as a single chunk. No randomness: identical input
// and configuration produce identical boundaries.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.split(text, separators)
}

func (s *Splitter) split(text string, seps []string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	// Pick the largest separator that actually occurs in the text.
	sep := seps[len(seps)-1]
	rest := seps
	for i, candidate := range seps {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = seps[i+1:]
			break
		}
	}

	if sep == "" {
		return s.hardCut(text)
	}

	var final []string
	var pending []string

	flush := func() {
		if len(pending) > 0 {
			final = append(final, s.merge(pending, sep)...)
			pending = nil
		}
	}

	for _, piece := range strings.Split(text, sep) {
		if len(piece) <= s.chunkSize {
			pending = append(pending, piece)
			continue
		}
		// A single piece larger than the chunk size recurses onto the
		// next smaller boundary.
		flush()
		final = append(final, s.split(piece, rest)...)
	}
	flush()

	return final
}

// merge greedily packs pieces into chunks up to chunkSize, keeping a tail
// of roughly overlap characters as the seed of the next chunk.
func (s *Splitter) merge(pieces []string, sep string) []string {
	var chunks []string
	var window []string
	total := 0

	emit := func() {
		if len(window) == 0 {
			return
		}
		chunk := strings.TrimSpace(strings.Join(window, sep))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces {
		pieceLen := len(piece)
		if total+pieceLen+len(sep)*len(window) > s.chunkSize && len(window) > 0 {
			emit()
			// Drop leading pieces until the retained tail fits the
			// overlap budget and the tail plus the new piece fits the
			// chunk size.
			for len(window) > 0 &&
				(total > s.overlap || total+pieceLen+len(sep)*len(window) > s.chunkSize) {
				total -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += pieceLen
	}
	emit()

	return chunks
}

// hardCut slices text at fixed offsets, stepping back by the overlap each
// time. Last resort when no boundary fits. Cut points snap to rune starts
// so no chunk carries a half rune.
func (s *Splitter) hardCut(text string) []string {
	var chunks []string
	step := s.chunkSize - s.overlap
	if step < 1 {
		step = s.chunkSize
	}
	for start := 0; start < len(text); start += step {
		for start < len(text) && !utf8.RuneStart(text[start]) {
			start++
		}
		if start >= len(text) {
			break
		}
		end := start + s.chunkSize
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		for end > start && !utf8.RuneStart(text[end]) {
			end--
		}
		if end == start {
			end = start + s.chunkSize
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}
