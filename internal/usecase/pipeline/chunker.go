package pipeline

import (
	"strings"

	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/entities"
)

// Chunk is a span of transcript text ready for embedding. Timing fields are
// only populated when the transcript carried segments.
type Chunk struct {
	Index     int
	Content   string
	StartTime *float64
	EndTime   *float64
}

// Chunker splits transcript text into overlapping spans sized for the
// embedding model.
type Chunker struct {
	Size    int
	Overlap int
}

// NewChunker creates a chunker. Size is the target chunk length in
// characters; Overlap is carried between consecutive chunks for context.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 500
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Chunker{Size: size, Overlap: overlap}
}

// Split chunks the transcript. When segments are available the chunks follow
// segment boundaries so timing survives; otherwise it falls back to plain
// character windows broken at sentence ends.
func (c *Chunker) Split(text string, segments []entities.Segment) []Chunk {
	if len(segments) > 0 {
		return c.splitSegments(segments)
	}
	return c.splitPlain(text)
}

// sentence terminators checked when looking for a clean break point
var sentenceEnds = []string{". ", "? ", "! ", "\n"}

func (c *Chunker) splitPlain(text string) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []Chunk
	start := 0
	for start < len(text) {
		end := start + c.Size
		if end >= len(text) {
			end = len(text)
		} else {
			// Prefer to break at a sentence end, but only in the back half
			// of the window so chunks stay reasonably sized.
			best := -1
			for _, sep := range sentenceEnds {
				if idx := strings.LastIndex(text[start:end], sep); idx != -1 {
					cut := start + idx + len(sep)
					if cut > start+c.Size/2 && cut > best {
						best = cut
					}
				}
			}
			if best != -1 {
				end = best
			}
		}

		content := strings.TrimSpace(text[start:end])
		if content != "" {
			chunks = append(chunks, Chunk{Index: len(chunks), Content: content})
		}

		if end >= len(text) {
			break
		}
		next := end - c.Overlap
		if next <= start {
			// Overlap would stall the window; advance without it.
			next = end
		}
		start = next
	}
	return chunks
}

func (c *Chunker) splitSegments(segments []entities.Segment) []Chunk {
	var chunks []Chunk
	var current []entities.Segment
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		texts := make([]string, 0, len(current))
		for _, seg := range current {
			texts = append(texts, strings.TrimSpace(seg.Text))
		}
		content := strings.TrimSpace(strings.Join(texts, " "))
		if content == "" {
			return
		}
		start := current[0].Start
		end := current[len(current)-1].End
		chunks = append(chunks, Chunk{
			Index:     len(chunks),
			Content:   content,
			StartTime: &start,
			EndTime:   &end,
		})
	}

	for _, seg := range segments {
		segLen := len(seg.Text)
		if currentLen+segLen > c.Size && len(current) > 0 {
			flush()
			// Seed the next chunk with trailing segments up to the overlap
			// budget so context bridges the boundary.
			var carried []entities.Segment
			carriedLen := 0
			for i := len(current) - 1; i >= 0; i-- {
				l := len(current[i].Text)
				if carriedLen+l > c.Overlap {
					break
				}
				carried = append([]entities.Segment{current[i]}, carried...)
				carriedLen += l
			}
			current = carried
			currentLen = carriedLen
		}
		current = append(current, seg)
		currentLen += segLen
	}
	flush()
	return chunks
}
