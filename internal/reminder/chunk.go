package reminder

import (
	"unicode/utf8"

	"pr-reminder/pkg/models"
)

// Accumulator packs lines into chunks whose text stays within a character budget.
// Lines are never split: a line longer than the budget becomes a chunk of its own.
type Accumulator struct {
	budget int
	lines  []string
	length int
	chunks []models.MessageChunk
}

// NewAccumulator returns an accumulator for the given budget; budget <= 0 is unbounded.
func NewAccumulator(budget int) *Accumulator {
	return &Accumulator{budget: budget}
}

// projected is the chunk length after appending line, counting the joining newline.
func (a *Accumulator) projected(line string) int {
	n := utf8.RuneCountInString(line)
	if len(a.lines) == 0 {
		return n
	}
	return a.length + 1 + n
}

// WouldExceed reports whether appending line to the open chunk would push it past the budget.
// It is always false for an empty chunk.
func (a *Accumulator) WouldExceed(line string) bool {
	if a.budget <= 0 || len(a.lines) == 0 {
		return false
	}
	return a.projected(line) > a.budget
}

// Add appends line, closing the open chunk first if the line would not fit.
func (a *Accumulator) Add(line string) {
	if a.WouldExceed(line) {
		a.closeChunk()
	}
	a.length = a.projected(line)
	a.lines = append(a.lines, line)
}

// Flush closes the open chunk and returns all chunks in order. The accumulator is reset.
func (a *Accumulator) Flush() []models.MessageChunk {
	a.closeChunk()
	chunks := a.chunks
	a.chunks = nil
	return chunks
}

func (a *Accumulator) closeChunk() {
	if len(a.lines) == 0 {
		return
	}
	a.chunks = append(a.chunks, models.MessageChunk{Lines: a.lines})
	a.lines = nil
	a.length = 0
}
