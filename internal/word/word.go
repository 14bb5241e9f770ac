// Package word maintains the per-buffer index of "words" (maximal runs of
// letters, digits, and underscores) used to drive completion and
// occurrence lookups, kept current incrementally as a buffer edits rather
// than rescanned from scratch on every query.
package word

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/davidaciko/panecore/internal/textbuf"
	"github.com/davidaciko/panecore/internal/unit"
)

// Interner deduplicates identical strings behind a single shared backing
// array, the allocation-saving half of what the original's
// StringRegistry/InternedString pair did with manual reference counting.
// Go's garbage collector already reclaims a string's backing array once
// its last reference drops, so Intern only needs to hand back a shared
// copy when one exists; there is no release half to this API.
type Interner struct {
	pool map[string]string
}

// NewInterner returns an empty Interner.
func NewInterner() *Interner {
	return &Interner{pool: map[string]string{}}
}

// Intern returns a string equal to s, reusing a previously interned copy
// if one exists so repeated words across a buffer share one allocation.
func (in *Interner) Intern(s string) string {
	if existing, ok := in.pool[s]; ok {
		return existing
	}
	in.pool[s] = s
	return s
}

// Len returns the number of distinct strings currently interned.
func (in *Interner) Len() int { return len(in.pool) }

// getWords splits content into its maximal word runs, in order.
func getWords(content []byte) []string {
	var words []string
	start := -1
	for i := 0; i < len(content); {
		r, size := utf8.DecodeRune(content[i:])
		if size == 0 {
			break
		}
		if unit.IsWord(r) {
			if start < 0 {
				start = i
			}
		} else if start >= 0 {
			words = append(words, string(content[start:i]))
			start = -1
		}
		i += size
	}
	if start >= 0 {
		words = append(words, string(content[start:]))
	}
	return words
}

// WordDB indexes every word in a buffer, keeping an occurrence count per
// distinct word and the list of words found on each line, so an edit to
// one line only touches that line's contribution instead of a full
// rescan. It mirrors the original's WordDB/StringRegistry pairing, with
// the interning folded in as this package's Interner.
type WordDB struct {
	buf         textbuf.Buffer
	interner    *Interner
	timestamp   int64
	lineToWords [][]string
	counts      map[string]int
	pendingMods []textbuf.LineModification
}

// NewWordDB builds a WordDB by scanning every line of buf once.
func NewWordDB(buf textbuf.Buffer) *WordDB {
	db := &WordDB{
		buf:      buf,
		interner: NewInterner(),
		counts:   map[string]int{},
	}
	n := buf.LineCount()
	db.lineToWords = make([][]string, n)
	for line := unit.LineCount(0); line < n; line++ {
		words := db.internWords(getWords(buf.Line(line)))
		db.lineToWords[line] = words
		db.addWords(words)
	}
	db.timestamp = buf.Timestamp()
	return db
}

func (db *WordDB) internWords(words []string) []string {
	for i, w := range words {
		words[i] = db.interner.Intern(w)
	}
	return words
}

func (db *WordDB) addWords(words []string) {
	for _, w := range words {
		db.counts[w]++
	}
}

func (db *WordDB) removeWords(words []string) {
	for _, w := range words {
		db.counts[w]--
		if db.counts[w] == 0 {
			delete(db.counts, w)
		}
	}
}

// Notify records line modifications the index should replay the next
// time it's queried, instead of a full rescan. Callers that edit buf
// outside this package should call this after every edit to keep updates
// incremental, the same contract as highlight/region's Notify.
func (db *WordDB) Notify(mods []textbuf.LineModification) {
	db.pendingMods = append(db.pendingMods, mods...)
}

// update brings the index up to date with the buffer's current content,
// replaying any pending modifications line-by-line (mirroring
// WordDB::update_db's old_line/new_line walk) or falling back to a full
// rescan if the buffer changed with no modifications on record.
func (db *WordDB) update() {
	if db.timestamp == db.buf.Timestamp() {
		return
	}
	if len(db.pendingMods) == 0 {
		*db = *NewWordDB(db.buf)
		return
	}

	newLines := make([][]string, 0, db.buf.LineCount())
	oldLine := unit.LineCount(0)
	for _, mod := range db.pendingMods {
		for oldLine < mod.OldLine {
			newLines = append(newLines, db.lineToWords[oldLine])
			oldLine++
		}

		switch mod.Kind {
		case textbuf.Removed, textbuf.Modified:
			for i := unit.LineCount(0); i < mod.NumLine && oldLine < unit.LineCount(len(db.lineToWords)); i++ {
				db.removeWords(db.lineToWords[oldLine])
				oldLine++
			}
		}

		switch mod.Kind {
		case textbuf.Inserted, textbuf.Modified:
			for i := unit.LineCount(0); i < mod.NumLine; i++ {
				if mod.NewLine+i >= db.buf.LineCount() {
					break
				}
				words := db.internWords(getWords(db.buf.Line(mod.NewLine + i)))
				newLines = append(newLines, words)
				db.addWords(words)
			}
		}
	}
	for oldLine < unit.LineCount(len(db.lineToWords)) {
		newLines = append(newLines, db.lineToWords[oldLine])
		oldLine++
	}

	db.lineToWords = newLines
	db.timestamp = db.buf.Timestamp()
	db.pendingMods = nil
}

// FindPrefix returns every distinct word starting with prefix, sorted.
func (db *WordDB) FindPrefix(prefix string) []string {
	db.update()
	var res []string
	for w := range db.counts {
		if strings.HasPrefix(w, prefix) {
			res = append(res, w)
		}
	}
	sort.Strings(res)
	return res
}

// FindSubsequence returns every distinct word containing subsequence's
// characters in order (not necessarily contiguous), sorted.
func (db *WordDB) FindSubsequence(subsequence string) []string {
	db.update()
	var res []string
	for w := range db.counts {
		if subsequenceMatch(w, subsequence) {
			res = append(res, w)
		}
	}
	sort.Strings(res)
	return res
}

func subsequenceMatch(word, subsequence string) bool {
	wr := []rune(word)
	si := 0
	subr := []rune(subsequence)
	if len(subr) == 0 {
		return true
	}
	for _, r := range wr {
		if r == subr[si] {
			si++
			if si == len(subr) {
				return true
			}
		}
	}
	return false
}

// WordOccurrences returns how many times word appears in the buffer as of
// the index's last update; unlike FindPrefix/FindSubsequence it does not
// itself trigger a refresh, mirroring the original's get_word_occurences
// being a const method that reads m_words as-is.
func (db *WordDB) WordOccurrences(word string) int {
	return db.counts[word]
}
