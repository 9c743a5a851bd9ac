package diag

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// SourceCache caches source file lines for error reporting.
type SourceCache struct {
	files map[string][]string
}

// NewSourceCache creates an empty cache.
func NewSourceCache() *SourceCache {
	return &SourceCache{files: make(map[string][]string)}
}

// Add registers the contents of a file that may not exist on disk.
func (sc *SourceCache) Add(filename string, content []byte) {
	sc.files[filename] = strings.Split(string(content), "\n")
}

// Line returns the 1-based line of filename, loading the file on first use.
func (sc *SourceCache) Line(filename string, line int) (string, bool) {
	lines, ok := sc.files[filename]
	if !ok {
		f, err := os.Open(filename)
		if err != nil {
			return "", false
		}
		defer f.Close()
		s := bufio.NewScanner(f)
		for s.Scan() {
			lines = append(lines, s.Text())
		}
		sc.files[filename] = lines
	}
	if line < 1 || line > len(lines) {
		return "", false
	}
	return lines[line-1], true
}

// Emitter renders diagnostics with source excerpts.
type Emitter struct {
	cache *SourceCache
	w     io.Writer
}

// NewEmitter creates an emitter writing to w.
func NewEmitter(w io.Writer, cache *SourceCache) *Emitter {
	if cache == nil {
		cache = NewSourceCache()
	}
	return &Emitter{cache: cache, w: w}
}

// Emit prints err. Errors that are not diagnostics print as a plain
// "error:" line.
func (e *Emitter) Emit(err error) {
	var d *Error
	if !errors.As(err, &d) {
		fmt.Fprintf(e.w, "error: %v\n", err)
		return
	}

	fmt.Fprintf(e.w, "error: %s\n", d.Msg)

	width := 1
	for _, l := range d.Labels {
		if n := len(fmt.Sprint(l.Pos.Line())); n > width {
			width = n
		}
	}
	pad := strings.Repeat(" ", width)

	for _, l := range d.Labels {
		if !l.Pos.IsValid() {
			fmt.Fprintf(e.w, "%s = %s\n", pad, l.Msg)
			continue
		}
		fmt.Fprintf(e.w, "%s--> %s\n", pad, l.Pos)
		text, ok := e.cache.Line(l.Pos.Filename(), int(l.Pos.Line()))
		if !ok {
			fmt.Fprintf(e.w, "%s | %s\n", pad, l.Msg)
			continue
		}
		fmt.Fprintf(e.w, "%s |\n", pad)
		fmt.Fprintf(e.w, "%*d | %s\n", width, l.Pos.Line(), text)
		col := int(l.Pos.Col())
		if col < 1 {
			col = 1
		}
		fmt.Fprintf(e.w, "%s | %s^ %s\n", pad, strings.Repeat(" ", col-1), l.Msg)
	}

	if d.Note != "" {
		fmt.Fprintf(e.w, "%s = note: %s\n", pad, d.Note)
	}
	if d.Help != "" {
		fmt.Fprintf(e.w, "%s = help: %s\n", pad, d.Help)
	}
}
