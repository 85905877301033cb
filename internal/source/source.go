// Package source reads source files into line-indexed maps for
// report annotation. Reads are cached per path for the lifetime of
// the reader; an unreadable path yields nil rather than an error so
// annotation degrades gracefully when sources have moved.
package source

import (
	"bufio"
	"os"
	"strings"
)

// Reader caches file contents keyed by path.
type Reader struct {
	cache map[string]map[int]string
}

// NewReader returns an empty reader.
func NewReader() *Reader {
	return &Reader{cache: make(map[string]map[int]string)}
}

// ReadFile returns the file's lines keyed by 1-based line number,
// trailing whitespace stripped. The first successful read is cached;
// later modifications to the file are not observed. Returns nil when
// the path cannot be read.
func (r *Reader) ReadFile(path string) map[int]string {
	if cached, ok := r.cache[path]; ok {
		return cached
	}

	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return nil
	}

	lines := make(map[int]string)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		lines[n] = strings.TrimRight(scanner.Text(), " \t")
	}
	if scanner.Err() != nil {
		return nil
	}

	r.cache[path] = lines
	return lines
}

// ReadMultiple reads several files, skipping unreadable paths.
func (r *Reader) ReadMultiple(paths []string) map[string]map[int]string {
	result := make(map[string]map[int]string)
	for _, p := range paths {
		if lines := r.ReadFile(p); lines != nil {
			result[p] = lines
		}
	}
	return result
}
