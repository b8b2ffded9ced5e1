package language

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"strings"
)

//go:embed stopwords/*.txt
var stopwordFiles embed.FS

// StopwordSet is a read-only set of lowercase stopwords.
type StopwordSet map[string]struct{}

// Contains reports whether word (already case-folded) is a stopword.
func (s StopwordSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

func loadStopwords(name string) (StopwordSet, error) {
	data, err := stopwordFiles.ReadFile("stopwords/" + name + ".txt")
	if err != nil {
		return nil, fmt.Errorf("reading stopwords for %s: %w", name, err)
	}
	set := make(StopwordSet)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		set[word] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning stopwords for %s: %w", name, err)
	}
	return set, nil
}

func noStopwords(string) bool { return false }
