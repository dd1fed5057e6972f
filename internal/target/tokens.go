// Package target turns raw command-line tokens into isolated target sets and
// resolves each set into the regular files eligible for deduplication.
package target

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Set is an ordered group of root paths supplied together. All files
// discovered under one set must live on the same device; sets are never
// merged with each other.
type Set struct {
	Index int // position in the invocation, zero-based
	Roots []string
}

// SplitSets partitions tokens into ordered target sets using sep as the
// delimiter token. An empty set (leading, trailing, or between consecutive
// separators) is a configuration error.
func SplitSets(tokens []string, sep string) ([]Set, error) {
	var sets []Set
	var cur []string

	flush := func(trailing bool) error {
		if len(cur) == 0 {
			if trailing && len(sets) == 0 {
				return errors.New("no targets given")
			}
			return fmt.Errorf("empty target set at separator %q (set %d)", sep, len(sets)+1)
		}
		sets = append(sets, Set{Index: len(sets), Roots: cur})
		cur = nil
		return nil
	}

	for _, tok := range tokens {
		if tok == sep {
			if err := flush(false); err != nil {
				return nil, err
			}
			continue
		}
		cur = append(cur, tok)
	}
	if err := flush(true); err != nil {
		return nil, err
	}
	return sets, nil
}

// ReadTokens reads target tokens from r, one per line. Blank lines and
// lines starting with '#' are skipped. Separator tokens appear as ordinary
// lines and are handled by SplitSets.
func ReadTokens(r io.Reader) ([]string, error) {
	var tokens []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens = append(tokens, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	return tokens, nil
}

// ReadTokensFile reads target tokens from the file at path, or from stdin
// when path is "-".
func ReadTokensFile(path string) ([]string, error) {
	if path == "-" {
		return ReadTokens(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open target file: %w", err)
	}
	defer f.Close()
	return ReadTokens(f)
}
