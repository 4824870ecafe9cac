package filter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadFile reads ignore rules from a file and adds them to the chain.
// Format:
//   - pattern  → ignore
//   + pattern  → re-include
//   !pattern   → re-include
//   # comment  → skip
//   blank line → skip
//   no prefix  → ignore
func (c *Chain) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open ignore file: %w", err)
	}
	defer f.Close()

	if err := c.load(f); err != nil {
		return fmt.Errorf("ignore file %s: %w", path, err)
	}
	return nil
}

// ReadRules parses rules in LoadFile's format and returns them in the
// "!"-prefixed form accepted by FromRules.
func ReadRules(r io.Reader) ([]string, error) {
	c := NewChain(false)
	if err := c.load(r); err != nil {
		return nil, err
	}
	return c.Rules(), nil
}

func (c *Chain) load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip blank lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		include := false
		pattern := line

		switch {
		case strings.HasPrefix(line, "+ "):
			include = true
			pattern = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "- "):
			pattern = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "!"):
			include = true
			pattern = strings.TrimSpace(line[1:])
		}

		var addErr error
		if include {
			addErr = c.AddInclude(pattern)
		} else {
			addErr = c.AddExclude(pattern)
		}
		if addErr != nil {
			return fmt.Errorf("line %d: %w", lineNum, addErr)
		}
	}

	return scanner.Err()
}
