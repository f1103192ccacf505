package gitrepos

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ParseIndex reads repository paths from an index file. The file is either a
// JSON array of strings or one path per line; blank lines and lines starting
// with # are ignored.
func ParseIndex(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var paths []string
		if err := json.Unmarshal(trimmed, &paths); err != nil {
			return nil, fmt.Errorf("parse index: %w", err)
		}
		return compact(paths), nil
	}

	var paths []string
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}
	return paths, nil
}

// ReadIndex loads and parses the index file at path
func ReadIndex(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseIndex(data)
}

// DisplayTitle shortens the home directory prefix to ~
func DisplayTitle(path, home string) string {
	if home == "" || home == "/" {
		return path
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+"/") {
		return "~" + strings.TrimPrefix(path, home)
	}
	return path
}

func compact(paths []string) []string {
	out := paths[:0]
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
