package table

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ============================================================================
// LINE-ORIENTED FILE SOURCES
// ============================================================================

// ParseJSONRow parses one JSON object line into a Row
func ParseJSONRow(line string) (Row, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		return nil, fmt.Errorf("parse JSON row: %w", err)
	}
	return Row(obj), nil
}

// FromFile reads path line by line through parse, one row per non-empty
// line. The file opens on the first pull and closes at EOF or on the first
// error. The returned stream is SINGLE-USE: running a graph twice against
// the same stream makes the second run see an exhausted source. Pass a
// factory that calls FromFile afresh (or Tee one stream) when an input is
// consumed more than once.
func FromFile(path string, parse func(string) (Row, error)) RowStream {
	var file *os.File
	var scanner *bufio.Scanner
	done := false
	return func() (Row, error) {
		if done {
			return nil, EOS
		}
		if file == nil {
			f, err := os.Open(path)
			if err != nil {
				done = true
				return nil, &SourceError{Name: path, Err: err}
			}
			file = f
			scanner = bufio.NewScanner(f)
			scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		}
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			row, err := parse(line)
			if err != nil {
				done = true
				file.Close()
				return nil, &SourceError{Name: path, Err: err}
			}
			return row, nil
		}
		err := scanner.Err()
		done = true
		file.Close()
		if err != nil {
			return nil, &SourceError{Name: path, Err: err}
		}
		return nil, EOS
	}
}

// FileSource wraps FromFile into a restartable factory reopening path on
// every call
func FileSource(path string, parse func(string) (Row, error)) SourceFactory {
	return func() RowStream {
		return FromFile(path, parse)
	}
}
