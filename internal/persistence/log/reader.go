package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"

	"hordesim.ai/internal/sim/world"
)

const maxLineBytes = 8 << 20

// ReadJSONL streams each line of a .jsonl.zst file to fn. It stops at the
// first error returned by fn.
func ReadJSONL(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		if err := fn(sc.Bytes()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// ReadTicks decodes every tick entry in a tick log file.
func ReadTicks(path string, fn func(world.TickLogEntry) error) error {
	line := 0
	return ReadJSONL(path, func(b []byte) error {
		line++
		var e world.TickLogEntry
		if err := json.Unmarshal(b, &e); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
		return fn(e)
	})
}

// Files lists the rotated files for prefix under dir in chronological order.
func Files(dir, prefix string) ([]string, error) {
	out, err := filepath.Glob(filepath.Join(dir, prefix+"-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	// Hour stamps sort lexically.
	sort.Strings(out)
	return out, nil
}
