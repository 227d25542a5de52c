package tasks

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strconv"
	"strings"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/JaimeStill/weles/pkg/filewatch"
)

// RelayProgress copies progress written to path by a build subprocess into
// t until the returned stop function is called. stop also removes path.
func RelayProgress(ctx context.Context, path string, t *Task) (stop func(), err error) {
	logger := slogcontext.FromCtx(ctx)

	unwatch, err := filewatch.Watch(ctx, path, func() {
		current, status, ok := readProgress(path)
		if !ok {
			return
		}
		t.Relay(current, status)
	})
	if err != nil {
		return nil, err
	}

	return func() {
		unwatch()
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("remove progress file failed", "path", path, "error", err)
		}
	}, nil
}

// readProgress parses the first line of a progress file, "current,status".
// A partially written file is reported as not ok.
func readProgress(path string) (int, string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, "", false
	}
	return ParseProgress(data)
}

// ParseProgress parses a "current,status" progress line. Surrounding
// quotes on the status are dropped.
func ParseProgress(data []byte) (int, string, bool) {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	head, tail, found := strings.Cut(strings.TrimSpace(string(line)), ",")
	if !found {
		return 0, "", false
	}

	current, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, "", false
	}

	status := strings.Trim(strings.TrimSpace(tail), `"`)
	return current, status, true
}
