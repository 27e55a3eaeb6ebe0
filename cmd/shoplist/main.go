package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"shoplist-cli/internal/cli"
)

// itemVerbs can be typed without the `items` prefix.
var itemVerbs = map[string]bool{
	"add":    true,
	"list":   true,
	"toggle": true,
	"edit":   true,
	"delete": true,
}

// rewriteItemShortcutArgs turns `shoplist add Milk` into
// `shoplist items add Milk`. Cobra treats the first non-flag token as a
// subcommand, so argv is rewritten before parsing. Persistent flags may come
// first, so the first positional token is located rather than argv[1].
func rewriteItemShortcutArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without consuming a value.
	valueFlags := map[string]bool{
		"--remote":     true,
		"--data-dir":   true,
		"--collection": true,
		"--format":     true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}

		if !itemVerbs[a] {
			return argv
		}
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:i]...)
		out = append(out, "items")
		out = append(out, argv[i:]...)
		return out
	}
	return argv
}

func main() {
	os.Args = rewriteItemShortcutArgs(os.Args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCmd()
	cmd.SetArgs(os.Args[1:])
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
