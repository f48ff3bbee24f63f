package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/lessondesk/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	prefsPath := flag.String("prefs", "", "override preferences path (optional)")
	pollSeconds := flag.Int("poll", 0, "roster refresh interval in seconds (optional, defaults to the config)")
	exportPath := flag.String("export-attendance", "", "write the attendance log to this xlsx file and exit")
	flag.Parse()

	opts := app.Options{ConfigPath: *configPath, PrefsPath: *prefsPath}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	if *exportPath != "" {
		if err := app.ExportAttendance(opts, *exportPath); err != nil {
			fmt.Fprintf(os.Stderr, "lessondesk: %v\n", err)
			return 1
		}
		return 0
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "lessondesk: %v\n", err)
		return 1
	}
	return 0
}
