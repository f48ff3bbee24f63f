package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"

	"github.com/five82/lessondesk/internal/attendance"
	"github.com/five82/lessondesk/internal/config"
	"github.com/five82/lessondesk/internal/gateway"
	"github.com/five82/lessondesk/internal/netwatch"
	"github.com/five82/lessondesk/internal/prefs"
	"github.com/five82/lessondesk/internal/state"
	"github.com/five82/lessondesk/internal/storage"
	"github.com/five82/lessondesk/internal/ui"
)

// Options configure the dashboard.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/lessondesk/prefs.toml
	PollEvery  int    // roster refresh in seconds; zero uses the config
}

// Run boots the dashboard until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	logFile, err := tea.LogToFile(cfg.LogPath(), "")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := log.Default()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Printf("preferences unreadable, using defaults: %v", err)
	}

	fields, err := gateway.LoadFieldTable(cfg.FieldsFile)
	if err != nil {
		return fmt.Errorf("load field table: %w", err)
	}

	client, err := gateway.NewClient(cfg.APIURL)
	if err != nil {
		return fmt.Errorf("init gateway client: %w", err)
	}

	blobs := storage.NewFS(afero.NewOsFs(), cfg.DataDir)

	monitor := netwatch.New(client, cfg.ProbeInterval, logger)
	monitor.Start(ctx)

	refreshEvery := cfg.RefreshInterval
	if opts.PollEvery > 0 {
		refreshEvery = time.Duration(opts.PollEvery) * time.Second
	}

	cache, err := state.New(state.Options{
		Blobs:           blobs,
		Gateway:         client,
		Fields:          fields,
		Connectivity:    monitor,
		SyncInterval:    cfg.SyncInterval,
		RefreshInterval: refreshEvery,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	if err := cache.Initialize(ctx); err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	defer cache.Destroy()

	store := attendance.NewStore(blobs, attendance.WithLogger(logger))

	// Start background poller
	StartPoller(ctx, cache, refreshEvery, logger)

	uiOpts := ui.Options{
		Context:      ctx,
		Roster:       cache,
		Attendance:   store,
		ThemeName:    userPrefs.Theme,
		SortName:     userPrefs.Sort,
		PrefsPath:    opts.PrefsPath,
		LogPath:      cfg.LogPath(),
		EarlyMinutes: cfg.EarlyMinutes,
		WindowTick:   cfg.WindowInterval,
	}
	return ui.Run(uiOpts)
}

// ExportAttendance writes the attendance log as an xlsx workbook to path.
// Student names come from the offline snapshot; no network is used.
func ExportAttendance(opts Options, path string) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return exportAttendance(storage.NewFS(afero.NewOsFs(), cfg.DataDir), afero.NewOsFs(), path)
}

func exportAttendance(blobs storage.Blobs, out afero.Fs, path string) error {
	students, err := state.ReadStudents(blobs)
	if err != nil {
		return fmt.Errorf("read roster: %w", err)
	}
	names := make(map[int64]string, len(students))
	for _, s := range students {
		names[s.ID] = s.FullName()
	}

	records := attendance.NewStore(blobs).All()

	f, err := out.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := attendance.ExportXLSX(f, records, names); err != nil {
		_ = f.Close()
		return fmt.Errorf("export attendance: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
