package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/westonhowe98/SoundSwitch/pkg/hypr"
	"github.com/westonhowe98/SoundSwitch/pkg/ipc"
	"github.com/westonhowe98/SoundSwitch/pkg/legacyconfig"
	"github.com/westonhowe98/SoundSwitch/pkg/notify"
	"github.com/westonhowe98/SoundSwitch/pkg/procs"
	"github.com/westonhowe98/SoundSwitch/pkg/profile"
	jsonstore "github.com/westonhowe98/SoundSwitch/pkg/profilestore/json"
	"github.com/westonhowe98/SoundSwitch/pkg/profilestore/memory"
	"github.com/westonhowe98/SoundSwitch/pkg/profilestore/sqlite"
	"github.com/westonhowe98/SoundSwitch/pkg/pulseaudio"
	"github.com/westonhowe98/SoundSwitch/pkg/soundswitch"
)

func main() {
	err := run()
	if err != nil {
		log.Fatalf("error: %+v", err)
	}
}

func run() error {
	if len(os.Args) > 1 && os.Args[1] == "send" {
		return runSend(os.Args[2:])
	}

	storeKind := flag.String("store", "sqlite", "profile store backend: sqlite, json or memory")
	dataDir := flag.String("data-dir", "", "profile store directory, defaults to the xdg config home")
	importPath := flag.String("import", "", "path to an old SoundSwitchSettings xml file to import")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log, err := newLogger(*debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := ipc.Acquire(ctx, ipc.RuntimeSocketPath(), 200*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquire control socket: %w", err)
	}

	var settings []profile.Setting
	if *importPath != "" {
		settings, err = legacyconfig.ParseSettings(*importPath)
		if err != nil {
			return fmt.Errorf("parse legacy settings: %w", err)
		}
	}

	configPath, err := getConfigDir(*dataDir)
	if err != nil {
		return fmt.Errorf("get config dir: %w", err)
	}

	var (
		store  soundswitch.ProfileStore
		looper func(ctx context.Context) error
	)
	switch *storeKind {
	case "sqlite":
		s, err := sqlite.NewProfileStore(configPath+"/profiles.db", log)
		if err != nil {
			return fmt.Errorf("open profile store: %w", err)
		}
		defer s.Close()
		s.SeedLegacySettings(settings)
		store = s
	case "json":
		s, err := jsonstore.NewProfileStore(configPath + "/profiles.json")
		if err != nil {
			return fmt.Errorf("open profile store: %w", err)
		}
		s.SeedLegacySettings(settings)
		store = s
		looper = s.SaveLooper
	case "memory":
		s := memory.NewProfileStore()
		s.SeedLegacySettings(settings)
		store = s
	default:
		return fmt.Errorf("unknown store backend %q", *storeKind)
	}

	audio, err := pulseaudio.New(log)
	if err != nil {
		return fmt.Errorf("connect pulseaudio: %w", err)
	}
	defer audio.Close()

	watcher, err := hypr.NewWatcher(hypr.NewCtl(), log)
	if err != nil {
		return fmt.Errorf("connect hyprland: %w", err)
	}

	binds, err := hypr.NewBinds(log)
	if err != nil {
		return fmt.Errorf("prepare hotkey binds: %w", err)
	}

	notifier := notify.New(log)
	engine := soundswitch.NewEngine(store, binds, watcher, audio, audio, procs.NewLister(), notifier, log)

	failed, err := engine.Initialize()
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}
	for _, p := range failed {
		notifier.Notify(fmt.Sprintf("The hotkey for profile %q could not be registered.", p.Name), "Hotkey unavailable")
	}

	if *importPath != "" {
		if err := os.Rename(*importPath, *importPath+".imported"); err != nil {
			log.Warnf("could not rename imported settings file: %v", err)
		}
	}

	router := ipc.NewRouter(engine, binds.Deliver, log)

	log.Info("started soundswitch")

	errChan := make(chan error, 5)
	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		err := engine.Run(ctx)
		if err != nil {
			errChan <- fmt.Errorf("engine: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		err := watcher.Run(ctx)
		if err != nil {
			errChan <- fmt.Errorf("watch foreground: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		err := ipc.Serve(ctx, listener, router)
		if err != nil {
			errChan <- fmt.Errorf("control channel: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		err := systemdNotifyLoop(ctx)
		if err != nil {
			errChan <- fmt.Errorf("systemd notify: %w", err)
		}
	}()

	if looper != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := looper(ctx)
			if err != nil {
				errChan <- fmt.Errorf("save profiles: %w", err)
			}
		}()
	}

	err = <-errChan
	switch {
	case errors.Is(err, context.Canceled):
		log.Info("shutting down")
		wg.Wait()
		return nil
	case err != nil:
		return err
	}

	return nil
}

func runSend(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: soundswitch send <command> [args...]")
	}

	req := ipc.Request{Command: args[0]}
	switch args[0] {
	case ipc.CommandHotkey:
		if len(args) != 2 {
			return errors.New("usage: soundswitch send hotkey <combo>")
		}
		req.Combo = args[1]
	case ipc.CommandAdd:
		if len(args) != 2 {
			return errors.New("usage: soundswitch send add <profile-json>")
		}
		var p profile.Profile
		if err := json.Unmarshal([]byte(args[1]), &p); err != nil {
			return fmt.Errorf("parse profile: %w", err)
		}
		req.Profile = &p
	case ipc.CommandDelete:
		if len(args) < 2 {
			return errors.New("usage: soundswitch send delete <name> [name...]")
		}
		req.Names = args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp, err := ipc.Send(ctx, ipc.RuntimeSocketPath(), req, 2*time.Second)
	if err != nil {
		return fmt.Errorf("reach daemon: %w", err)
	}

	if resp.Message != "" {
		fmt.Println(resp.Message)
	}
	if len(resp.Profiles) > 0 {
		out, err := json.MarshalIndent(resp.Profiles, "", "  ")
		if err != nil {
			return fmt.Errorf("encode profiles: %w", err)
		}
		fmt.Println(string(out))
	}
	if !resp.OK {
		return errors.New(resp.Error)
	}

	return nil
}

func systemdNotifyLoop(ctx context.Context) error {
	// tell systemd that we're ready
	supported, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		return fmt.Errorf("notify systemd: %w", err)
	}
	if !supported {
		return nil
	}

	_, _ = daemon.SdNotify(false, "STATUS=Switching audio devices on cue! 🔊")

	t, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return fmt.Errorf("check watchdog: %w", err)
	}
	// no watchdog configured for this unit
	if t == 0 {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-time.After(t / 2):
			_, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			if err != nil {
				return fmt.Errorf("notify watchdog: %w", err)
			}
		}
	}
}

func getConfigDir(override string) (string, error) {
	dir := override
	if dir == "" {
		dir = filepath.Join(xdg.ConfigHome, "soundswitch")
	}
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}

	return dir, nil
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	loggerConfig := zap.NewDevelopmentConfig()

	loggerConfig.OutputPaths = []string{"stdout"}
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if !debug {
		loggerConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger.Sugar(), nil
}
