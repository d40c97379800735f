package hypr

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/westonhowe98/SoundSwitch/pkg/soundswitch"
)

// Watcher turns activewindow events into foreground events, enriched
// with the owning process through the control socket.
type Watcher struct {
	client *Client
	ctl    *Ctl
	events chan soundswitch.ForegroundEvent
	log    *zap.SugaredLogger
}

func NewWatcher(ctl *Ctl, log *zap.SugaredLogger) (*Watcher, error) {
	client, err := Connect()
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	return &Watcher{
		client: client,
		ctl:    ctl,
		events: make(chan soundswitch.ForegroundEvent, 16),
		log:    log,
	}, nil
}

func (w *Watcher) Events() <-chan soundswitch.ForegroundEvent {
	return w.events
}

// Run reads the event stream until the context ends or the socket
// breaks. The stream is closed on return so consumers stop with us.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer w.client.Close()

	for {
		resultCh := make(chan string)
		errCh := make(chan error)
		go func() {
			line, err := w.client.ReadLine()
			if err != nil {
				errCh <- err
				return
			}
			resultCh <- line
		}()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return fmt.Errorf("get line: %w", err)
		case line := <-resultCh:
			w.processLine(line)
		}
	}
}

func (w *Watcher) processLine(line string) {
	title, ok := parseActiveWindow(line)
	if !ok {
		return
	}

	ev := soundswitch.ForegroundEvent{WindowTitle: title}

	active, err := w.ctl.ActiveWindow()
	switch {
	case err != nil:
		w.log.Debugf("query active window: %v", err)
	case active.Pid > 0:
		ev.PID = active.Pid
		if path, err := exePath(active.Pid); err != nil {
			w.log.Debugf("resolve executable of pid %d: %v", active.Pid, err)
		} else {
			ev.ProcessPath = path
		}
	}

	select {
	case w.events <- ev:
	default:
		w.log.Warnf("dropping foreground event for %q, consumer is behind", title)
	}
}

// parseActiveWindow extracts the window title from an event line of the
// form "activewindow>>class,title". Titles may contain commas; only the
// first one separates class from title.
func parseActiveWindow(line string) (string, bool) {
	fields := strings.SplitN(line, ">>", 2)
	if len(fields) < 2 || fields[0] != "activewindow" {
		return "", false
	}

	parts := strings.SplitN(fields[1], ",", 2)
	if len(parts) < 2 {
		return "", false
	}

	return parts[1], true
}

func exePath(pid int) (string, error) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", fmt.Errorf("inspect process: %w", err)
	}

	path, err := proc.Exe()
	if err != nil {
		return "", fmt.Errorf("read executable path: %w", err)
	}

	return path, nil
}
