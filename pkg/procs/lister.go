// Package procs enumerates running processes for the startup
// reconciliation scan.
package procs

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/westonhowe98/SoundSwitch/pkg/soundswitch"
)

type Lister struct{}

func NewLister() *Lister {
	return &Lister{}
}

func (*Lister) Snapshot() ([]soundswitch.Process, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}

	out := make([]soundswitch.Process, 0, len(procs))
	for _, p := range procs {
		out = append(out, gopsProcess{p: p})
	}
	return out, nil
}

type gopsProcess struct {
	p *process.Process
}

func (g gopsProcess) ID() int {
	return int(g.p.Pid)
}

func (g gopsProcess) Alive() bool {
	running, err := g.p.IsRunning()
	return err == nil && running
}

func (g gopsProcess) Path() (string, error) {
	path, err := g.p.Exe()
	if err != nil {
		return "", fmt.Errorf("read executable path: %w", err)
	}
	return path, nil
}
