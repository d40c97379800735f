package ipc

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/westonhowe98/SoundSwitch/pkg/profile"
)

// ProfileService is the daemon surface the control channel drives.
type ProfileService interface {
	Profiles() []profile.Profile
	AddProfile(p profile.Profile) error
	DeleteProfiles(names []string) (int, error)
	TriggerLauncher() bool
}

// Router dispatches control requests to the engine. Hotkey presses go
// through deliver so they re-enter the daemon on the same channel the
// compositor binds feed.
type Router struct {
	profiles ProfileService
	deliver  func(combo string) error
	log      *zap.SugaredLogger
}

func NewRouter(profiles ProfileService, deliver func(combo string) error, log *zap.SugaredLogger) *Router {
	return &Router{
		profiles: profiles,
		deliver:  deliver,
		log:      log,
	}
}

func (r *Router) Handle(_ context.Context, req Request) Response {
	r.log.Debugf("control request: %s", req.Command)

	switch req.Command {
	case CommandStatus:
		return Response{OK: true, Message: fmt.Sprintf("running, %d profiles", len(r.profiles.Profiles()))}
	case CommandList:
		return Response{OK: true, Profiles: r.profiles.Profiles()}
	case CommandAdd:
		return r.add(req)
	case CommandDelete:
		return r.delete(req)
	case CommandHotkey:
		return r.hotkey(req)
	case CommandLauncher:
		if !r.profiles.TriggerLauncher() {
			return Response{Error: "no launcher profile configured"}
		}
		return Response{OK: true, Message: "launcher profile applied"}
	default:
		return Response{Error: fmt.Sprintf("unknown command %q", req.Command)}
	}
}

func (r *Router) add(req Request) Response {
	if req.Profile == nil {
		return Response{Error: "add requires a profile"}
	}
	if err := r.profiles.AddProfile(*req.Profile); err != nil {
		return Response{Error: err.Error()}
	}
	return Response{OK: true, Message: fmt.Sprintf("added profile %q", req.Profile.Name)}
}

func (r *Router) delete(req Request) Response {
	if len(req.Names) == 0 {
		return Response{Error: "delete requires at least one profile name"}
	}
	deleted, err := r.profiles.DeleteProfiles(req.Names)
	message := fmt.Sprintf("deleted %d profiles", deleted)
	if err != nil {
		return Response{Message: message, Error: err.Error()}
	}
	return Response{OK: true, Message: message}
}

func (r *Router) hotkey(req Request) Response {
	if req.Combo == "" {
		return Response{Error: "hotkey requires a key combination"}
	}
	if err := r.deliver(req.Combo); err != nil {
		return Response{Error: err.Error()}
	}
	return Response{OK: true}
}
