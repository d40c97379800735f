// Package notify delivers desktop notifications over the freedesktop
// notification service.
package notify

import (
	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

type Notifier struct {
	log *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) *Notifier {
	return &Notifier{log: log}
}

func (n *Notifier) Notify(message, title string) {
	if err := beeep.Notify(title, message, ""); err != nil {
		n.log.Debugf("could not deliver notification %q: %v", title, err)
	}
}
