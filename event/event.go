package event

import (
	"fmt"

	"github.com/gookit/event"
	"go.uber.org/fx"
)

var Module = fx.Module("event",
	fx.Options(
		fx.Provide(NewManager),
	),
)

func NewManager() *event.Manager {
	return event.NewManager("ule")
}

// fire builds a fresh event per call so concurrent publishers never share data.
func fire[T event.Event](em *event.Manager, name string, build func(base *event.BasicEvent) T) error {
	if em == nil {
		return nil
	}

	evt := build(event.NewBasic(name, event.M{}))

	if err := em.FireEvent(evt); err != nil {
		return fmt.Errorf("event %s: %w", name, err)
	}

	return nil
}
