package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/Victorh-Tasca/discord-example-app/internal/action"

	"github.com/bwmarrin/discordgo"
)

type EventKind int

const (
	EventCommand EventKind = iota + 1
	EventComponent
	EventModal
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventComponent:
		return "component"
	case EventModal:
		return "modal"
	default:
		return "unknown"
	}
}

type route struct {
	kind EventKind
	tag  string
}

// Event is an interaction with its routing information already decoded.
type Event struct {
	Interaction *discordgo.Interaction
	Kind        EventKind
	Action      action.Action
}

// UserID is the invoking user, in guilds and in DMs.
func (e Event) UserID() string {
	if e.Interaction.Member != nil && e.Interaction.Member.User != nil {
		return e.Interaction.Member.User.ID
	}
	if e.Interaction.User != nil {
		return e.Interaction.User.ID
	}
	return ""
}

// IsAdmin is true for guild members holding the Administrator permission.
func (e Event) IsAdmin() bool {
	return e.Interaction.Member != nil && e.Interaction.Member.Permissions&discordgo.PermissionAdministrator != 0
}

type HandlerFunc func(ctx context.Context, e Event) error

var ErrNoRoute = errors.New("no handler for interaction")

// Dispatcher maps (event kind, tag) to a handler. The tag is the command name for slash
// commands and the action kind for components and modals.
type Dispatcher struct {
	routes map[route]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{routes: make(map[route]HandlerFunc)}
}

func (d *Dispatcher) Command(name string, h HandlerFunc) {
	d.routes[route{kind: EventCommand, tag: name}] = h
}

func (d *Dispatcher) Component(kind action.Kind, h HandlerFunc) {
	d.routes[route{kind: EventComponent, tag: string(kind)}] = h
}

func (d *Dispatcher) Modal(kind action.Kind, h HandlerFunc) {
	d.routes[route{kind: EventModal, tag: string(kind)}] = h
}

// Resolve decodes the interaction and finds its handler.
func (d *Dispatcher) Resolve(i *discordgo.Interaction) (Event, HandlerFunc, error) {
	e := Event{Interaction: i}

	var tag string
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		e.Kind = EventCommand
		tag = i.ApplicationCommandData().Name
	case discordgo.InteractionMessageComponent:
		e.Kind = EventComponent
		a, err := action.Decode(i.MessageComponentData().CustomID)
		if err != nil {
			return e, nil, fmt.Errorf("action.Decode -> %w", err)
		}
		e.Action = a
		tag = string(a.Kind)
	case discordgo.InteractionModalSubmit:
		e.Kind = EventModal
		a, err := action.Decode(i.ModalSubmitData().CustomID)
		if err != nil {
			return e, nil, fmt.Errorf("action.Decode -> %w", err)
		}
		e.Action = a
		tag = string(a.Kind)
	default:
		return e, nil, fmt.Errorf("%w: type %d", ErrNoRoute, i.Type)
	}

	h, ok := d.routes[route{kind: e.Kind, tag: tag}]
	if !ok {
		return e, nil, fmt.Errorf("%w: %s %q", ErrNoRoute, e.Kind, tag)
	}

	return e, h, nil
}
