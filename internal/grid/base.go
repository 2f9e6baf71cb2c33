package grid

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/roman-kulish/wrist-telemetry/internal/permission"
)

// subscription is a resource a cell holds while it is started, visible and, when
// requires is set, permitted.
type subscription struct {
	name     string
	requires permission.Capability
	acquire  func() (release func(), err error)
	release  func()
}

func (s *subscription) held() bool {
	return s.release != nil
}

// base implements the lifecycle shared by every cell. Variants embed it, register
// their subscriptions and set update to recompute their text.
type base struct {
	id   string
	text string
	env  Env

	visible  bool
	ambient  bool
	lowPower bool
	burnIn   bool
	color    colorful.Color
	scale    func(ambient bool) float64

	started   bool
	destroyed bool
	state     State

	requires []permission.Capability
	subs     []*subscription
	update   func(now time.Time)

	logger *slog.Logger
}

func newBase(id string, env Env) *base {
	env = env.withDefaults()
	return &base{
		id:     id,
		env:    env,
		color:  White,
		scale:  func(bool) float64 { return 1 },
		logger: env.Logger.With(slog.String("cell", id)),
	}
}

func (b *base) subscribe(name string, requires permission.Capability, acquire func() (func(), error)) {
	b.subs = append(b.subs, &subscription{name: name, requires: requires, acquire: acquire})
}

func (b *base) require(c permission.Capability) {
	b.requires = append(b.requires, c)
}

func (b *base) ID() string {
	return b.id
}

func (b *base) Text() string {
	return b.text
}

func (b *base) setText(s string) {
	b.text = s
}

func (b *base) Style() Style {
	return Style{
		Color:     b.color,
		AntiAlias: !b.ambient && !b.lowPower,
		Scale:     b.scale(b.ambient),
		Dim:       b.ambient && b.burnIn,
	}
}

func (b *base) State() State {
	return b.state
}

func (b *base) Visible() bool {
	return b.visible
}

func (b *base) Ambient() bool {
	return b.ambient
}

func (b *base) Start() {
	if b.started || b.destroyed {
		return
	}
	b.started = true
	b.logger.Debug("started")

	b.reconcile()
	b.refresh(b.env.Now())
}

// Destroy releases everything. It is terminal and idempotent.
func (b *base) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.reconcile()
	b.logger.Debug("destroyed")
}

func (b *base) Refresh(now time.Time) {
	if b.destroyed {
		return
	}
	b.reconcile()
	b.refresh(now)
}

func (b *base) refresh(now time.Time) {
	if b.update != nil {
		b.update(now)
	}
}

func (b *base) SetVisible(visible bool) {
	if b.visible == visible {
		return
	}
	b.visible = visible
	b.reconcile()
}

// SetAmbient never touches subscriptions
func (b *base) SetAmbient(ambient bool) {
	b.ambient = ambient
}

func (b *base) SetLowPowerRendering(lowPower bool) {
	b.lowPower = lowPower
}

func (b *base) SetBurnInProtection(burnIn bool) {
	b.burnIn = burnIn
}

func (b *base) SetTextColor(c colorful.Color) {
	b.color = c
}

func (b *base) PermissionChanged(c permission.Capability, granted bool) {
	b.logger.Debug("permission changed", slog.String("capability", string(c)), slog.Bool("granted", granted))
	b.reconcile()
}

func (b *base) Subscriptions() []string {
	var held []string
	for _, s := range b.subs {
		if s.held() {
			held = append(held, s.name)
		}
	}
	return held
}

func (b *base) has(c permission.Capability) bool {
	return b.env.Gate != nil && b.env.Gate.Has(c)
}

func (b *base) permitted() bool {
	return !slices.ContainsFunc(b.requires, func(c permission.Capability) bool { return !b.has(c) })
}

// reconcile makes the held subscriptions match the current configuration. A failed
// acquisition is logged and left for the next event to retry.
func (b *base) reconcile() {
	live := b.started && !b.destroyed

	for _, s := range b.subs {
		want := live && b.visible && (s.requires == "" || b.has(s.requires))

		switch {
		case want && !s.held():
			release, err := s.acquire()
			if err != nil {
				b.logger.Warn(fmt.Sprintf("acquiring %s: %s", s.name, err.Error()))
				continue
			}
			s.release = release
			b.logger.Debug("subscription acquired", slog.String("subscription", s.name))

		case !want && s.held():
			s.release()
			s.release = nil
			b.logger.Debug("subscription released", slog.String("subscription", s.name))
		}
	}

	prev := b.state
	switch {
	case !live:
		b.state = Detached
	case b.visible && b.permitted():
		b.state = Active
	default:
		b.state = Inactive
	}
	if prev != b.state {
		b.logger.Debug("state changed", slog.String("from", prev.String()), slog.String("to", b.state.String()))
	}
}
