// Package desktop drives a real meeting window. The participants panel is
// read by template-matching status icons on a screen capture, and actions
// are delivered by walking each row's context menu with keyboard type-ahead.
package desktop

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"

	"github.com/go-vgo/robotgo"
	"go.uber.org/zap"

	"github.com/JoeJoeGBoi/ZoomNoCam/internal/clock"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/config"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/dispatcher"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/engine"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/observer"
)

// Badges on the same panel row sit within this many pixels vertically.
const rowTolerance = 10

// Observer reads the participants panel off the screen. Rows are identified
// by the position of their camera-off icon, so the participant id is the
// icon's center and doubles as the click target for the dispatcher.
type Observer struct {
	clk     clock.Clock
	log     *zap.Logger
	process string

	cameraConf float64
	badgeConf  float64

	camDark  image.Image
	camLight image.Image
	pin      image.Image
	cohost   image.Image
}

func NewObserver(cfg config.Config, clk clock.Clock, log *zap.Logger) (*Observer, error) {
	camDark, err := LoadIcon(cfg.IconPath(cfg.IconCameraOff))
	if err != nil {
		return nil, err
	}
	camLight, err := LoadIcon(cfg.IconPath(cfg.IconCameraOffLight))
	if err != nil {
		return nil, err
	}
	pin, err := LoadIcon(cfg.IconPath(cfg.IconMultiPin))
	if err != nil {
		return nil, err
	}
	cohost, err := LoadIcon(cfg.IconPath(cfg.IconCoHost))
	if err != nil {
		return nil, err
	}

	return &Observer{
		clk:        clk,
		log:        log,
		process:    strings.ToLower(cfg.TargetTitle),
		cameraConf: cfg.CameraConfidence,
		badgeConf:  cfg.BadgeConfidence,
		camDark:    camDark,
		camLight:   camLight,
		pin:        pin,
		cohost:     cohost,
	}, nil
}

// ScrollToLastPage jumps the participants list to its end so late joiners
// are on screen when the panel is scanned.
func (o *Observer) ScrollToLastPage(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	robotgo.KeyTap("end")
	return nil
}

func (o *Observer) Snapshot(ctx context.Context) ([]engine.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids, err := robotgo.FindIds(o.process)
	if err != nil || len(ids) == 0 {
		return nil, fmt.Errorf("%w: no %q process found", observer.ErrUnavailable, o.process)
	}

	bit := robotgo.CaptureScreen()
	if bit == nil {
		return nil, fmt.Errorf("%w: screen capture failed", observer.ErrUnavailable)
	}
	defer robotgo.FreeBitmap(bit)

	return o.scan(robotgo.ToImage(bit)), nil
}

func (o *Observer) scan(screen image.Image) []engine.Participant {
	now := o.clk.Now()

	cams := FindAll(screen, o.camDark, o.cameraConf)
	cams = append(cams, FindAll(screen, o.camLight, o.cameraConf)...)
	pins := FindAll(screen, o.pin, o.badgeConf)
	hosts := FindAll(screen, o.cohost, o.badgeConf)

	var batch []engine.Participant
	for _, cam := range cams {
		cx, cy := cam.Center()
		batch = append(batch, engine.Participant{
			ID:         posKey(cx, cy),
			CameraOn:   false,
			PinCount:   pinCount(pins, cam),
			CoHost:     onRow(hosts, cam),
			ObservedAt: now,
		})
	}

	// Camera-on rows leave no icon to anchor on. A pin badge with no
	// camera-off icon on its row still needs representing, or the pin
	// would never be stripped.
	for _, p := range pins {
		if onRow(cams, p) {
			continue
		}
		cx, cy := p.Center()
		batch = append(batch, engine.Participant{
			ID:         posKey(cx, cy),
			CameraOn:   true,
			PinCount:   2,
			CoHost:     onRow(hosts, p),
			ObservedAt: now,
		})
	}

	o.log.Debug("panel scan",
		zap.Int("camera_off", len(cams)),
		zap.Int("pin_badges", len(pins)),
		zap.Int("cohost_badges", len(hosts)))

	return batch
}

func pinCount(pins []Box, row Box) int {
	if onRow(pins, row) {
		return 2
	}
	return 0
}

func onRow(boxes []Box, row Box) bool {
	for _, b := range boxes {
		if sameRow(b, row) {
			return true
		}
	}
	return false
}

func sameRow(a, b Box) bool {
	_, ay := a.Center()
	_, by := b.Center()
	d := ay - by
	if d < 0 {
		d = -d
	}
	return d <= rowTolerance
}

func posKey(x, y int) string {
	return fmt.Sprintf("%dx%d", x, y)
}

func parsePosKey(id string) (int, int, error) {
	sx, sy, ok := strings.Cut(id, "x")
	if !ok {
		return 0, 0, fmt.Errorf("participant id %q is not a position key", id)
	}
	x, err := strconv.Atoi(sx)
	if err != nil {
		return 0, 0, fmt.Errorf("participant id %q is not a position key", id)
	}
	y, err := strconv.Atoi(sy)
	if err != nil {
		return 0, 0, fmt.Errorf("participant id %q is not a position key", id)
	}
	return x, y, nil
}

// Dispatcher delivers actions through the participant row's context menu.
type Dispatcher struct {
	menuDelay time.Duration
	log       *zap.Logger
}

func NewDispatcher(cfg config.Config, log *zap.Logger) *Dispatcher {
	return &Dispatcher{menuDelay: cfg.MenuDelay, log: log}
}

func (d *Dispatcher) Dispatch(ctx context.Context, action engine.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	x, y, err := parsePosKey(action.ParticipantID)
	if err != nil {
		return fmt.Errorf("%w: %v", dispatcher.ErrDispatchFailed, err)
	}

	item, confirm := menuItem(action.Type)
	if item == "" {
		return fmt.Errorf("%w: no menu flow for action %q", dispatcher.ErrDispatchFailed, action.Type)
	}

	d.log.Info("driving context menu",
		zap.String("action", string(action.Type)),
		zap.String("participant", action.ParticipantID),
		zap.String("item", item))

	robotgo.Move(x, y)
	robotgo.Click("right")
	d.pause()

	// Context menus support type-ahead: typing the label selects the item.
	robotgo.TypeStr(item)
	d.pause()
	robotgo.KeyTap("enter")

	if confirm {
		// Removal pops a confirmation dialog with the confirm button focused.
		d.pause()
		robotgo.KeyTap("enter")
	}
	return nil
}

func menuItem(t engine.ActionType) (item string, confirm bool) {
	switch t {
	case engine.ActionWarn:
		return "Ask to Start Video", false
	case engine.ActionRemove:
		return "Remove", true
	case engine.ActionUnpin:
		return "Remove Pin", false
	default:
		return "", false
	}
}

func (d *Dispatcher) pause() {
	robotgo.MilliSleep(int(d.menuDelay.Milliseconds()))
}
