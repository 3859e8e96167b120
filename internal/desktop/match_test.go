package desktop

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JoeJoeGBoi/ZoomNoCam/internal/clock"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/engine"
)

var base = time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func stamp(dst *image.RGBA, src image.Image, x, y int) {
	r := src.Bounds().Add(image.Pt(x, y))
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Src)
}

var (
	white = color.RGBA{255, 255, 255, 255}
	red   = color.RGBA{255, 0, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
	black = color.RGBA{0, 0, 0, 255}
)

func TestFindAll_LocatesEveryOccurrence(t *testing.T) {
	tpl := solid(4, 4, white)
	screen := solid(40, 40, black)
	stamp(screen, tpl, 5, 5)
	stamp(screen, tpl, 20, 30)

	got := FindAll(screen, tpl, 0.95)
	require.Equal(t, []Box{
		{X: 5, Y: 5, W: 4, H: 4},
		{X: 20, Y: 30, W: 4, H: 4},
	}, got)
}

func TestFindAll_ConfidenceThreshold(t *testing.T) {
	tpl := solid(4, 4, color.Gray{Y: 200})
	screen := solid(20, 20, black)
	stamp(screen, solid(4, 4, color.Gray{Y: 190}), 8, 8)

	// Ten levels of drift out of 255 is a ~0.96 score.
	require.Len(t, FindAll(screen, tpl, 0.9), 1)
	require.Empty(t, FindAll(screen, tpl, 0.99))
}

func TestFindAll_NoMatches(t *testing.T) {
	tpl := solid(4, 4, white)
	screen := solid(20, 20, black)
	require.Empty(t, FindAll(screen, tpl, 0.8))
}

func TestFindAll_SuppressesOverlap(t *testing.T) {
	tpl := solid(4, 4, white)
	screen := solid(20, 20, black)
	stamp(screen, solid(8, 8, white), 0, 0)

	// An 8x8 block matches a 4x4 template at twenty-five offsets;
	// suppression keeps the four non-overlapping ones.
	got := FindAll(screen, tpl, 1.0)
	require.Len(t, got, 4)
	require.Equal(t, Box{X: 0, Y: 0, W: 4, H: 4}, got[0])
}

func TestScan_AssemblesParticipants(t *testing.T) {
	camDark := solid(4, 4, white)
	camLight := solid(4, 4, color.Gray{Y: 128})
	pin := solid(4, 4, red)
	cohost := solid(4, 4, blue)

	screen := solid(60, 60, black)
	stamp(screen, camDark, 5, 8)   // row 1: camera off...
	stamp(screen, pin, 30, 9)      // ...and pinned twice
	stamp(screen, camLight, 5, 28) // row 2: camera off, light theme
	stamp(screen, pin, 30, 43)     // row 3: pinned, camera on
	stamp(screen, cohost, 45, 44)  // ...and co-host

	o := &Observer{
		clk:        clock.NewFake(base),
		log:        zap.NewNop(),
		cameraConf: 0.95,
		badgeConf:  0.95,
		camDark:    camDark,
		camLight:   camLight,
		pin:        pin,
		cohost:     cohost,
	}

	batch := o.scan(screen)
	require.Len(t, batch, 3)

	require.Equal(t, engine.Participant{
		ID: "7x10", CameraOn: false, PinCount: 2, ObservedAt: base,
	}, batch[0])

	require.Equal(t, engine.Participant{
		ID: "7x30", CameraOn: false, ObservedAt: base,
	}, batch[1])

	require.Equal(t, engine.Participant{
		ID: "32x45", CameraOn: true, PinCount: 2, CoHost: true, ObservedAt: base,
	}, batch[2])
}

func TestPosKey_RoundTrip(t *testing.T) {
	x, y, err := parsePosKey(posKey(120, 455))
	require.NoError(t, err)
	require.Equal(t, 120, x)
	require.Equal(t, 455, y)

	for _, bad := range []string{"", "abc", "12x", "x12", "12y34"} {
		_, _, err := parsePosKey(bad)
		require.Error(t, err, "id %q", bad)
	}
}

func TestMenuItem(t *testing.T) {
	item, confirm := menuItem(engine.ActionWarn)
	require.Equal(t, "Ask to Start Video", item)
	require.False(t, confirm)

	item, confirm = menuItem(engine.ActionRemove)
	require.Equal(t, "Remove", item)
	require.True(t, confirm)

	item, confirm = menuItem(engine.ActionUnpin)
	require.Equal(t, "Remove Pin", item)
	require.False(t, confirm)

	item, _ = menuItem(engine.ActionType("promote"))
	require.Empty(t, item)
}
