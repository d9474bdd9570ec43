package screen

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"sync"
	"time"

	"github.com/fogleman/gg"

	"github.com/tigerbot-team/helirig/pkg/flightcontroller"
)

const S = 128

type StatusFunc func() flightcontroller.Status

func Loop(ctx context.Context, wg *sync.WaitGroup, device string, status StatusFunc) {
	defer wg.Done()

	f, err := os.OpenFile(device, os.O_RDWR, 0666)
	if err != nil {
		fmt.Println("Failed to open screen, ignoring")
		return
	}
	defer f.Close()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			var buf [S * S * 2]byte
			_, _ = f.Seek(0, 0)
			_, _ = f.Write(buf[:])
			return
		case <-ticker.C:
		}

		buf := toRGB565(Render(status()).Image())
		if _, err := f.Seek(0, 0); err != nil {
			fmt.Println("Screen failure: ", err)
			return
		}
		for i := 0; i < S; i++ {
			if _, err := f.Write(buf[i*S*2 : (i+1)*S*2]); err != nil {
				fmt.Println("Screen failure: ", err)
				return
			}
			time.Sleep(10 * time.Microsecond)
		}
	}
}

// Render draws the phase banner, a height bar against its target and a yaw dial.
func Render(s flightcontroller.Status) *gg.Context {
	dc := gg.NewContext(S, S)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	setPhaseColour(dc, s.Phase)
	dc.DrawRectangle(0, 0, S, 16)
	dc.Fill()
	dc.SetRGB(0, 0, 0)
	banner := s.Phase.String()
	if s.Phase == flightcontroller.Landing {
		banner += " " + s.LandingStage.String()
	}
	dc.DrawString(banner, 4, 12)

	drawHeightBar(dc, s.Height, s.HeightTarget)
	drawYawDial(dc, s.Yaw, s.YawTarget)

	dc.SetRGBA(1, 0.9, 0, 1)
	dc.DrawString(fmt.Sprintf("H %d/%d%%", s.Height, s.HeightTarget), 4, 110)
	dc.DrawString(fmt.Sprintf("Y %d/%d", s.Yaw, s.YawTarget), 4, 124)
	if !s.GateEnabled && s.Phase != flightcontroller.Landed {
		dc.Push()
		dc.Translate(112, 36)
		DrawWarning(dc)
		dc.Pop()
	}
	return dc
}

func setPhaseColour(dc *gg.Context, p flightcontroller.Phase) {
	switch p {
	case flightcontroller.Init:
		dc.SetRGB(1, 0.9, 0)
	case flightcontroller.Flying:
		dc.SetRGB(0, 0.8, 0.2)
	case flightcontroller.Landing:
		dc.SetRGB(1, 0.5, 0)
	default:
		dc.SetRGB(0.5, 0.5, 0.5)
	}
}

func drawHeightBar(dc *gg.Context, height, target int) {
	const top, bottom = 24.0, 96.0
	scale := func(pct int) float64 {
		return bottom - (bottom-top)*float64(pct)/100
	}

	dc.SetRGBA(1, 0.9, 0, 1)
	dc.SetLineWidth(1)
	dc.DrawRectangle(6, top, 20, bottom-top)
	dc.Stroke()
	if height > 0 {
		dc.DrawRectangle(8, scale(height), 16, bottom-scale(height))
		dc.Fill()
	}

	dc.SetRGB(0, 0.8, 1)
	dc.SetLineWidth(2)
	dc.DrawLine(2, scale(target), 30, scale(target))
	dc.Stroke()
}

func drawYawDial(dc *gg.Context, yaw, target int) {
	const cx, cy, r = 76.0, 60.0, 34.0

	dc.SetRGBA(1, 0.9, 0, 1)
	dc.SetLineWidth(1)
	dc.DrawCircle(cx, cy, r)
	dc.Stroke()

	// 0 degrees points up.
	needle := func(deg int, length float64) {
		a := gg.Radians(float64(deg) - 90)
		dc.DrawLine(cx, cy, cx+length*math.Cos(a), cy+length*math.Sin(a))
		dc.Stroke()
	}
	dc.SetRGB(0, 0.8, 1)
	dc.SetLineWidth(2)
	needle(target, r)
	dc.SetRGBA(1, 0.9, 0, 1)
	dc.SetLineWidth(3)
	needle(yaw, r-8)
}

func DrawWarning(dc *gg.Context) {
	dc.SetRGB(1, 0.2, 0)
	dc.DrawRegularPolygon(3, 0, 0, 14, 0)
	dc.Fill()
	dc.SetRGBA(0, 0, 0, 0.9)
	dc.DrawString("!", -3, 3)
}

// toRGB565 packs the image for the panel, which is mounted rotated a quarter turn.
func toRGB565(img image.Image) []byte {
	buf := make([]byte, S*S*2)
	for y := 0; y < S; y++ {
		for x := 0; x < S; x++ {
			r, g, b, _ := img.At(x, y).RGBA() // 16-bit pre-multiplied

			rb := byte(r >> (16 - 5))
			gb := byte(g >> (16 - 6)) // Green has 6 bits
			bb := byte(b >> (16 - 5))

			buf[(S-1-y)*2+x*S*2+1] = (rb << 3) | (gb >> 3)
			buf[(S-1-y)*2+x*S*2] = bb | (gb << 5)
		}
	}
	return buf
}
