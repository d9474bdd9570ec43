package sound

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"github.com/tigerbot-team/helirig/pkg/flightcontroller"
)

// Player announces phase changes by playing <dir>/<phase>.wav.  A new sound
// cuts off the one that's playing.
type Player struct {
	dir          string
	soundsToPlay chan string
}

var _ flightcontroller.Observer = (*Player)(nil)

func NewPlayer(dir string) *Player {
	return &Player{
		dir:          dir,
		soundsToPlay: make(chan string, 4),
	}
}

func (p *Player) PathFor(phase flightcontroller.Phase) string {
	return filepath.Join(p.dir, strings.ToLower(phase.String())+".wav")
}

// OnPhaseChange never blocks the controller; if the queue is full the sound is skipped.
func (p *Player) OnPhaseChange(from, to flightcontroller.Phase) {
	select {
	case p.soundsToPlay <- p.PathFor(to):
	default:
		fmt.Println("Sound queue full, skipping", to)
	}
}

func (p *Player) Close() {
	close(p.soundsToPlay)
}

func (p *Player) Start() {
	go p.loop()
}

func (p *Player) loop() {
	defer func() {
		recover()
		for s := range p.soundsToPlay {
			fmt.Println("Unable to play", s)
		}
	}()
	sampleRate := beep.SampleRate(44100)
	err := speaker.Init(sampleRate, sampleRate.N(time.Second/5))
	if err != nil {
		fmt.Println("Failed to open speaker", err)
		for s := range p.soundsToPlay {
			fmt.Println("Unable to play", s)
		}
		return
	}
	var ctrl *beep.Ctrl
	var s beep.StreamSeekCloser
	for soundToPlay := range p.soundsToPlay {
		if ctrl != nil {
			speaker.Lock()
			ctrl.Paused = true
			ctrl.Streamer = nil
			speaker.Unlock()
			ctrl = nil
		}
		if s != nil {
			s.Close()
			s = nil
		}

		f, err := os.Open(soundToPlay)
		if err != nil {
			fmt.Println("Failed to open sound", err)
			continue
		}
		s, _, err = wav.Decode(f)
		if err != nil {
			fmt.Println("Failed to decode sound", err)
			f.Close()
			s = nil
			continue
		}
		ctrl = &beep.Ctrl{Streamer: s}
		speaker.Play(ctrl)
	}
}
