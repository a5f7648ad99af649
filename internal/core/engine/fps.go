package engine

import "time"

// FPS is a moving average of the instantaneous frame rate over the last
// window frames.
type FPS struct {
	samples []float64
	next    int
	filled  int
	sum     float64
}

func NewFPS(window int) *FPS {
	if window < 1 {
		window = 1
	}
	return &FPS{samples: make([]float64, window)}
}

// Push records one frame. Zero-length frames are ignored.
func (f *FPS) Push(frame time.Duration) {
	if frame <= 0 {
		return
	}
	sample := 1 / frame.Seconds()
	if f.filled == len(f.samples) {
		f.sum -= f.samples[f.next]
	} else {
		f.filled++
	}
	f.samples[f.next] = sample
	f.sum += sample
	f.next = (f.next + 1) % len(f.samples)
}

func (f *FPS) Average() float64 {
	if f.filled == 0 {
		return 0
	}
	return f.sum / float64(f.filled)
}
