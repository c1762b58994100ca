package metrics

// Window is a fixed-capacity FIFO buffer of recent samples used for
// moving averages. Once full, each new sample evicts the oldest; there
// is no access-based reordering.
type Window struct {
	capacity int
	samples  []float64
}

func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = 1
	}

	return &Window{
		capacity: capacity,
		samples:  make([]float64, 0, capacity),
	}
}

// Add appends a sample, evicting the oldest when the window is full
func (w *Window) Add(sample float64) {
	if len(w.samples) == w.capacity {
		copy(w.samples, w.samples[1:])
		w.samples = w.samples[:w.capacity-1]
	}

	w.samples = append(w.samples, sample)
}

// Mean returns the arithmetic mean over the current window, 0 when empty
func (w *Window) Mean() float64 {
	if len(w.samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range w.samples {
		sum += s
	}

	return sum / float64(len(w.samples))
}

func (w *Window) Len() int {
	return len(w.samples)
}

func (w *Window) Reset() {
	w.samples = w.samples[:0]
}
