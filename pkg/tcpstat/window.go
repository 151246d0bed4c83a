package tcpstat

import (
	"time"

	"github.com/DaviCMachado/T2-Redes/pkg/flow"
)

// DefaultWindow is the number of inter-arrival deltas averaged per sample
const DefaultWindow = 10

// WindowSample is one point of the congestion window estimate series
type WindowSample struct {
	Timestamp time.Time
	Estimate  float64
}

// CongestionWindow estimates the pacing of a flow. For every packet it
// averages the inter-arrival deltas (in seconds) of the trailing window
// packets, using fewer at the start of the flow. The first packet has a
// delta of 0.
//
// The estimate is an inter-arrival time proxy. It is not a measurement of
// the sender's TCP congestion window.
func CongestionWindow(f *flow.Flow, window int) []WindowSample {
	if window <= 0 {
		window = DefaultWindow
	}

	samples := make([]WindowSample, 0, len(f.Packets))
	deltas := make([]float64, len(f.Packets))
	var sum float64

	for i, record := range f.Packets {
		if i > 0 {
			deltas[i] = record.Timestamp.Sub(f.Packets[i-1].Timestamp).Seconds()
		}
		sum += deltas[i]
		if i >= window {
			sum -= deltas[i-window]
		}

		count := i + 1
		if count > window {
			count = window
		}
		samples = append(samples, WindowSample{
			Timestamp: record.Timestamp,
			Estimate:  sum / float64(count),
		})
	}
	return samples
}
