package stats

import "github.com/DaviCMachado/T2-Redes/pkg/traffic"

// Summary derives the reduced document. Segment sizes are passed through
// the IQR outlier filter before being described. The shared keys reference
// the same maps and slices as f.
func (f *Full) Summary(ignoreZeroOutliers bool) *Summary {
	summary := &Summary{
		CongestionWindow: make(map[string]WindowSummary, len(f.CongestionWindow)),
		SegmentSizes:     traffic.Describe(traffic.RemoveOutliers(f.SegmentSizes, ignoreZeroOutliers)),
		Report:           f.Report,
	}

	for id, points := range f.CongestionWindow {
		summary.CongestionWindow[id] = summarizeWindow(points)
	}
	return summary
}

func summarizeWindow(points []WindowPoint) WindowSummary {
	if len(points) == 0 {
		return WindowSummary{}
	}
	var sum, peak float64
	for i, point := range points {
		sum += point.Estimate
		if i == 0 || point.Estimate > peak {
			peak = point.Estimate
		}
	}
	return WindowSummary{
		Samples: len(points),
		Mean:    sum / float64(len(points)),
		Max:     peak,
		Last:    points[len(points)-1].Estimate,
	}
}
