package stats

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/DaviCMachado/T2-Redes/config"
	"github.com/DaviCMachado/T2-Redes/pkg/flow"
	"github.com/DaviCMachado/T2-Redes/pkg/packet"
	"github.com/DaviCMachado/T2-Redes/pkg/tcpstat"
	"github.com/DaviCMachado/T2-Redes/pkg/traffic"
	"github.com/DaviCMachado/T2-Redes/util"
	"github.com/vbauerster/mpb"
	"github.com/vbauerster/mpb/decor"
)

// ErrNoPackets is returned when no record was captured with the analyzed
// protocol
var ErrNoPackets = errors.New("no packets of the analyzed protocol")

// Options tunes a single analysis run
type Options struct {
	// Protocol selects the records the connection metrics are computed on
	Protocol string
	// WindowSize is the number of inter-arrival deltas in each
	// congestion window sample
	WindowSize int
	// TopN bounds every ranking
	TopN int
	// HeatmapIPs is the number of source addresses in the heatmap
	HeatmapIPs int
	// Progress receives a progress bar for the per connection metrics.
	// No bar is drawn when it is nil.
	Progress io.Writer
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		Protocol:   "TCP",
		WindowSize: tcpstat.DefaultWindow,
		TopN:       traffic.DefaultTopN,
		HeatmapIPs: traffic.DefaultTopN,
	}
}

// NewOptions reads the analysis section of the configuration
func NewOptions(conf *config.Config) Options {
	return Options{
		Protocol:   conf.S.Analysis.Protocol,
		WindowSize: conf.S.Analysis.WindowSize,
		TopN:       conf.S.Analysis.TopN,
		HeatmapIPs: conf.S.Analysis.HeatmapIPs,
	}
}

func (o Options) withDefaults() Options {
	defaults := DefaultOptions()
	if o.Protocol == "" {
		o.Protocol = defaults.Protocol
	}
	if o.WindowSize <= 0 {
		o.WindowSize = defaults.WindowSize
	}
	if o.TopN <= 0 {
		o.TopN = defaults.TopN
	}
	if o.HeatmapIPs <= 0 {
		o.HeatmapIPs = defaults.HeatmapIPs
	}
	return o
}

func newFull() *Full {
	return &Full{
		CongestionWindow: make(map[string][]WindowPoint),
		SegmentSizes:     []float64{},
		Report: Report{
			RTT:                make(map[string]float64),
			EstablishmentTimes: make(map[string]float64),
			RetransmissionRate: make(map[string]float64),
			Duration:           make(map[string]float64),
			Throughput:         make(map[string]float64),
			MSS:                make(map[string]float64),
			ElephantFlows:      []FlowVolume{},
			Microbursts:        []BucketCount{},
			TopPorts:           []PortCount{},
			TopIPs:             []IPCount{},
			PacketsPerSecond:   []BucketCount{},
			TrafficPerMinute:   []BucketVolume{},
			Heatmap:            Heatmap{IPs: []string{}, Buckets: []string{}, Counts: [][]int{}},
			ProtocolCounts:     make(map[string]int),
		},
	}
}

// Analyze computes the full statistics document for a dataset. Protocol
// counts cover every record while every other key only considers records of
// the configured protocol. The records are not modified and no state is
// kept between calls.
func Analyze(records []*packet.Record, opts Options) (*Full, error) {
	opts = opts.withDefaults()

	matched := packet.FilterProtocol(records, opts.Protocol)
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPackets, opts.Protocol)
	}

	full := newFull()
	table := flow.Group(matched)

	extractFlowMetrics(table, opts, full)

	full.RetransmissionRate = tcpstat.DetectRetransmissions(matched).RateByIP()

	for _, record := range matched {
		if record.Length.Valid {
			full.SegmentSizes = append(full.SegmentSizes, record.Length.Value)
		}
	}
	full.PacketSizes = traffic.Describe(full.SegmentSizes)

	for _, volume := range traffic.ElephantFlows(table, opts.TopN) {
		full.ElephantFlows = append(full.ElephantFlows, FlowVolume{
			Connection: string(volume.Connection),
			Bytes:      volume.Bytes,
		})
	}

	full.Microbursts = bucketCounts(traffic.Microbursts(matched, opts.TopN))
	full.PacketsPerSecond = bucketCounts(traffic.PacketsPerSecond(matched))

	for _, volume := range traffic.TrafficPerMinute(matched) {
		full.TrafficPerMinute = append(full.TrafficPerMinute, BucketVolume{
			Timestamp: util.FormatTimestamp(volume.Bucket),
			Bytes:     volume.Bytes,
		})
	}

	for _, entry := range traffic.TopDestinationPorts(matched, opts.TopN) {
		port, _ := strconv.Atoi(entry.Key)
		full.TopPorts = append(full.TopPorts, PortCount{Port: port, Packets: entry.Count})
	}
	for _, entry := range traffic.TopDestinationIPs(matched, opts.TopN) {
		full.TopIPs = append(full.TopIPs, IPCount{IP: entry.Key, Packets: entry.Count})
	}

	heatmap := traffic.ActivityHeatmap(matched, opts.HeatmapIPs)
	full.Heatmap.IPs = append(full.Heatmap.IPs, heatmap.IPs...)
	for _, bucket := range heatmap.Buckets {
		full.Heatmap.Buckets = append(full.Heatmap.Buckets, util.FormatTimestamp(bucket))
	}
	full.Heatmap.Counts = append(full.Heatmap.Counts, heatmap.Counts...)

	full.ProtocolCounts = traffic.ProtocolCounts(records)

	return full, nil
}

// extractFlowMetrics fills the per connection keys of full
func extractFlowMetrics(table *flow.Table, opts Options, full *Full) {
	var bar *mpb.Bar
	var p *mpb.Progress
	if opts.Progress != nil {
		p = mpb.New(mpb.WithWidth(20), mpb.WithOutput(opts.Progress))
		bar = p.AddBar(int64(table.Len()),
			mpb.PrependDecorators(
				decor.Name("\t[-] Connection Metrics:", decor.WC{W: 30, C: decor.DidentRight}),
				decor.CountersNoUnit(" %d / %d ", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
	}

	for _, f := range table.Flows() {
		start := time.Now()
		id := string(f.ID)

		samples := tcpstat.CongestionWindow(f, opts.WindowSize)
		points := make([]WindowPoint, 0, len(samples))
		for _, sample := range samples {
			points = append(points, WindowPoint{
				Timestamp: util.FormatTimestamp(sample.Timestamp),
				Estimate:  sample.Estimate,
			})
		}
		full.CongestionWindow[id] = points

		if rtt, ok := tcpstat.RTT(f); ok {
			full.RTT[id] = rtt
		}
		if est, ok := tcpstat.EstablishmentTime(f); ok {
			full.EstablishmentTimes[id] = est
		}
		full.Duration[id] = tcpstat.Duration(f)
		full.Throughput[id] = tcpstat.Throughput(f)
		if mss, ok := tcpstat.MSS(f); ok {
			full.MSS[id] = mss
		}

		if bar != nil {
			bar.IncrBy(1, time.Since(start))
		}
	}

	if p != nil {
		p.Wait()
	}
}

func bucketCounts(buckets []traffic.BucketCount) []BucketCount {
	counts := make([]BucketCount, 0, len(buckets))
	for _, bucket := range buckets {
		counts = append(counts, BucketCount{
			Timestamp: util.FormatTimestamp(bucket.Bucket),
			Packets:   bucket.Packets,
		})
	}
	return counts
}
