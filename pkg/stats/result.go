package stats

import "github.com/DaviCMachado/T2-Redes/pkg/traffic"

// Keys of the statistics documents. Full and Summary share the same key set.
const (
	KeyCongestionWindow   = "congestion-window-estimate"
	KeyRTT                = "rtt-by-connection"
	KeyEstablishmentTimes = "establishment-times"
	KeyRetransmissionRate = "retransmission-rate-by-ip"
	KeyDuration           = "connection-duration"
	KeyThroughput         = "throughput-by-connection"
	KeySegmentSizes       = "segment-sizes"
	KeyPacketSizes        = "packet-size-distribution"
	KeyMSS                = "mss-by-connection"
	KeyElephantFlows      = "elephant-flows"
	KeyMicrobursts        = "microbursts"
	KeyTopPorts           = "top-destination-ports"
	KeyTopIPs             = "top-destination-ips"
	KeyPacketsPerSecond   = "packets-per-second"
	KeyTrafficPerMinute   = "traffic-per-minute"
	KeyHeatmap            = "ip-activity-heatmap"
	KeyProtocolCounts     = "protocol-counts"
)

// Keys lists every document key
var Keys = []string{
	KeyCongestionWindow, KeyRTT, KeyEstablishmentTimes, KeyRetransmissionRate,
	KeyDuration, KeyThroughput, KeySegmentSizes, KeyPacketSizes, KeyMSS,
	KeyElephantFlows, KeyMicrobursts, KeyTopPorts, KeyTopIPs,
	KeyPacketsPerSecond, KeyTrafficPerMinute, KeyHeatmap, KeyProtocolCounts,
}

type (
	// WindowPoint is one congestion window estimate. The estimate is the
	// trailing mean of packet inter-arrival times in seconds, a pacing proxy
	// rather than the sender's real congestion window.
	WindowPoint struct {
		Timestamp string  `json:"timestamp" bson:"timestamp"`
		Estimate  float64 `json:"estimate" bson:"estimate"`
	}

	// WindowSummary condenses the congestion window estimate of one connection
	WindowSummary struct {
		Samples int     `json:"samples" bson:"samples"`
		Mean    float64 `json:"mean" bson:"mean"`
		Max     float64 `json:"max" bson:"max"`
		Last    float64 `json:"last" bson:"last"`
	}

	// FlowVolume ranks a connection by bytes transferred
	FlowVolume struct {
		Connection string  `json:"connection" bson:"connection"`
		Bytes      float64 `json:"bytes" bson:"bytes"`
	}

	// BucketCount is a packet count for a time bucket
	BucketCount struct {
		Timestamp string `json:"timestamp" bson:"timestamp"`
		Packets   int    `json:"packets" bson:"packets"`
	}

	// BucketVolume is a byte count for a time bucket
	BucketVolume struct {
		Timestamp string  `json:"timestamp" bson:"timestamp"`
		Bytes     float64 `json:"bytes" bson:"bytes"`
	}

	// PortCount ranks a destination port
	PortCount struct {
		Port    int `json:"port" bson:"port"`
		Packets int `json:"packets" bson:"packets"`
	}

	// IPCount ranks a destination address
	IPCount struct {
		IP      string `json:"ip" bson:"ip"`
		Packets int    `json:"packets" bson:"packets"`
	}

	// Heatmap is a packet count matrix. Counts[i][j] belongs to IPs[i]
	// during the minute starting at Buckets[j].
	Heatmap struct {
		IPs     []string `json:"ips" bson:"ips"`
		Buckets []string `json:"buckets" bson:"buckets"`
		Counts  [][]int  `json:"counts" bson:"counts"`
	}

	// Report holds the keys whose shape is the same in both documents.
	// Per-connection maps are keyed by connection id, except the
	// retransmission rate which is keyed by source address.
	Report struct {
		RTT                map[string]float64   `json:"rtt-by-connection"`
		EstablishmentTimes map[string]float64   `json:"establishment-times"`
		RetransmissionRate map[string]float64   `json:"retransmission-rate-by-ip"`
		Duration           map[string]float64   `json:"connection-duration"`
		Throughput         map[string]float64   `json:"throughput-by-connection"`
		PacketSizes        traffic.Distribution `json:"packet-size-distribution"`
		MSS                map[string]float64   `json:"mss-by-connection"`
		ElephantFlows      []FlowVolume         `json:"elephant-flows"`
		Microbursts        []BucketCount        `json:"microbursts"`
		TopPorts           []PortCount          `json:"top-destination-ports"`
		TopIPs             []IPCount            `json:"top-destination-ips"`
		PacketsPerSecond   []BucketCount        `json:"packets-per-second"`
		TrafficPerMinute   []BucketVolume       `json:"traffic-per-minute"`
		Heatmap            Heatmap              `json:"ip-activity-heatmap"`
		ProtocolCounts     map[string]int       `json:"protocol-counts"`
	}

	// Full is the complete statistics document of a run. It keeps the per
	// packet lists needed for detailed plots.
	Full struct {
		CongestionWindow map[string][]WindowPoint `json:"congestion-window-estimate"`
		SegmentSizes     []float64                `json:"segment-sizes"`
		Report
	}

	// Summary is the reduced document. It carries the same keys as Full but
	// replaces the per packet lists: segment sizes become an outlier
	// filtered distribution and each congestion window series becomes a
	// WindowSummary.
	Summary struct {
		CongestionWindow map[string]WindowSummary `json:"congestion-window-estimate"`
		SegmentSizes     traffic.Distribution     `json:"segment-sizes"`
		Report
	}
)
