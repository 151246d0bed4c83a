package traffic

import (
	"sort"
	"strconv"
	"time"

	"github.com/DaviCMachado/T2-Redes/pkg/flow"
	"github.com/DaviCMachado/T2-Redes/pkg/packet"
	"github.com/DaviCMachado/T2-Redes/util"
)

// DefaultTopN is the length of every ranking unless configured otherwise
const DefaultTopN = 10

type (
	// FlowVolume is the number of bytes a connection transferred
	FlowVolume struct {
		Connection packet.ConnectionID
		Bytes      float64
	}

	// BucketCount is the number of packets seen in a time bucket
	BucketCount struct {
		Bucket  time.Time
		Packets int
	}

	// BucketVolume is the number of bytes seen in a time bucket
	BucketVolume struct {
		Bucket time.Time
		Bytes  float64
	}

	// KeyCount is how often a port or address was seen as a destination
	KeyCount struct {
		Key   string
		Count int
	}
)

func limit(n, length int) int {
	if n <= 0 {
		n = DefaultTopN
	}
	return util.Min(n, length)
}

// ElephantFlows ranks connections by bytes transferred, largest first.
// Ties are ordered by connection id.
func ElephantFlows(table *flow.Table, n int) []FlowVolume {
	volumes := make([]FlowVolume, 0, table.Len())
	for _, f := range table.Flows() {
		volumes = append(volumes, FlowVolume{Connection: f.ID, Bytes: f.Bytes()})
	}

	// table.Flows is ordered by id so a stable sort keeps ties ascending
	sort.SliceStable(volumes, func(i, j int) bool {
		return volumes[i].Bytes > volumes[j].Bytes
	})
	return volumes[:limit(n, len(volumes))]
}

// countBuckets tallies records per floored timestamp
func countBuckets(records []*packet.Record, width time.Duration) []BucketCount {
	counts := make(map[int64]int)
	for _, record := range records {
		counts[util.FloorTime(record.Timestamp, width).UnixNano()]++
	}

	buckets := make([]BucketCount, 0, len(counts))
	for nanos, count := range counts {
		buckets = append(buckets, BucketCount{Bucket: time.Unix(0, nanos).UTC(), Packets: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Bucket.Before(buckets[j].Bucket)
	})
	return buckets
}

// PacketsPerSecond counts packets per one second bucket in time order
func PacketsPerSecond(records []*packet.Record) []BucketCount {
	return countBuckets(records, time.Second)
}

// Microbursts returns the n busiest one second buckets. Buckets with the
// same count are ordered by time.
func Microbursts(records []*packet.Record, n int) []BucketCount {
	buckets := PacketsPerSecond(records)
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Packets > buckets[j].Packets
	})
	return buckets[:limit(n, len(buckets))]
}

// TrafficPerMinute sums bytes per one minute bucket in time order
func TrafficPerMinute(records []*packet.Record) []BucketVolume {
	volumes := make(map[int64]float64)
	for _, record := range records {
		volumes[util.FloorTime(record.Timestamp, time.Minute).UnixNano()] += record.Length.Value
	}

	buckets := make([]BucketVolume, 0, len(volumes))
	for nanos, bytes := range volumes {
		buckets = append(buckets, BucketVolume{Bucket: time.Unix(0, nanos).UTC(), Bytes: bytes})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Bucket.Before(buckets[j].Bucket)
	})
	return buckets
}

// rankKeys orders counted keys by count, largest first, then by key
func rankKeys(counts map[string]int, n int) []KeyCount {
	ranked := make([]KeyCount, 0, len(counts))
	for key, count := range counts {
		ranked = append(ranked, KeyCount{Key: key, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Key < ranked[j].Key
	})
	return ranked[:limit(n, len(ranked))]
}

// TopDestinationPorts ranks destination ports by packet count
func TopDestinationPorts(records []*packet.Record, n int) []KeyCount {
	counts := make(map[string]int)
	for _, record := range records {
		counts[strconv.Itoa(record.DstPort)]++
	}
	return rankKeys(counts, n)
}

// TopDestinationIPs ranks destination addresses by packet count. Records
// without a destination address are not counted.
func TopDestinationIPs(records []*packet.Record, n int) []KeyCount {
	counts := make(map[string]int)
	for _, record := range records {
		if record.DstIP == "" {
			continue
		}
		counts[record.DstIP]++
	}
	return rankKeys(counts, n)
}

// ProtocolCounts counts records per protocol name
func ProtocolCounts(records []*packet.Record) map[string]int {
	counts := make(map[string]int)
	for _, record := range records {
		counts[record.Protocol]++
	}
	return counts
}
