package traffic

import (
	"sort"
	"time"

	"github.com/DaviCMachado/T2-Redes/pkg/packet"
	"github.com/DaviCMachado/T2-Redes/util"
)

// Heatmap counts the packets each of the busiest source addresses sent per
// minute. Counts[i][j] belongs to IPs[i] and Buckets[j].
type Heatmap struct {
	IPs     []string
	Buckets []time.Time
	Counts  [][]int
}

// ActivityHeatmap builds the packet count matrix of the n most active
// source addresses. Both axes are sorted ascending. Only minutes in which
// one of the selected addresses was active become columns.
func ActivityHeatmap(records []*packet.Record, n int) Heatmap {
	perIP := make(map[string]int)
	for _, record := range records {
		if record.SrcIP == "" {
			continue
		}
		perIP[record.SrcIP]++
	}

	top := rankKeys(perIP, n)
	ips := make([]string, 0, len(top))
	rows := make(map[string]int, len(top))
	for _, entry := range top {
		ips = append(ips, entry.Key)
	}
	sort.Strings(ips)
	for i, ip := range ips {
		rows[ip] = i
	}

	cells := make(map[string]map[int64]int, len(ips))
	bucketSet := make(map[int64]struct{})
	for _, record := range records {
		if _, ok := rows[record.SrcIP]; !ok {
			continue
		}
		bucket := util.FloorTime(record.Timestamp, time.Minute).UnixNano()
		if cells[record.SrcIP] == nil {
			cells[record.SrcIP] = make(map[int64]int)
		}
		cells[record.SrcIP][bucket]++
		bucketSet[bucket] = struct{}{}
	}

	bucketNanos := make([]int64, 0, len(bucketSet))
	for bucket := range bucketSet {
		bucketNanos = append(bucketNanos, bucket)
	}
	sort.Slice(bucketNanos, func(i, j int) bool { return bucketNanos[i] < bucketNanos[j] })

	heatmap := Heatmap{
		IPs:     ips,
		Buckets: make([]time.Time, len(bucketNanos)),
		Counts:  make([][]int, len(ips)),
	}
	for j, bucket := range bucketNanos {
		heatmap.Buckets[j] = time.Unix(0, bucket).UTC()
	}
	for i, ip := range ips {
		heatmap.Counts[i] = make([]int, len(bucketNanos))
		for j, bucket := range bucketNanos {
			heatmap.Counts[i][j] = cells[ip][bucket]
		}
	}
	return heatmap
}
