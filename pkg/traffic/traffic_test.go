package traffic

import (
	"strconv"
	"testing"
	"time"

	"github.com/DaviCMachado/T2-Redes/pkg/flow"
	"github.com/DaviCMachado/T2-Redes/pkg/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(ts float64, srcIP string, dstIP string, dstPort int, length float64) *packet.Record {
	stamp, _ := packet.ParseTimestamp(strconv.FormatFloat(ts, 'f', -1, 64))
	return &packet.Record{
		Timestamp: stamp,
		SrcIP:     srcIP,
		SrcPort:   40000,
		DstIP:     dstIP,
		DstPort:   dstPort,
		Protocol:  "TCP",
		Length:    packet.Optional{Value: length, Valid: true},
		MSS:       packet.MSSUnset,
		ConnID:    packet.NewConnectionID(srcIP, 40000, dstIP, dstPort),
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	testCases := []struct {
		p   float64
		out float64
		msg string
	}{
		{0, 1, "minimum"},
		{100, 4, "maximum"},
		{50, 2.5, "interpolated median"},
		{25, 1.75, "interpolated first quartile"},
		{90, 3.7, "interpolated ninetieth"},
	}
	for _, testCase := range testCases {
		assert.InDelta(t, testCase.out, Percentile(sorted, testCase.p), 1e-9, testCase.msg)
	}
	assert.Equal(t, 0.0, Percentile(nil, 50))
	assert.Equal(t, 7.0, Percentile([]float64{7}, 99))
}

func TestDescribe(t *testing.T) {
	dist := Describe([]float64{4, 1, 3, 2})
	assert.Equal(t, 4, dist.Count)
	assert.Equal(t, 1.0, dist.Min)
	assert.Equal(t, 4.0, dist.Max)
	assert.Equal(t, 2.5, dist.Mean)
	assert.Equal(t, 2.5, dist.Median)
	assert.InDelta(t, 1.118033988749895, dist.StdDev, 1e-12)

	assert.Equal(t, Distribution{}, Describe(nil))
}

func TestDescribePercentileOrdering(t *testing.T) {
	inputs := [][]float64{
		{60},
		{60, 1500},
		{60, 60, 60, 1500, 1500, 52, 40, 9000, 576, 1200, 1460},
		{0, 0, 0, 0, 1},
	}
	for _, values := range inputs {
		dist := Describe(values)
		assert.LessOrEqual(t, dist.Min, dist.P25)
		assert.LessOrEqual(t, dist.P25, dist.Median)
		assert.LessOrEqual(t, dist.Median, dist.P75)
		assert.LessOrEqual(t, dist.P75, dist.P90)
		assert.LessOrEqual(t, dist.P90, dist.P95)
		assert.LessOrEqual(t, dist.P95, dist.P99)
		assert.LessOrEqual(t, dist.P99, dist.Max)
	}
}

func TestRemoveOutliers(t *testing.T) {
	testCases := []struct {
		in          []float64
		ignoreZeros bool
		out         []float64
		msg         string
	}{
		{
			[]float64{10, 11, 12, 13, 1000}, false,
			[]float64{10, 11, 12, 13}, "drops the high outlier",
		},
		{
			[]float64{0, 0, 0}, true,
			[]float64{0, 0, 0}, "nothing positive returns the input",
		},
		{
			[]float64{0, 10, 11, 12, 13}, true,
			[]float64{10, 11, 12, 13}, "zeros outside the positive range are dropped",
		},
		{
			[]float64{0, 10, 11, 12, 13, 1000}, false,
			[]float64{0, 10, 11, 12, 13}, "zeros are kept without ignoreZeros",
		},
		{
			nil, false,
			nil, "empty",
		},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.out, RemoveOutliers(testCase.in, testCase.ignoreZeros), testCase.msg)
	}
}

func TestElephantFlows(t *testing.T) {
	records := []*packet.Record{
		newRecord(1, "10.0.0.1", "10.0.0.9", 80, 100),
		newRecord(2, "10.0.0.2", "10.0.0.9", 80, 500),
		newRecord(3, "10.0.0.3", "10.0.0.9", 80, 300),
		newRecord(4, "10.0.0.3", "10.0.0.9", 80, 200),
		newRecord(5, "10.0.0.4", "10.0.0.9", 80, 100),
	}
	table := flow.Group(records)

	ranked := ElephantFlows(table, 3)
	require.Len(t, ranked, 3)
	assert.Equal(t, packet.ConnectionID("10.0.0.2:40000 <-> 10.0.0.9:80"), ranked[0].Connection)
	assert.Equal(t, 500.0, ranked[0].Bytes)
	assert.Equal(t, packet.ConnectionID("10.0.0.3:40000 <-> 10.0.0.9:80"), ranked[1].Connection)
	assert.Equal(t, 500.0, ranked[1].Bytes)
	assert.Equal(t, packet.ConnectionID("10.0.0.1:40000 <-> 10.0.0.9:80"), ranked[2].Connection)

	all := ElephantFlows(table, 0)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].Bytes, all[i].Bytes)
		if all[i-1].Bytes == all[i].Bytes {
			assert.Less(t, string(all[i-1].Connection), string(all[i].Connection))
		}
	}
}

func TestMicroburstsAndPacketsPerSecond(t *testing.T) {
	records := []*packet.Record{
		newRecord(10.1, "a", "b", 1, 1),
		newRecord(10.9, "a", "b", 1, 1),
		newRecord(12.0, "a", "b", 1, 1),
		newRecord(12.5, "a", "b", 1, 1),
		newRecord(11.2, "a", "b", 1, 1),
		newRecord(13.0, "a", "b", 1, 1),
	}

	perSecond := PacketsPerSecond(records)
	require.Len(t, perSecond, 4)
	assert.Equal(t, time.Unix(10, 0).UTC(), perSecond[0].Bucket)
	assert.Equal(t, 2, perSecond[0].Packets)
	assert.Equal(t, time.Unix(11, 0).UTC(), perSecond[1].Bucket)
	assert.Equal(t, 1, perSecond[1].Packets)

	bursts := Microbursts(records, 3)
	require.Len(t, bursts, 3)
	assert.Equal(t, BucketCount{Bucket: time.Unix(10, 0).UTC(), Packets: 2}, bursts[0])
	assert.Equal(t, BucketCount{Bucket: time.Unix(12, 0).UTC(), Packets: 2}, bursts[1])
	assert.Equal(t, BucketCount{Bucket: time.Unix(11, 0).UTC(), Packets: 1}, bursts[2])

	assert.Empty(t, Microbursts(nil, 10))
}

func TestTrafficPerMinute(t *testing.T) {
	records := []*packet.Record{
		newRecord(125, "a", "b", 1, 10),
		newRecord(61, "a", "b", 1, 20),
		newRecord(119.9, "a", "b", 1, 30),
	}
	volumes := TrafficPerMinute(records)
	assert.Equal(t, []BucketVolume{
		{Bucket: time.Unix(60, 0).UTC(), Bytes: 50},
		{Bucket: time.Unix(120, 0).UTC(), Bytes: 10},
	}, volumes)
}

func TestTopDestinations(t *testing.T) {
	records := []*packet.Record{
		newRecord(1, "a", "10.0.0.2", 443, 1),
		newRecord(2, "a", "10.0.0.2", 443, 1),
		newRecord(3, "a", "10.0.0.1", 80, 1),
		newRecord(4, "a", "10.0.0.3", 22, 1),
		newRecord(5, "a", "", 22, 1),
	}

	ports := TopDestinationPorts(records, 10)
	assert.Equal(t, []KeyCount{{"22", 2}, {"443", 2}, {"80", 1}}, ports)

	ips := TopDestinationIPs(records, 2)
	assert.Equal(t, []KeyCount{{"10.0.0.2", 2}, {"10.0.0.1", 1}}, ips)
}

func TestActivityHeatmap(t *testing.T) {
	records := []*packet.Record{
		newRecord(0, "10.0.0.2", "x", 1, 1),
		newRecord(30, "10.0.0.2", "x", 1, 1),
		newRecord(65, "10.0.0.1", "x", 1, 1),
		newRecord(70, "10.0.0.2", "x", 1, 1),
		newRecord(130, "10.0.0.3", "x", 1, 1),
	}

	heatmap := ActivityHeatmap(records, 2)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, heatmap.IPs)
	assert.Equal(t, []time.Time{time.Unix(0, 0).UTC(), time.Unix(60, 0).UTC()}, heatmap.Buckets)
	assert.Equal(t, [][]int{{0, 1}, {2, 1}}, heatmap.Counts)

	empty := ActivityHeatmap(nil, 10)
	assert.Empty(t, empty.IPs)
	assert.Empty(t, empty.Buckets)
}

func TestProtocolCounts(t *testing.T) {
	records := []*packet.Record{
		{Protocol: "TCP"}, {Protocol: "UDP"}, {Protocol: "TCP"},
	}
	assert.Equal(t, map[string]int{"TCP": 2, "UDP": 1}, ProtocolCounts(records))
}
