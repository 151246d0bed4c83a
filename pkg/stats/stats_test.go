package stats

import (
	"bytes"
	"errors"
	"path"
	"sort"
	"testing"

	"github.com/DaviCMachado/T2-Redes/parser/parsetypes"
	"github.com/DaviCMachado/T2-Redes/pkg/packet"
	"github.com/DaviCMachado/T2-Redes/pkg/traffic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalizeRows(t *testing.T, rows []parsetypes.PacketRow) []*packet.Record {
	var records []*packet.Record
	for _, row := range rows {
		record, ok := packet.Normalize(row)
		if ok {
			records = append(records, record)
		}
	}
	return records
}

func handshakeRows() []parsetypes.PacketRow {
	return []parsetypes.PacketRow{
		{Timestamp: "100.0", SrcIP: "A", SrcPort: "1", DstIP: "B", DstPort: "2", Protocol: "TCP", Length: "60", Flags: "S", Seq: "1", MSS: "1460"},
		{Timestamp: "100.05", SrcIP: "B", SrcPort: "2", DstIP: "A", DstPort: "1", Protocol: "TCP", Length: "60", Flags: "SA", Seq: "9", MSS: "1400"},
	}
}

func sampleRows() []parsetypes.PacketRow {
	rows := handshakeRows()
	rows = append(rows,
		parsetypes.PacketRow{Timestamp: "100.2", SrcIP: "A", SrcPort: "1", DstIP: "B", DstPort: "2", Protocol: "TCP", Length: "52", Flags: "A", Seq: "2", MSS: "-1"},
		parsetypes.PacketRow{Timestamp: "101.0", SrcIP: "A", SrcPort: "1", DstIP: "B", DstPort: "2", Protocol: "TCP", Length: "1500", Flags: "PA", Seq: "2", MSS: "-1"},
		parsetypes.PacketRow{Timestamp: "bogus", SrcIP: "A", SrcPort: "1", DstIP: "B", DstPort: "2", Protocol: "TCP", Length: "9999", Flags: "PA", Seq: "3"},
		parsetypes.PacketRow{Timestamp: "130.5", SrcIP: "C", SrcPort: "5000", DstIP: "B", DstPort: "443", Protocol: "TCP", Length: "400", Flags: "PA", Seq: "77"},
		parsetypes.PacketRow{Timestamp: "131.0", SrcIP: "C", SrcPort: "5353", DstIP: "D", DstPort: "53", Protocol: "UDP", Length: "80"},
	)
	return rows
}

func TestAnalyzeHandshakeScenario(t *testing.T) {
	full, err := Analyze(normalizeRows(t, handshakeRows()), DefaultOptions())
	require.Nil(t, err)

	assert.Equal(t, map[string]float64{"A:1 <-> B:2": 0.05}, full.RTT)
	assert.Empty(t, full.EstablishmentTimes)
	assert.Equal(t, map[string]float64{"A:1 <-> B:2": 1400}, full.MSS)
	require.Len(t, full.CongestionWindow["A:1 <-> B:2"], 2)
	assert.Equal(t, "1970-01-01 00:01:40.050000", full.CongestionWindow["A:1 <-> B:2"][1].Timestamp)
}

func TestAnalyzeDropsBadTimestamp(t *testing.T) {
	records := normalizeRows(t, sampleRows())
	require.Len(t, records, 6)

	full, err := Analyze(records, DefaultOptions())
	require.Nil(t, err)

	// the 9999 byte row never made it in
	assert.Equal(t, []float64{60, 60, 52, 1500, 400}, full.SegmentSizes)
	assert.Equal(t, 5, full.PacketSizes.Count)
	assert.Equal(t, 1500.0, full.PacketSizes.Max)

	assert.Equal(t, map[string]int{"TCP": 5, "UDP": 1}, full.ProtocolCounts)
	assert.InDelta(t, 0.2, full.EstablishmentTimes["A:1 <-> B:2"], 1e-9)
	assert.InDelta(t, 1.0, full.Duration["A:1 <-> B:2"], 1e-9)
	assert.InDelta(t, 1672.0, full.Throughput["A:1 <-> B:2"], 1e-6)
	assert.Equal(t, 0.0, full.Throughput["B:443 <-> C:5000"])

	// A sent seq 2 twice
	assert.Equal(t, map[string]float64{"A": 2.0 / 3.0, "B": 0, "C": 0}, full.RetransmissionRate)

	require.Len(t, full.ElephantFlows, 2)
	assert.Equal(t, FlowVolume{Connection: "A:1 <-> B:2", Bytes: 1672}, full.ElephantFlows[0])

	assert.Equal(t, []PortCount{{Port: 2, Packets: 3}, {Port: 1, Packets: 1}, {Port: 443, Packets: 1}}, full.TopPorts)
	assert.Equal(t, []IPCount{{IP: "B", Packets: 4}, {IP: "A", Packets: 1}}, full.TopIPs)

	assert.Equal(t, []BucketVolume{
		{Timestamp: "1970-01-01 00:01:00.000000", Bytes: 1672},
		{Timestamp: "1970-01-01 00:02:00.000000", Bytes: 400},
	}, full.TrafficPerMinute)

	assert.Equal(t, []string{"A", "B", "C"}, full.Heatmap.IPs)
	assert.Equal(t, [][]int{{3, 0}, {1, 0}, {0, 1}}, full.Heatmap.Counts)

	assert.Equal(t, BucketCount{Timestamp: "1970-01-01 00:01:40.000000", Packets: 3}, full.Microbursts[0])
}

func TestAnalyzeNoPackets(t *testing.T) {
	records := normalizeRows(t, []parsetypes.PacketRow{
		{Timestamp: "1", SrcIP: "A", DstIP: "B", Protocol: "UDP"},
	})
	_, err := Analyze(records, DefaultOptions())
	assert.True(t, errors.Is(err, ErrNoPackets))

	_, err = Analyze(nil, DefaultOptions())
	assert.True(t, errors.Is(err, ErrNoPackets))
}

func TestAnalyzeProgress(t *testing.T) {
	var out bytes.Buffer
	opts := DefaultOptions()
	opts.Progress = &out
	full, err := Analyze(normalizeRows(t, sampleRows()), opts)
	require.Nil(t, err)
	assert.Len(t, full.Duration, 2)
}

func TestSummary(t *testing.T) {
	full, err := Analyze(normalizeRows(t, sampleRows()), DefaultOptions())
	require.Nil(t, err)

	summary := full.Summary(true)
	window := summary.CongestionWindow["A:1 <-> B:2"]
	assert.Equal(t, 4, window.Samples)
	assert.Equal(t, full.CongestionWindow["A:1 <-> B:2"][3].Estimate, window.Last)
	assert.GreaterOrEqual(t, window.Max, window.Mean)

	assert.Equal(t, traffic.Describe(traffic.RemoveOutliers(full.SegmentSizes, true)), summary.SegmentSizes)
	assert.Equal(t, full.RTT, summary.RTT)
	assert.Equal(t, full.ElephantFlows, summary.ElephantFlows)
}

func keysOf(t *testing.T, v interface{}) []string {
	var buf bytes.Buffer
	require.Nil(t, Encode(&buf, v, false))

	var doc map[string]interface{}
	require.Nil(t, json.Unmarshal(buf.Bytes(), &doc))

	var keys []string
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func TestDocumentKeys(t *testing.T) {
	full, err := Analyze(normalizeRows(t, handshakeRows()), DefaultOptions())
	require.Nil(t, err)

	expected := append([]string{}, Keys...)
	sort.Strings(expected)

	assert.Equal(t, expected, keysOf(t, full))
	assert.Equal(t, expected, keysOf(t, full.Summary(false)))
}

func TestRoundTrip(t *testing.T) {
	full, err := Analyze(normalizeRows(t, sampleRows()), DefaultOptions())
	require.Nil(t, err)

	dir := t.TempDir()
	fullPath := path.Join(dir, "out", "stats_full.json")
	summaryPath := path.Join(dir, "out", "stats_summary.json")
	require.Nil(t, WriteFile(fullPath, full, true))
	require.Nil(t, WriteFile(summaryPath, full.Summary(true), false))

	loaded, err := ReadFull(fullPath)
	require.Nil(t, err)
	assert.Equal(t, full, loaded)

	summary, err := ReadSummary(summaryPath)
	require.Nil(t, err)
	assert.Equal(t, full.Summary(true), summary)

	report, err := ReadReport(fullPath)
	require.Nil(t, err)
	assert.Equal(t, full.Report, *report)

	_, err = ReadFull(path.Join(dir, "missing.json"))
	assert.NotNil(t, err)
}

func TestEncodeDeterministic(t *testing.T) {
	var first, second bytes.Buffer
	a, err := Analyze(normalizeRows(t, sampleRows()), DefaultOptions())
	require.Nil(t, err)
	b, err := Analyze(normalizeRows(t, sampleRows()), DefaultOptions())
	require.Nil(t, err)

	require.Nil(t, Encode(&first, a, true))
	require.Nil(t, Encode(&second, b, true))
	assert.Equal(t, first.String(), second.String())
}
