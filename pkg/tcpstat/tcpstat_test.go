package tcpstat

import (
	"strconv"
	"testing"

	"github.com/DaviCMachado/T2-Redes/pkg/flow"
	"github.com/DaviCMachado/T2-Redes/pkg/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPacket struct {
	ts      float64
	srcIP   string
	srcPort int
	dstIP   string
	dstPort int
	flags   string
	length  float64
	mss     float64
}

func (p testPacket) record() *packet.Record {
	stamp, _ := packet.ParseTimestamp(strconv.FormatFloat(p.ts, 'f', -1, 64))
	mss := p.mss
	if mss == 0 {
		mss = packet.MSSUnset
	}
	return &packet.Record{
		Timestamp: stamp,
		SrcIP:     p.srcIP,
		SrcPort:   p.srcPort,
		DstIP:     p.dstIP,
		DstPort:   p.dstPort,
		Protocol:  "TCP",
		Flags:     packet.ParseFlags(p.flags),
		Length:    packet.Optional{Value: p.length, Valid: true},
		MSS:       mss,
		ConnID:    packet.NewConnectionID(p.srcIP, p.srcPort, p.dstIP, p.dstPort),
	}
}

func buildFlow(t *testing.T, packets ...testPacket) *flow.Flow {
	var records []*packet.Record
	for _, p := range packets {
		records = append(records, p.record())
	}
	table := flow.Group(records)
	require.Equal(t, 1, table.Len())
	return table.Flows()[0]
}

func TestHandshakeScenario(t *testing.T) {
	f := buildFlow(t,
		testPacket{ts: 100.0, srcIP: "A", srcPort: 1, dstIP: "B", dstPort: 2, flags: "S"},
		testPacket{ts: 100.05, srcIP: "B", srcPort: 2, dstIP: "A", dstPort: 1, flags: "SA"},
	)
	assert.Equal(t, packet.ConnectionID("A:1 <-> B:2"), f.ID)

	rtt, ok := RTT(f)
	require.True(t, ok)
	assert.Equal(t, 0.05, rtt)

	_, ok = EstablishmentTime(f)
	assert.False(t, ok)
}

func TestRTT(t *testing.T) {
	testCases := []struct {
		packets []testPacket
		rtt     float64
		ok      bool
		msg     string
	}{
		{
			[]testPacket{{ts: 1, flags: "S"}, {ts: 1.5, flags: "S"}},
			0, false, "only syn packets",
		},
		{
			[]testPacket{{ts: 1, flags: "SA"}},
			0, false, "only syn ack",
		},
		{
			[]testPacket{{ts: 2, flags: "S"}, {ts: 1, flags: "SA"}},
			0, false, "syn ack before syn",
		},
		{
			[]testPacket{{ts: 1, flags: "S"}, {ts: 1.25, flags: "SA"}, {ts: 1.5, flags: "S"}, {ts: 3, flags: "SA"}},
			0.25, true, "earliest of each side",
		},
		{
			[]testPacket{{ts: 1, flags: "S"}, {ts: 1, flags: "SA"}},
			0, true, "simultaneous",
		},
	}

	for _, testCase := range testCases {
		for i := range testCase.packets {
			testCase.packets[i].srcIP = "A"
			testCase.packets[i].dstIP = "B"
		}
		rtt, ok := RTT(buildFlow(t, testCase.packets...))
		assert.Equal(t, testCase.ok, ok, testCase.msg)
		assert.InDelta(t, testCase.rtt, rtt, 1e-9, testCase.msg)
	}
}

func TestEstablishmentTime(t *testing.T) {
	f := buildFlow(t,
		testPacket{ts: 10, srcIP: "A", dstIP: "B", flags: "S"},
		testPacket{ts: 10.1, srcIP: "B", dstIP: "A", flags: "SA"},
		testPacket{ts: 10.3, srcIP: "A", dstIP: "B", flags: "A"},
		testPacket{ts: 11, srcIP: "A", dstIP: "B", flags: "PA"},
	)
	est, ok := EstablishmentTime(f)
	require.True(t, ok)
	assert.InDelta(t, 0.3, est, 1e-9)

	noSyn := buildFlow(t, testPacket{ts: 1, srcIP: "A", dstIP: "B", flags: "A"})
	_, ok = EstablishmentTime(noSyn)
	assert.False(t, ok)
}

func TestDurationAndThroughput(t *testing.T) {
	testCases := []struct {
		packets    []testPacket
		duration   float64
		throughput float64
		msg        string
	}{
		{[]testPacket{{ts: 5, length: 100}}, 0, 0, "single packet"},
		{[]testPacket{{ts: 5, length: 100}, {ts: 5, length: 200}}, 0, 0, "zero duration with bytes"},
		{[]testPacket{{ts: 1, length: 100}, {ts: 3, length: 300}}, 2, 200, "two seconds"},
		{[]testPacket{{ts: 1, length: 0}, {ts: 1.5, length: 0}}, 0.5, 0, "no bytes"},
		{[]testPacket{{ts: 9e9, length: 900}, {ts: -9e9, length: 900}}, 1.8e10, 1e-7, "span longer than time.Duration"},
		{[]testPacket{{ts: -0.25, length: 10}, {ts: 0.5, length: 5}}, 0.75, 20, "span across the epoch"},
	}

	for _, testCase := range testCases {
		for i := range testCase.packets {
			testCase.packets[i].srcIP = "A"
			testCase.packets[i].dstIP = "B"
		}
		f := buildFlow(t, testCase.packets...)
		duration := Duration(f)
		throughput := Throughput(f)
		assert.InDelta(t, testCase.duration, duration, 1e-9, testCase.msg)
		assert.InDelta(t, testCase.throughput, throughput, 1e-9, testCase.msg)
		assert.GreaterOrEqual(t, duration, 0.0, testCase.msg)
		assert.GreaterOrEqual(t, throughput, 0.0, testCase.msg)
	}

	empty := &flow.Flow{}
	assert.Equal(t, 0.0, Duration(empty))
	assert.Equal(t, 0.0, Throughput(empty))
}

func TestMSS(t *testing.T) {
	f := buildFlow(t,
		testPacket{ts: 1, srcIP: "A", dstIP: "B", mss: 1460},
		testPacket{ts: 2, srcIP: "B", dstIP: "A", mss: 1380},
		testPacket{ts: 3, srcIP: "A", dstIP: "B"},
	)
	mss, ok := MSS(f)
	require.True(t, ok)
	assert.Equal(t, 1380.0, mss)

	unset := buildFlow(t, testPacket{ts: 1, srcIP: "A", dstIP: "B"})
	_, ok = MSS(unset)
	assert.False(t, ok)
}

func TestCongestionWindow(t *testing.T) {
	var packets []testPacket
	// deltas: 0, 1, 2, ..., 11
	ts := 100.0
	for i := 0; i < 12; i++ {
		ts += float64(i)
		packets = append(packets, testPacket{ts: ts, srcIP: "A", dstIP: "B"})
	}
	f := buildFlow(t, packets...)

	samples := CongestionWindow(f, 0)
	require.Len(t, samples, 12)
	assert.Equal(t, f.Packets[0].Timestamp, samples[0].Timestamp)
	assert.Equal(t, 0.0, samples[0].Estimate)
	// mean of 0 and 1
	assert.InDelta(t, 0.5, samples[1].Estimate, 1e-9)
	// mean of 0..9
	assert.InDelta(t, 4.5, samples[9].Estimate, 1e-9)
	// mean of 1..10
	assert.InDelta(t, 5.5, samples[10].Estimate, 1e-9)
	// mean of 2..11
	assert.InDelta(t, 6.5, samples[11].Estimate, 1e-9)

	short := CongestionWindow(f, 2)
	assert.InDelta(t, 10.5, short[11].Estimate, 1e-9)

	assert.Empty(t, CongestionWindow(&flow.Flow{}, DefaultWindow))
}

func TestRetransmissionScenario(t *testing.T) {
	var records []*packet.Record
	for i := 0; i < 3; i++ {
		record := testPacket{ts: float64(i), srcIP: "10.0.0.1", srcPort: 1000, dstIP: "10.0.0.2", dstPort: 80}.record()
		record.Seq = packet.Optional{Value: 42, Valid: true}
		records = append(records, record)
	}
	unique := testPacket{ts: 4, srcIP: "10.0.0.1", srcPort: 1000, dstIP: "10.0.0.2", dstPort: 80}.record()
	unique.Seq = packet.Optional{Value: 43, Valid: true}
	records = append(records, unique)

	reply := testPacket{ts: 5, srcIP: "10.0.0.2", srcPort: 80, dstIP: "10.0.0.1", dstPort: 1000}.record()
	reply.Seq = packet.Optional{Value: 42, Valid: true}
	records = append(records, reply)

	noSeq := testPacket{ts: 6, srcIP: "10.0.0.3", dstIP: "10.0.0.2"}.record()
	records = append(records, noSeq, noSeq)

	retrans := DetectRetransmissions(records)
	assert.Equal(t, 3, retrans.Count())
	for i := 0; i < 3; i++ {
		assert.True(t, retrans.IsFlagged(i))
	}
	assert.False(t, retrans.IsFlagged(3))
	assert.False(t, retrans.IsFlagged(4))
	assert.False(t, retrans.IsFlagged(5))
	assert.False(t, retrans.IsFlagged(100))

	rates := retrans.RateByIP()
	assert.Equal(t, map[string]float64{
		"10.0.0.1": 0.75,
		"10.0.0.2": 0,
		"10.0.0.3": 0,
	}, rates)
}
