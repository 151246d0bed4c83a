package tcpstat

import (
	"time"

	"github.com/DaviCMachado/T2-Redes/pkg/flow"
	"github.com/DaviCMachado/T2-Redes/pkg/packet"
)

// earliest returns the first timestamp of a packet matching the predicate
func earliest(f *flow.Flow, match func(packet.Flags) bool) (time.Time, bool) {
	var first time.Time
	found := false
	for _, record := range f.Packets {
		if !match(record.Flags) {
			continue
		}
		if !found || record.Timestamp.Before(first) {
			first = record.Timestamp
			found = true
		}
	}
	return first, found
}

// handshakeDelay measures from the earliest SYN to the earliest packet
// matching reply
func handshakeDelay(f *flow.Flow, reply func(packet.Flags) bool) (float64, bool) {
	syn, ok := earliest(f, packet.Flags.IsSyn)
	if !ok {
		return 0, false
	}
	answer, ok := earliest(f, reply)
	if !ok {
		return 0, false
	}
	delay := answer.Sub(syn)
	if delay < 0 {
		return 0, false
	}
	return delay.Seconds(), true
}

// RTT estimates the round trip time of a flow as the delay between the
// earliest SYN and the earliest SYN-ACK. It is undefined when either is
// missing or the SYN-ACK precedes the SYN.
func RTT(f *flow.Flow) (float64, bool) {
	return handshakeDelay(f, packet.Flags.IsSynAck)
}

// EstablishmentTime is the delay between the earliest SYN and the earliest
// packet carrying only ACK
func EstablishmentTime(f *flow.Flow) (float64, bool) {
	return handshakeDelay(f, packet.Flags.IsAckOnly)
}

// Duration is the time in seconds between the first and last packet.
// Whole seconds and nanoseconds are subtracted apart since the span between
// two valid timestamps can exceed what time.Duration holds.
func Duration(f *flow.Flow) float64 {
	if len(f.Packets) < 2 {
		return 0
	}
	start, end := f.Start(), f.End()
	seconds := float64(end.Unix() - start.Unix())
	nanos := float64(end.Nanosecond() - start.Nanosecond())
	return seconds + nanos/1e9
}

// Throughput is the flow's byte count divided by its duration in bytes per
// second. A zero duration yields 0.
func Throughput(f *flow.Flow) float64 {
	duration := Duration(f)
	if duration <= 0 {
		return 0
	}
	throughput := f.Bytes() / duration
	if throughput < 0 {
		return 0
	}
	return throughput
}

// MSS returns the smallest maximum segment size announced in the flow
func MSS(f *flow.Flow) (float64, bool) {
	var smallest float64
	found := false
	for _, record := range f.Packets {
		if record.MSS <= packet.MSSUnset {
			continue
		}
		if !found || record.MSS < smallest {
			smallest = record.MSS
			found = true
		}
	}
	return smallest, found
}
