package packet

import (
	"strings"
	"time"

	"github.com/DaviCMachado/T2-Redes/parser/parsetypes"
)

// Record is one normalized packet. Records are never modified after
// Normalize returns them.
type Record struct {
	Timestamp  time.Time
	SrcIP      string
	DstIP      string
	SrcPort    int
	DstPort    int
	Protocol   string
	Length     Optional
	Flags      Flags
	Seq        Optional
	Ack        Optional
	Window     Optional
	SegmentLen Optional
	MSS        float64
	ConnID     ConnectionID
}

// Normalize converts a raw row into a Record. Every column except the
// timestamp falls back to its documented default when malformed. The second
// return value is false only when the timestamp is invalid, in which case
// the row must be discarded.
func Normalize(raw parsetypes.PacketRow) (*Record, bool) {
	ts, ok := ParseTimestamp(string(raw.Timestamp))
	if !ok {
		return nil, false
	}

	srcPort, _ := ParsePort(string(raw.SrcPort))
	dstPort, _ := ParsePort(string(raw.DstPort))
	srcIP := strings.TrimSpace(string(raw.SrcIP))
	dstIP := strings.TrimSpace(string(raw.DstIP))

	return &Record{
		Timestamp:  ts,
		SrcIP:      srcIP,
		DstIP:      dstIP,
		SrcPort:    srcPort,
		DstPort:    dstPort,
		Protocol:   strings.TrimSpace(string(raw.Protocol)),
		Length:     ParseFloat(string(raw.Length)),
		Flags:      ParseFlags(string(raw.Flags)),
		Seq:        ParseFloat(string(raw.Seq)),
		Ack:        ParseFloat(string(raw.Ack)),
		Window:     ParseFloat(string(raw.Window)),
		SegmentLen: ParseFloat(string(raw.SegmentLen)),
		MSS:        ParseMSS(string(raw.MSS)),
		ConnID:     NewConnectionID(srcIP, srcPort, dstIP, dstPort),
	}, true
}

// IsProtocol reports whether the record was captured with the given
// protocol. The comparison ignores case.
func (r *Record) IsProtocol(protocol string) bool {
	return strings.EqualFold(r.Protocol, protocol)
}

// FilterProtocol returns the records captured with the given protocol,
// preserving their order
func FilterProtocol(records []*Record, protocol string) []*Record {
	var matched []*Record
	for _, record := range records {
		if record.IsProtocol(protocol) {
			matched = append(matched, record)
		}
	}
	return matched
}
