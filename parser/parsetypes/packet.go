package parsetypes

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

// Column names every packet dataset must carry. The order of the columns
// in a file is irrelevant.
const (
	ColTimestamp  = "timestamp"
	ColSrcIP      = "src_ip"
	ColSrcPort    = "src_port"
	ColDstIP      = "dst_ip"
	ColDstPort    = "dst_port"
	ColProtocol   = "protocol"
	ColLength     = "length"
	ColFlags      = "flags"
	ColSeq        = "seq"
	ColAck        = "ack"
	ColWindow     = "window"
	ColSegmentLen = "segmento_tcp_len"
	ColMSS        = "mss"
)

// Columns lists the required columns in their canonical order. This is also
// the order the pcap extractor writes them in.
var Columns = []string{
	ColTimestamp, ColSrcIP, ColSrcPort, ColDstIP, ColDstPort, ColProtocol,
	ColLength, ColFlags, ColSeq, ColAck, ColWindow, ColSegmentLen, ColMSS,
}

// Value holds the raw text of one column. Decoding from JSON accepts
// strings, numbers, booleans and null so JSON lines exports and CSV rows
// end up in the same representation.
type Value string

// UnmarshalJSON implements json.Unmarshaler
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &str); err != nil {
			return err
		}
		*v = Value(str)
		return nil
	}
	*v = Value(data)
	return nil
}

// PacketRow is one untyped record of a packet dataset. The csv tag names the
// header column a field is read from.
type PacketRow struct {
	Timestamp  Value `csv:"timestamp" json:"timestamp"`
	SrcIP      Value `csv:"src_ip" json:"src_ip"`
	SrcPort    Value `csv:"src_port" json:"src_port"`
	DstIP      Value `csv:"dst_ip" json:"dst_ip"`
	DstPort    Value `csv:"dst_port" json:"dst_port"`
	Protocol   Value `csv:"protocol" json:"protocol"`
	Length     Value `csv:"length" json:"length"`
	Flags      Value `csv:"flags" json:"flags"`
	Seq        Value `csv:"seq" json:"seq"`
	Ack        Value `csv:"ack" json:"ack"`
	Window     Value `csv:"window" json:"window"`
	SegmentLen Value `csv:"segmento_tcp_len" json:"segmento_tcp_len"`
	MSS        Value `csv:"mss" json:"mss"`
}
