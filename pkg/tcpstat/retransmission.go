package tcpstat

import "github.com/DaviCMachado/T2-Redes/pkg/packet"

// segmentKey identifies a segment across the whole dataset
type segmentKey struct {
	srcIP string
	dstIP string
	seq   float64
}

// Retransmissions marks the records of a dataset which repeat a sequence
// number already seen between the same source and destination
type Retransmissions struct {
	records []*packet.Record
	flagged []bool
	count   int
}

// DetectRetransmissions flags every record for which another record in the
// dataset has the same source address, destination address and sequence
// number. All members of a duplicate group are flagged, the first one
// included. Records without a valid sequence number are never flagged.
func DetectRetransmissions(records []*packet.Record) *Retransmissions {
	seen := make(map[segmentKey]int)
	for _, record := range records {
		if !record.Seq.Valid {
			continue
		}
		seen[segmentKey{record.SrcIP, record.DstIP, record.Seq.Value}]++
	}

	result := &Retransmissions{
		records: records,
		flagged: make([]bool, len(records)),
	}
	for i, record := range records {
		if !record.Seq.Valid {
			continue
		}
		if seen[segmentKey{record.SrcIP, record.DstIP, record.Seq.Value}] > 1 {
			result.flagged[i] = true
			result.count++
		}
	}
	return result
}

// IsFlagged reports whether the i-th record is a retransmission candidate
func (r *Retransmissions) IsFlagged(i int) bool {
	return i >= 0 && i < len(r.flagged) && r.flagged[i]
}

// Count returns the number of flagged records
func (r *Retransmissions) Count() int { return r.count }

// RateByIP divides the flagged records of each source address by all of its
// records. Every source address appears, with a rate of 0 when nothing it
// sent was flagged. Records without a source address are skipped.
func (r *Retransmissions) RateByIP() map[string]float64 {
	totals := make(map[string]int)
	flagged := make(map[string]int)
	for i, record := range r.records {
		if record.SrcIP == "" {
			continue
		}
		totals[record.SrcIP]++
		if r.IsFlagged(i) {
			flagged[record.SrcIP]++
		}
	}

	rates := make(map[string]float64, len(totals))
	for ip, total := range totals {
		rates[ip] = float64(flagged[ip]) / float64(total)
	}
	return rates
}
