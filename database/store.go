package database

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"time"

	"github.com/DaviCMachado/T2-Redes/pkg/stats"
	"github.com/DaviCMachado/T2-Redes/pkg/traffic"
	"github.com/DaviCMachado/T2-Redes/util"
	"github.com/globalsign/mgo"
	"github.com/globalsign/mgo/bson"
	log "github.com/sirupsen/logrus"
	"github.com/vbauerster/mpb"
	"github.com/vbauerster/mpb/decor"
)

type (
	// ConnectionDoc holds the per connection statistics of one run.
	// Connection ids contain dots so they are stored as values, never as keys.
	ConnectionDoc struct {
		Run               string              `bson:"run"`
		Connection        string              `bson:"connection"`
		RTT               *float64            `bson:"rtt,omitempty"`
		EstablishmentTime *float64            `bson:"establishment_time,omitempty"`
		Duration          float64             `bson:"duration"`
		Throughput        float64             `bson:"throughput"`
		MSS               *float64            `bson:"mss,omitempty"`
		Window            stats.WindowSummary `bson:"window"`
		WindowSeries      []stats.WindowPoint `bson:"window_series"`
	}

	// IPRate is the retransmission rate of one source address
	IPRate struct {
		IP   string  `bson:"ip"`
		Rate float64 `bson:"rate"`
	}

	// ProtocolCount is the number of packets captured with a protocol
	ProtocolCount struct {
		Protocol string `bson:"protocol"`
		Packets  int    `bson:"packets"`
	}

	// SummaryDoc holds the run wide statistics of one run
	SummaryDoc struct {
		Run                string               `bson:"_id"`
		Created            time.Time            `bson:"created"`
		Connections        int                  `bson:"connections"`
		SegmentSizes       traffic.Distribution `bson:"segment_sizes"`
		PacketSizes        traffic.Distribution `bson:"packet_sizes"`
		RetransmissionRate []IPRate             `bson:"retransmission_rate"`
		ElephantFlows      []stats.FlowVolume   `bson:"elephant_flows"`
		Microbursts        []stats.BucketCount  `bson:"microbursts"`
		TopPorts           []stats.PortCount    `bson:"top_ports"`
		TopIPs             []stats.IPCount      `bson:"top_ips"`
		PacketsPerSecond   []stats.BucketCount  `bson:"packets_per_second"`
		TrafficPerMinute   []stats.BucketVolume `bson:"traffic_per_minute"`
		Heatmap            stats.Heatmap        `bson:"heatmap"`
		ProtocolCounts     []ProtocolCount      `bson:"protocol_counts"`
	}
)

// connectionIDs returns every connection id found in a full document, sorted
func connectionIDs(full *stats.Full) []string {
	seen := make(map[string]struct{}, len(full.CongestionWindow))
	for _, keyed := range []map[string]float64{
		full.RTT, full.EstablishmentTimes, full.Duration, full.Throughput, full.MSS,
	} {
		for id := range keyed {
			seen[id] = struct{}{}
		}
	}
	for id := range full.CongestionWindow {
		seen[id] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func optionalValue(keyed map[string]float64, id string) *float64 {
	value, ok := keyed[id]
	if !ok {
		return nil
	}
	return &value
}

// connectionDocs splits the per connection maps of a run into one document
// per connection
func connectionDocs(runID string, full *stats.Full, summary *stats.Summary) []ConnectionDoc {
	ids := connectionIDs(full)
	docs := make([]ConnectionDoc, 0, len(ids))
	for _, id := range ids {
		series := full.CongestionWindow[id]
		if series == nil {
			series = []stats.WindowPoint{}
		}
		docs = append(docs, ConnectionDoc{
			Run:               runID,
			Connection:        id,
			RTT:               optionalValue(full.RTT, id),
			EstablishmentTime: optionalValue(full.EstablishmentTimes, id),
			Duration:          full.Duration[id],
			Throughput:        full.Throughput[id],
			MSS:               optionalValue(full.MSS, id),
			Window:            summary.CongestionWindow[id],
			WindowSeries:      series,
		})
	}
	return docs
}

// summaryDoc converts the address and protocol keyed maps of a summary to
// sorted lists
func summaryDoc(runID string, summary *stats.Summary, connections int, created time.Time) SummaryDoc {
	doc := SummaryDoc{
		Run:                runID,
		Created:            created.UTC(),
		Connections:        connections,
		SegmentSizes:       summary.SegmentSizes,
		PacketSizes:        summary.PacketSizes,
		RetransmissionRate: make([]IPRate, 0, len(summary.RetransmissionRate)),
		ElephantFlows:      summary.ElephantFlows,
		Microbursts:        summary.Microbursts,
		TopPorts:           summary.TopPorts,
		TopIPs:             summary.TopIPs,
		PacketsPerSecond:   summary.PacketsPerSecond,
		TrafficPerMinute:   summary.TrafficPerMinute,
		Heatmap:            summary.Heatmap,
		ProtocolCounts:     make([]ProtocolCount, 0, len(summary.ProtocolCounts)),
	}

	for ip, rate := range summary.RetransmissionRate {
		doc.RetransmissionRate = append(doc.RetransmissionRate, IPRate{IP: ip, Rate: rate})
	}
	sort.Slice(doc.RetransmissionRate, func(i, j int) bool {
		return doc.RetransmissionRate[i].IP < doc.RetransmissionRate[j].IP
	})

	for protocol, packets := range summary.ProtocolCounts {
		doc.ProtocolCounts = append(doc.ProtocolCounts, ProtocolCount{Protocol: protocol, Packets: packets})
	}
	sort.Slice(doc.ProtocolCounts, func(i, j int) bool {
		return doc.ProtocolCounts[i].Protocol < doc.ProtocolCounts[j].Protocol
	})
	return doc
}

// CreateStatIndexes builds the statistics collections of the selected database
func (d *DB) CreateStatIndexes(connectionTable string) error {
	return d.EnsureCollection(connectionTable, []mgo.Index{
		{Key: []string{"run", "connection"}, Unique: true},
		{Key: []string{"run", "-duration"}},
	})
}

// StoreResult writes the statistics of a run. Each connection is upserted
// into connectionTable and the run wide summary into summaryTable. A
// progress bar is drawn on progress when it is not nil.
func (d *DB) StoreResult(runID string, full *stats.Full, summary *stats.Summary,
	connectionTable, summaryTable string, progress io.Writer) error {

	if err := d.CreateStatIndexes(connectionTable); err != nil {
		return fmt.Errorf("could not index %s: %w", connectionTable, err)
	}

	docs := connectionDocs(runID, full, summary)

	writer := NewBulkWriter(d, d.log, true, "connections")
	for i := 0; i < util.Max(1, runtime.NumCPU()/2); i++ {
		writer.Start()
	}

	var p *mpb.Progress
	var bar *mpb.Bar
	if progress != nil {
		p = mpb.New(mpb.WithWidth(20), mpb.WithOutput(progress))
		bar = p.AddBar(int64(len(docs)),
			mpb.PrependDecorators(
				decor.Name("\t[-] Storing Connections:", decor.WC{W: 30, C: decor.DidentRight}),
				decor.CountersNoUnit(" %d / %d ", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
	}

	for _, doc := range docs {
		start := time.Now()
		writer.Collect(BulkChanges{
			connectionTable: []BulkChange{{
				Selector: bson.M{"run": doc.Run, "connection": doc.Connection},
				Update:   bson.M{"$set": doc},
				Upsert:   true,
			}},
		})
		if bar != nil {
			bar.IncrBy(1, time.Since(start))
		}
	}
	if p != nil {
		p.Wait()
	}

	if failed := writer.Close(); failed > 0 {
		return fmt.Errorf("%d bulk writes to %s failed", failed, connectionTable)
	}

	ssn := d.Session.Copy()
	defer ssn.Close()

	_, err := ssn.DB(d.selected).C(summaryTable).UpsertId(runID, summaryDoc(runID, summary, len(docs), time.Now()))
	if err != nil {
		d.log.WithFields(log.Fields{
			"run":   runID,
			"error": err.Error(),
		}).Error("could not store run summary")
		return err
	}
	return nil
}
