package flow

import (
	"sort"
	"time"

	"github.com/DaviCMachado/T2-Redes/pkg/packet"
)

type (
	// Flow holds every record of one connection in chronological order.
	// Records sharing a timestamp keep their input order.
	Flow struct {
		ID      packet.ConnectionID
		Packets []*packet.Record
	}

	// Table is the result of grouping a dataset into flows
	Table struct {
		flows map[packet.ConnectionID]*Flow
		ids   []packet.ConnectionID
	}
)

// Group partitions records by ConnectionID. It never filters records and
// never produces an empty flow.
func Group(records []*packet.Record) *Table {
	table := &Table{
		flows: make(map[packet.ConnectionID]*Flow),
	}

	for _, record := range records {
		flow, ok := table.flows[record.ConnID]
		if !ok {
			flow = &Flow{ID: record.ConnID}
			table.flows[record.ConnID] = flow
			table.ids = append(table.ids, record.ConnID)
		}
		flow.Packets = append(flow.Packets, record)
	}

	for _, flow := range table.flows {
		sort.SliceStable(flow.Packets, func(i, j int) bool {
			return flow.Packets[i].Timestamp.Before(flow.Packets[j].Timestamp)
		})
	}
	sort.Slice(table.ids, func(i, j int) bool { return table.ids[i] < table.ids[j] })

	return table
}

// Len returns the number of flows
func (t *Table) Len() int { return len(t.ids) }

// Get looks up the flow for a connection
func (t *Table) Get(id packet.ConnectionID) (*Flow, bool) {
	flow, ok := t.flows[id]
	return flow, ok
}

// Flows returns every flow ordered by connection id
func (t *Table) Flows() []*Flow {
	flows := make([]*Flow, 0, len(t.ids))
	for _, id := range t.ids {
		flows = append(flows, t.flows[id])
	}
	return flows
}

// Start returns the timestamp of the first packet, or the zero time for an
// empty flow
func (f *Flow) Start() time.Time {
	if len(f.Packets) == 0 {
		return time.Time{}
	}
	return f.Packets[0].Timestamp
}

// End returns the timestamp of the last packet, or the zero time for an
// empty flow
func (f *Flow) End() time.Time {
	if len(f.Packets) == 0 {
		return time.Time{}
	}
	return f.Packets[len(f.Packets)-1].Timestamp
}

// Bytes sums the valid lengths of the flow's packets
func (f *Flow) Bytes() float64 {
	var total float64
	for _, record := range f.Packets {
		total += record.Length.Value
	}
	return total
}
