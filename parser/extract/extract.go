// Package extract converts packet captures into the CSV datasets read by
// the analysis. Only IPv4 TCP segments are written.
package extract

import (
	"bufio"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/DaviCMachado/T2-Redes/parser/parsetypes"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	log "github.com/sirupsen/logrus"
)

// mssUnset is written when a segment carries no MSS option
const mssUnset = "-1"

// pcapngMagic opens the section header block of a pcapng file
var pcapngMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}

type (
	// Stats counts the frames seen while extracting
	Stats struct {
		Files   int
		Frames  int
		Written int
		Skipped int
	}

	// Extractor writes the TCP segments of captures as CSV rows
	Extractor struct {
		log *log.Logger
	}

	// captureSource is implemented by both the pcap and the pcapng readers
	captureSource interface {
		gopacket.PacketDataSource
		LinkType() layers.LinkType
	}
)

// NewExtractor creates an extractor logging to logger
func NewExtractor(logger *log.Logger) *Extractor {
	return &Extractor{log: logger}
}

// ExtractFile writes every capture in inputs to a CSV file at outPath.
// All captures share the single header line of the output.
func (e *Extractor) ExtractFile(inputs []string, outPath string) (*Stats, error) {
	out, err := os.Create(outPath)
	if err != nil {
		return nil, err
	}

	stats, err := e.Extract(inputs, out)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	return stats, err
}

// Extract writes the header followed by the rows of every capture in inputs
func (e *Extractor) Extract(inputs []string, out io.Writer) (*Stats, error) {
	writer := csv.NewWriter(out)
	if err := writer.Write(parsetypes.Columns); err != nil {
		return nil, err
	}

	stats := &Stats{}
	for _, input := range inputs {
		if err := e.extractCapture(input, writer, stats); err != nil {
			return stats, fmt.Errorf("could not extract %s: %w", input, err)
		}
		stats.Files++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return stats, err
	}

	e.log.WithFields(log.Fields{
		"files":   stats.Files,
		"frames":  stats.Frames,
		"written": stats.Written,
		"skipped": stats.Skipped,
	}).Info("Finished extracting captures")
	return stats, nil
}

// openCapture picks the pcap or pcapng reader from the file's magic number
func openCapture(reader io.Reader) (captureSource, error) {
	buffered := bufio.NewReader(reader)
	magic, err := buffered.Peek(len(pcapngMagic))
	if err != nil {
		return nil, fmt.Errorf("could not read capture header: %w", err)
	}

	if string(magic) == string(pcapngMagic) {
		return pcapgo.NewNgReader(buffered, pcapgo.DefaultNgReaderOptions)
	}
	return pcapgo.NewReader(buffered)
}

func (e *Extractor) extractCapture(input string, writer *csv.Writer, stats *Stats) error {
	file, err := os.Open(input)
	if err != nil {
		return err
	}
	defer file.Close()

	capture, err := openCapture(file)
	if err != nil {
		return err
	}

	source := gopacket.NewPacketSource(capture, capture.LinkType())
	source.DecodeOptions = gopacket.DecodeOptions{Lazy: true, NoCopy: true}

	for {
		packet, err := source.NextPacket()
		if err == io.EOF {
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			e.log.WithFields(log.Fields{
				"path": input,
			}).Warn("Capture ends with a truncated frame")
			return nil
		}
		if err != nil {
			return err
		}

		stats.Frames++
		row, ok := segmentRow(packet)
		if !ok {
			stats.Skipped++
			continue
		}
		if err := writer.Write(row); err != nil {
			return err
		}
		stats.Written++
	}
}

// segmentRow renders an IPv4 TCP frame in column order. Frames of any other
// kind are rejected.
func segmentRow(packet gopacket.Packet) ([]string, bool) {
	ipLayer, ok := packet.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	if !ok {
		return nil, false
	}
	tcp, ok := packet.Layer(layers.LayerTypeTCP).(*layers.TCP)
	if !ok {
		return nil, false
	}

	metadata := packet.Metadata()
	frameLength := metadata.Length
	if frameLength == 0 {
		frameLength = len(packet.Data())
	}

	linkLength := 0
	if link := packet.LinkLayer(); link != nil {
		linkLength = len(link.LayerContents())
	}

	segmentLength := frameLength - linkLength - int(ipLayer.IHL)*4 - int(tcp.DataOffset)*4
	if segmentLength < 0 {
		segmentLength = 0
	}

	timestamp := metadata.Timestamp
	return []string{
		fmt.Sprintf("%d.%06d", timestamp.Unix(), timestamp.Nanosecond()/1000),
		ipLayer.SrcIP.String(),
		strconv.Itoa(int(tcp.SrcPort)),
		ipLayer.DstIP.String(),
		strconv.Itoa(int(tcp.DstPort)),
		"TCP",
		strconv.Itoa(frameLength),
		flagString(tcp),
		strconv.FormatUint(uint64(tcp.Seq), 10),
		strconv.FormatUint(uint64(tcp.Ack), 10),
		strconv.Itoa(int(tcp.Window)),
		strconv.Itoa(segmentLength),
		mssOption(tcp),
	}, true
}

// flagString lists the set flags in FSRPAU order
func flagString(tcp *layers.TCP) string {
	var b strings.Builder
	for _, flag := range []struct {
		set  bool
		name byte
	}{
		{tcp.FIN, 'F'}, {tcp.SYN, 'S'}, {tcp.RST, 'R'},
		{tcp.PSH, 'P'}, {tcp.ACK, 'A'}, {tcp.URG, 'U'},
	} {
		if flag.set {
			b.WriteByte(flag.name)
		}
	}
	return b.String()
}

// mssOption reads the maximum segment size option of a SYN segment
func mssOption(tcp *layers.TCP) string {
	if !tcp.SYN {
		return mssUnset
	}
	for _, option := range tcp.Options {
		if option.OptionType == layers.TCPOptionKindMSS && len(option.OptionData) == 2 {
			return strconv.Itoa(int(binary.BigEndian.Uint16(option.OptionData)))
		}
	}
	return mssUnset
}
