package opus

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// oggDemuxer is a minimal reader of Ogg-Opus pages: just enough to pull out
// the raw Opus packet stream for a single logical bitstream. It does not
// implement general Ogg multiplexing (multiple concurrent streams, chained
// files) — one audio stream per file is all the engine ever opens.
type oggDemuxer struct {
	r       *bufio.Reader
	pending [][]byte // packets completed by the most recently read page
	pos     int
	// carry holds a packet's bytes spanning a page boundary (the previous
	// page's final lacing value was 255, meaning "more to come").
	carry []byte
}

const oggPageMagic = "OggS"

func newOggDemuxer(r io.Reader) *oggDemuxer {
	return &oggDemuxer{r: bufio.NewReaderSize(r, 8192)}
}

// nextPacket returns the next Opus packet payload, reading and parsing
// further Ogg pages as needed.
func (d *oggDemuxer) nextPacket() ([]byte, error) {
	for d.pos >= len(d.pending) {
		if err := d.readPage(); err != nil {
			return nil, err
		}
	}
	p := d.pending[d.pos]
	d.pos++
	return p, nil
}

func (d *oggDemuxer) readPage() error {
	var header [27]byte
	if _, err := io.ReadFull(d.r, header[:]); err != nil {
		return err
	}
	if string(header[0:4]) != oggPageMagic {
		return errors.New("opus: bad ogg page magic")
	}

	headerType := header[5]
	segCount := int(header[26])

	segTable := make([]byte, segCount)
	if _, err := io.ReadFull(d.r, segTable); err != nil {
		return err
	}

	// Reconstruct packets: a packet ends at the first lacing value < 255;
	// a lacing value of exactly 255 means the packet continues into the
	// next lacing entry (and possibly the next page).
	var packets [][]byte
	cur := d.carry
	d.carry = nil

	for _, segLen := range segTable {
		buf := make([]byte, segLen)
		if segLen > 0 {
			if _, err := io.ReadFull(d.r, buf); err != nil {
				return err
			}
		}
		cur = append(cur, buf...)
		if segLen < 255 {
			packets = append(packets, cur)
			cur = nil
		}
	}

	// If the page ended mid-lacing-255 run, cur carries over to the next
	// page instead of being emitted as a (possibly truncated) packet.
	if len(segTable) > 0 && segTable[len(segTable)-1] == 255 {
		d.carry = cur
	}

	// continued-packet flag (0x01) on the very first page is a malformed
	// stream (nothing to continue); otherwise it is already handled by
	// the carry mechanism above.
	_ = headerType

	d.pending = packets
	d.pos = 0
	return nil
}

// opusHead parses the mandatory identification header, the first packet of
// every Ogg-Opus stream.
type opusHead struct {
	channels   uint8
	preSkip    uint16
	sampleRate uint32
}

func parseOpusHead(packet []byte) (opusHead, error) {
	if len(packet) < 19 || string(packet[0:8]) != "OpusHead" {
		return opusHead{}, fmt.Errorf("opus: missing OpusHead magic")
	}
	return opusHead{
		channels:   packet[9],
		preSkip:    binary.LittleEndian.Uint16(packet[10:12]),
		sampleRate: binary.LittleEndian.Uint32(packet[12:16]),
	}, nil
}

func isOpusTags(packet []byte) bool {
	return len(packet) >= 8 && string(packet[0:8]) == "OpusTags"
}
