package subset

import (
	"bufio"
	"encoding/binary"
	"math"
	"os"

	"github.com/dustin/go-wikiindex"
)

const endOfLinks = math.MaxUint32

// WriteGraphData writes the link catalog in the binary form read by the
// graph layout program.
//
// linkData.bin starts with 0xFFFFFFFF and then holds each member's
// links as 4 byte little endian LocalIndexes, each list ended by
// 0xFFFFFFFF.  linkOffsets.bin holds, per member, the byte offset of
// its list in linkData.bin, or 0 if it has no links.
func (s *Subset) WriteGraphData() (err error) {
	links, err := s.LinkCatalog()
	if err != nil {
		return err
	}

	of, err := os.Create(s.path(LinkOffsetsFile))
	if err != nil {
		return err
	}
	defer of.Close()
	df, err := os.Create(s.path(LinkDataFile))
	if err != nil {
		return err
	}
	defer df.Close()
	defer func() {
		if err != nil {
			os.Remove(s.path(LinkOffsetsFile))
			os.Remove(s.path(LinkDataFile))
		}
	}()

	ow, dw := bufio.NewWriter(of), bufio.NewWriter(df)
	var buf [4]byte
	put := func(w *bufio.Writer, v uint32) {
		binary.LittleEndian.PutUint32(buf[:], v)
		w.Write(buf[:])
	}

	put(dw, endOfLinks)
	pos := uint64(4)
	for _, ls := range links {
		if len(ls) == 0 {
			put(ow, 0)
			continue
		}
		if pos+uint64(len(ls)+1)*4 > math.MaxUint32 {
			return wikiindex.ErrOffsetOverflow
		}
		put(ow, uint32(pos))
		for _, l := range ls {
			put(dw, uint32(l))
		}
		put(dw, endOfLinks)
		pos += uint64(len(ls)+1) * 4
	}

	if err := ow.Flush(); err != nil {
		return err
	}
	if err := dw.Flush(); err != nil {
		return err
	}
	if err := of.Close(); err != nil {
		return err
	}
	return df.Close()
}
