package sink

import (
	fx "github.com/robotalks/seriallink/pkg/framework"
)

// MultiWriter writes each packet to all Writers.
type MultiWriter []PacketWriter

// Multi creates a PacketWriter writing to all writers. nil writers are skipped.
func Multi(writers ...PacketWriter) MultiWriter {
	w := make(MultiWriter, 0, len(writers))
	for _, writer := range writers {
		if writer != nil {
			w = append(w, writer)
		}
	}
	return w
}

// WritePacket implements PacketWriter. A failing writer doesn't prevent
// the others from writing.
func (w MultiWriter) WritePacket(pkt []byte) error {
	var errs fx.AggregatedError
	for _, writer := range w {
		errs.Add(writer.WritePacket(pkt))
	}
	return errs.Aggregate()
}
