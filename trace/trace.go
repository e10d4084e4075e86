// Package trace exports the sequencer event ring as a CBOR stream, one
// record per event, for offline inspection of a run.
package trace

import (
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"

	"pulselab/core"
)

// Record is one exported event. Integer keys keep the stream compact.
type Record struct {
	Seq    uint32 `cbor:"1,keyasint"`
	Type   uint8  `cbor:"2,keyasint"`
	Name   string `cbor:"3,keyasint"`
	Clock  uint64 `cbor:"4,keyasint"`
	Value1 uint32 `cbor:"5,keyasint,omitempty"`
	Value2 uint32 `cbor:"6,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create trace CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create trace CBOR decoder mode: %v", err))
	}
}

// Records converts ring events to records numbered from zero.
func Records(events []core.Event) []Record {
	out := make([]Record, len(events))
	for i, evt := range events {
		out[i] = Record{
			Seq:    uint32(i),
			Type:   evt.Type,
			Name:   core.EventName(evt.Type),
			Clock:  evt.Clock,
			Value1: evt.Value1,
			Value2: evt.Value2,
		}
	}
	return out
}

// Write encodes events to w as a sequence of CBOR records.
func Write(w io.Writer, events []core.Event) error {
	enc := encMode.NewEncoder(w)
	for _, rec := range Records(events) {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode event %d: %w", rec.Seq, err)
		}
	}
	return nil
}

// WriteFile writes the current contents of the event ring to path,
// replacing any existing file.
func WriteFile(path string) (int, error) {
	events := core.Events()

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	if err := Write(f, events); err != nil {
		f.Close()
		return 0, err
	}
	return len(events), f.Close()
}

// Read decodes every record from r.
func Read(r io.Reader) ([]Record, error) {
	dec := decMode.NewDecoder(r)
	var out []Record
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, err
		}
		out = append(out, rec)
	}
}
