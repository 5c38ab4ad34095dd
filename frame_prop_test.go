package melsec

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

func drawSeries(t *rapid.T) Series {
	return rapid.SampledFrom([]Series{SeriesQ, SeriesL, SeriesQnA, SeriesIQL, SeriesIQR}).Draw(t, "series")
}

func drawProfile(t *rapid.T) frameProfile {
	return rapid.SampledFrom([]frameProfile{profile3E, profile4E}).Draw(t, "profile")
}

// TestDeviceStringRoundTrip checks that parsing gives back exactly the
// device a rendered reference came from, for every code in the series
// table.
func TestDeviceStringRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		series := drawSeries(t)
		codes := make([]string, 0, len(series.table()))
		for code := range series.table() {
			codes = append(codes, code)
		}
		code := rapid.SampledFrom(codes).Draw(t, "code")
		index := rapid.Uint32Range(0, maxDeviceIndex).Draw(t, "index")

		dev := Device{Code: code, Index: index, Base: series.table()[code].base}
		parsed, err := ParseDevice(series, dev.String())
		if err != nil {
			t.Fatalf("error while parsing %q: %+v", dev.String(), err)
		}
		if parsed != dev {
			t.Errorf("round trip gave %+v, want %+v", parsed, dev)
		}
	})
}

// TestBinaryFrameLengthField checks that the length field of an encoded
// request covers exactly the monitoring timer onward.
func TestBinaryFrameLengthField(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		packager := newBinaryPackager(drawProfile(t), drawSeries(t))
		packager.Serial = rapid.Uint16().Draw(t, "serial")
		req := &Request{
			Command:    rapid.Uint16().Draw(t, "command"),
			Subcommand: rapid.Uint16().Draw(t, "subcommand"),
			Data:       rapid.SliceOfN(rapid.Byte(), 0, 256).Draw(t, "data"),
		}

		frame, err := packager.Encode(req)
		if err != nil {
			t.Fatalf("error while encoding: %+v", err)
		}

		header := packager.profile.requestHeaderLen()
		declared := int(binary.LittleEndian.Uint16(frame[header-2:]))
		if declared != len(frame)-header {
			t.Errorf("length field declares %d, frame carries %d", declared, len(frame)-header)
		}
		if declared != 6+len(req.Data) {
			t.Errorf("length field declares %d, want %d", declared, 6+len(req.Data))
		}
	})
}

// TestBinaryResponseRoundTrip builds a well-formed response frame and
// checks Decode recovers the payload bytes.
func TestBinaryResponseRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		packager := newBinaryPackager(drawProfile(t), drawSeries(t))
		packager.Serial = rapid.Uint16().Draw(t, "serial")
		payload := rapid.SliceOfN(rapid.Byte(), 0, 512).Draw(t, "payload")

		frame := binary.BigEndian.AppendUint16(nil, packager.profile.respSubheader)
		if packager.profile.hasSerial {
			frame = binary.LittleEndian.AppendUint16(frame, packager.Serial)
			frame = append(frame, 0x00, 0x00)
		}
		frame = append(frame, 0x00, 0xFF, 0xFF, 0x03, 0x00)
		frame = binary.LittleEndian.AppendUint16(frame, uint16(2+len(payload)))
		frame = append(frame, 0x00, 0x00) // end code
		frame = append(frame, payload...)

		resp, err := packager.Decode(frame)
		if err != nil {
			t.Fatalf("error while decoding: %+v", err)
		}
		if !bytes.Equal(payload, resp.Data) {
			t.Errorf("invalid payload: got % x, want % x", resp.Data, payload)
		}
	})
}

// TestPackagersAgreeOnValues checks both dialects transport the same
// word and bit values, whatever bytes end up on the wire.
func TestPackagersAgreeOnValues(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		series := drawSeries(t)
		bin := newBinaryPackager(profile3E, series)
		asc := newASCIIPackager(profile3E, series)

		words := rapid.SliceOfN(rapid.Uint16(), 1, 64).Draw(t, "words")
		fromBin, err := bin.UnpackWords(bin.PackWords(words), len(words))
		if err != nil {
			t.Fatalf("binary word round trip: %+v", err)
		}
		fromASCII, err := asc.UnpackWords(asc.PackWords(words), len(words))
		if err != nil {
			t.Fatalf("ascii word round trip: %+v", err)
		}
		if !cmp.Equal(fromBin, fromASCII) {
			t.Errorf("dialects disagree on words: %s", cmp.Diff(fromBin, fromASCII))
		}

		bits := rapid.SliceOfN(rapid.Bool(), 1, 64).Draw(t, "bits")
		binBits, err := bin.UnpackBits(bin.PackBits(bits), len(bits))
		if err != nil {
			t.Fatalf("binary bit round trip: %+v", err)
		}
		asciiBits, err := asc.UnpackBits(asc.PackBits(bits), len(bits))
		if err != nil {
			t.Fatalf("ascii bit round trip: %+v", err)
		}
		if !cmp.Equal(binBits, asciiBits) {
			t.Errorf("dialects disagree on bits: %s", cmp.Diff(binBits, asciiBits))
		}
		if !cmp.Equal(bits, binBits) {
			t.Errorf("bit round trip changed values: %s", cmp.Diff(bits, binBits))
		}
	})
}
