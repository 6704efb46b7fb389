package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/banshee-data/subsurface.report/internal/gpr"
)

// SEG-Y rev 1 layout constants.
const (
	segyTextHeaderLen   = 3200
	segyBinaryHeaderLen = 400
	segyTraceHeaderLen  = 240

	// Format code 5: 4-byte IEEE floating point.
	segyFormatIEEEFloat = 5
)

// Coordinate and time scaling applied to trace-header fields. GPR surveys
// need centimetre positions and sub-microsecond sampling, so positions are
// stored in hundredths of a meter (scalar -100) and the sample interval in
// nanoseconds rather than the seismic-standard microseconds. Both
// conventions are declared in the textual header.
const (
	segyCoordScalar = -100
	segyElevScalar  = -100
)

// WriteSEGY writes the radargram as a SEG-Y rev 1 file: a textual header
// describing the survey, a binary header with acquisition parameters, and
// one trace record per A-scan carrying position and elevation.
func WriteSEGY(path string, rg *gpr.Radargram, meta Metadata) error {
	if rg.NumTraces() == 0 {
		return fmt.Errorf("cannot export empty radargram")
	}
	cleanPath, err := validateArchivePath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(cleanPath)
	if err != nil {
		return fmt.Errorf("cannot create SEG-Y file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	samplesPerTrace := rg.Traces[0].NumBins()
	sampleIntervalNs := rg.Traces[0].TimeStepNs

	if err := writeTextHeader(w, rg, meta); err != nil {
		return err
	}
	if err := writeBinaryHeader(w, samplesPerTrace, sampleIntervalNs, meta); err != nil {
		return err
	}
	for i, trace := range rg.Traces {
		if err := writeTrace(w, i, trace, rg.Distances[i]); err != nil {
			return err
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("cannot flush SEG-Y file: %w", err)
	}
	return f.Sync()
}

// writeTextHeader emits the 3200-byte textual header as 40 card images of
// 80 characters.
func writeTextHeader(w *bufio.Writer, rg *gpr.Radargram, meta Metadata) error {
	cards := []string{
		fmt.Sprintf("C 1 CLIENT: SUBSURFACE.REPORT SURVEY %s", meta.SurveyID),
		"C 2 INSTRUMENT: SFCW GPR",
		fmt.Sprintf("C 3 SWEEP: %.0f-%.0f HZ IN %d STEPS", meta.Hardware.FreqStartHz, meta.Hardware.FreqStopHz, meta.Hardware.NumSteps),
		fmt.Sprintf("C 4 TRACES: %d  SAMPLES PER TRACE: %d", rg.NumTraces(), rg.Traces[0].NumBins()),
		fmt.Sprintf("C 5 SAMPLE INTERVAL IN NANOSECONDS: %.3f", rg.Traces[0].TimeStepNs),
		fmt.Sprintf("C 6 PROPAGATION VELOCITY M/NS: %.4f", rg.Traces[0].VelocityMpns),
		"C 7 COORDINATE SCALAR -100 (POSITIONS IN CM)",
		"C 8 SAMPLE FORMAT: IEEE FLOAT (CODE 5)",
		fmt.Sprintf("C 9 RECORDED: %s", meta.StartedAt.UTC().Format("2006-01-02 15:04:05")),
	}

	buf := make([]byte, segyTextHeaderLen)
	for i := range buf {
		buf[i] = ' '
	}
	for i, card := range cards {
		copy(buf[i*80:(i+1)*80], card)
	}
	copy(buf[39*80:], "C40 END TEXTUAL HEADER")

	_, err := w.Write(buf)
	return err
}

// writeBinaryHeader emits the 400-byte binary file header. Offsets follow
// the rev 1 standard; all values big-endian.
func writeBinaryHeader(w *bufio.Writer, samplesPerTrace int, sampleIntervalNs float64, meta Metadata) error {
	buf := make([]byte, segyBinaryHeaderLen)

	binary.BigEndian.PutUint32(buf[0:4], 1)                                      // job id
	binary.BigEndian.PutUint16(buf[16:18], uint16(math.Round(sampleIntervalNs))) // sample interval (ns, see text header)
	binary.BigEndian.PutUint16(buf[20:22], uint16(samplesPerTrace))              // samples per trace
	binary.BigEndian.PutUint16(buf[24:26], segyFormatIEEEFloat)                  // format code
	binary.BigEndian.PutUint16(buf[28:30], 1)                                    // ensemble fold
	binary.BigEndian.PutUint16(buf[30:32], 4)                                    // trace sorting: stacked
	binary.BigEndian.PutUint16(buf[54:56], 1)                                    // measurement system: meters
	binary.BigEndian.PutUint16(buf[300:302], 0x0100)                             // SEG-Y revision 1.0

	_, err := w.Write(buf)
	return err
}

// writeTrace emits one 240-byte trace header and the IEEE-float samples.
// Survey distance goes into the source X coordinate, elevation into the
// receiver-group elevation field.
func writeTrace(w *bufio.Writer, seq int, trace *gpr.AScan, distanceM float64) error {
	hdr := make([]byte, segyTraceHeaderLen)

	binary.BigEndian.PutUint32(hdr[0:4], uint32(seq+1))  // trace sequence within line
	binary.BigEndian.PutUint32(hdr[4:8], uint32(seq+1))  // trace sequence within file
	binary.BigEndian.PutUint16(hdr[28:30], 1)            // trace id: live seismic data

	elevationCm := int32(0)
	if trace.Location != nil {
		elevationCm = int32(math.Round(trace.Location.Elevation * 100))
	}
	binary.BigEndian.PutUint32(hdr[40:44], uint32(elevationCm))            // receiver group elevation
	elevScalar := int16(segyElevScalar)
	coordScalar := int16(segyCoordScalar)
	binary.BigEndian.PutUint16(hdr[68:70], uint16(elevScalar))  // elevation scalar
	binary.BigEndian.PutUint16(hdr[70:72], uint16(coordScalar)) // coordinate scalar

	distanceCm := int32(math.Round(distanceM * 100))
	binary.BigEndian.PutUint32(hdr[72:76], uint32(distanceCm)) // source X: survey distance

	binary.BigEndian.PutUint16(hdr[114:116], uint16(trace.NumBins()))                    // samples in trace
	binary.BigEndian.PutUint16(hdr[116:118], uint16(math.Round(trace.TimeStepNs)))       // sample interval (ns)

	if _, err := w.Write(hdr); err != nil {
		return err
	}

	sample := make([]byte, 4)
	for _, v := range trace.Amplitude {
		binary.BigEndian.PutUint32(sample, math.Float32bits(float32(v)))
		if _, err := w.Write(sample); err != nil {
			return err
		}
	}
	return nil
}
