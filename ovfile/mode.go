package ovfile

// Mode selects one of the six ways an ovfile can be opened, matching the
// original's overlap-store open-mode table exactly.
type Mode int

const (
	// Normal opens an uncompressed, normal-shape file for reading.
	Normal Mode = iota
	// NormalWrite opens an uncompressed, normal-shape file for writing.
	NormalWrite
	// Full opens a compressed, full-shape file for reading.
	Full
	// FullCounts opens only a full-shape file's counts sidecar; the main
	// data file is never opened.
	FullCounts
	// FullWrite opens a compressed, full-shape file for writing, with a
	// counts sidecar but no histogram.
	FullWrite
	// FullWriteNoCounts opens a compressed, full-shape file for writing
	// with no sidecars at all.
	FullWriteNoCounts
)

func (m Mode) String() string {
	switch m {
	case Normal:
		return "Normal"
	case NormalWrite:
		return "NormalWrite"
	case Full:
		return "Full"
	case FullCounts:
		return "FullCounts"
	case FullWrite:
		return "FullWrite"
	case FullWriteNoCounts:
		return "FullWriteNoCounts"
	default:
		return "Mode(unknown)"
	}
}

type modeConfig struct {
	shapeFull     bool
	compressed    bool
	writing       bool
	noMainFile    bool
	makeCounts    bool
	makeHistogram bool
}

func configFor(m Mode) modeConfig {
	switch m {
	case Normal:
		return modeConfig{shapeFull: false, compressed: false, writing: false, makeHistogram: true}
	case NormalWrite:
		return modeConfig{shapeFull: false, compressed: false, writing: true, makeHistogram: true, makeCounts: true}
	case Full:
		return modeConfig{shapeFull: true, compressed: true, writing: false, makeCounts: true}
	case FullCounts:
		return modeConfig{shapeFull: true, compressed: true, noMainFile: true, makeCounts: true}
	case FullWrite:
		return modeConfig{shapeFull: true, compressed: true, writing: true, makeCounts: true}
	case FullWriteNoCounts:
		return modeConfig{shapeFull: true, compressed: true, writing: true}
	default:
		panic("ovfile: unknown mode")
	}
}
