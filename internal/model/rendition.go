package model

// Orientation names a watermark anchor position.
type Orientation string

const (
	OrientTopLeft     Orientation = "TL"
	OrientTopRight    Orientation = "TR"
	OrientBottomLeft  Orientation = "BL"
	OrientBottomRight Orientation = "BR"
	OrientCenter      Orientation = "C"
)

// WarningKind classifies a non-fatal pipeline condition.
type WarningKind string

const (
	WarnUpscale      WarningKind = "upscale"
	WarnBadTimecode  WarningKind = "bad-timecode"
	WarnOutputExists WarningKind = "output-exists"
)

// Warning is a structured, non-fatal notice attached to a run or rendition.
type Warning struct {
	Kind    WarningKind
	Message string
}

// CLIOptions holds user-configurable runtime options as parsed from flags.
type CLIOptions struct {
	Input      string // Source media file.
	OutDir     string
	PublishDir string // Empty disables the publish step.
	Prefix     string // Output filename prefix; defaults to the input basename.
	Suffix     string // Optional name suffix appended after the device class.
	Watermark  string // Raw "FILE[:ORIENTATION[:PERCENT]]" spec; validated at startup.
	Keyframes  string // Optional path to a timecode file for forced keyframes.
	AudioDelay float64
	Test       bool // Truncate each encode to the first 30 seconds.
	Force      bool // Overwrite pre-existing outputs instead of skipping.
	KeepTemp   bool
	DryRun     bool
	Verbose    bool

	NoUI bool // Disable TUI when true
}

// EncodingProfile is one entry of the `profiles` list in the config file.
// Read-only after load.
type EncodingProfile struct {
	Enabled    bool   `mapstructure:"enabled"`
	Device     string `mapstructure:"device"`     // Free-text device class; "mobile" is recognized.
	Dimensions string `mapstructure:"dimensions"` // "WxH"; either axis may be "auto".
	VBitrate   string `mapstructure:"vbitrate"`   // e.g. "1000k"
	VBufsize   string `mapstructure:"vbufsize"`   // Optional; defaults to 2x vbitrate.
	ABitrate   string `mapstructure:"abitrate"`   // e.g. "128k"
}

// CropRect is the crop window applied before scaling. Offsets center the
// window inside the encoded frame.
type CropRect struct {
	Width  int
	Height int
	X      int
	Y      int
}

// Geometry is the reconciled source geometry shared by all renditions.
// Immutable once computed.
type Geometry struct {
	RealWidth    int // Encoded pixel dimensions, from the stream probe.
	RealHeight   int
	PixelAspect  float64
	SquareWidth  int // Display-corrected dimensions; baseline for scaling.
	SquareHeight int
	Interlaced   bool
	Crop         *CropRect // nil when no crop is needed
}

// WatermarkSpec is the validated watermark configuration, shared read-only
// across all renditions.
type WatermarkSpec struct {
	Path         string
	Orientation  Orientation
	WidthPercent int // Percent of the output width; default 40.
}

// RenditionPlan is the expanded per-profile encode plan. Created by the
// profile expander, consumed by the command builder.
type RenditionPlan struct {
	Width        int // Final dimensions; both even.
	Height       int
	VideoProfile string // H.264 profile: "main" or "high"
	VideoLevel   string // "3.1" or "4.1"
	AudioProfile string // "aac_he" or "aac_low"
	VBitrate     string
	VBufsize     string
	ABitrate     string
	TotalBitrate string // video + audio magnitudes, "k"-suffixed
	Device       string
	OutputPath   string
}

// EncodedVideo captures one finished rendition.
type EncodedVideo struct {
	OutputPath string
	Bytes      int64
	Width      int
	Height     int
	Device     string
}
