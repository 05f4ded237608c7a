package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"photark/internal/models"
)

// Photography display formatting. Every formatter degrades to the raw value
// rendered as a string when the code is outside its table, so unknown camera
// firmware never breaks the info endpoint.

var orientationLabels = map[int]string{
	1: "Horizontal (normal)",
	2: "Mirror horizontal",
	3: "Rotate 180",
	4: "Mirror vertical",
	5: "Mirror horizontal and rotate 270 CW",
	6: "Rotate 90 CW",
	7: "Mirror horizontal and rotate 90 CW",
	8: "Rotate 270 CW",
}

var whiteBalanceLabels = map[int]string{
	0: "Auto",
	1: "Manual",
}

var exposureProgramLabels = map[int]string{
	0: "Not defined",
	1: "Manual",
	2: "Normal program",
	3: "Aperture priority",
	4: "Shutter priority",
	5: "Creative program",
	6: "Action program",
	7: "Portrait mode",
	8: "Landscape mode",
}

var exposureModeLabels = map[int]string{
	0: "Auto",
	1: "Manual",
	2: "Auto bracket",
}

var meteringModeLabels = map[int]string{
	0:   "Unknown",
	1:   "Average",
	2:   "Center-weighted average",
	3:   "Spot",
	4:   "Multi-spot",
	5:   "Pattern",
	6:   "Partial",
	255: "Other",
}

var sceneCaptureTypeLabels = map[int]string{
	0: "Standard",
	1: "Landscape",
	2: "Portrait",
	3: "Night scene",
}

var colorSpaceLabels = map[int]string{
	1:     "sRGB",
	2:     "Adobe RGB",
	65535: "Uncalibrated",
}

// FormatOrientation renders an EXIF orientation code for display
func FormatOrientation(value int) string {
	return labelOrRaw(orientationLabels, value)
}

// FormatFocalLength renders a focal length in millimeters
func FormatFocalLength(value float64) string {
	return fmt.Sprintf("%g mm", value)
}

// FormatAperture renders an f-number
func FormatAperture(value float64) string {
	return fmt.Sprintf("f/%g", value)
}

// FormatShutterSpeed renders an exposure time, fractional for sub-second
func FormatShutterSpeed(value float64) string {
	if value > 0 && value < 1 {
		return fmt.Sprintf("1/%d", int(math.Round(1/value)))
	}
	if value == math.Trunc(value) {
		return strconv.Itoa(int(value))
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// FormatFlash decodes the EXIF flash bit field
func FormatFlash(value int) string {
	if value == 0 {
		return "No Flash"
	}

	var parts []string
	if value&1 != 0 {
		parts = append(parts, "Flash fired")
	} else {
		parts = append(parts, "Flash did not fire")
	}

	switch (value >> 3) & 0b11 {
	case 3:
		parts = append(parts, "auto")
	case 1:
		parts = append(parts, "compulsory")
	case 2:
		parts = append(parts, "suppressed")
	}

	if (value>>6)&1 != 0 {
		parts = append(parts, "red-eye reduction")
	}

	return strings.Join(parts, ", ")
}

// FormatExposureCompensation renders an EV offset with explicit sign
func FormatExposureCompensation(value float64) string {
	if value == 0 {
		return "0 EV"
	}
	return fmt.Sprintf("%+.2g EV", value)
}

// FormatPixels renders a pixel dimension
func FormatPixels(value int) string {
	return fmt.Sprintf("%d px", value)
}

// FormatWhiteBalance renders an EXIF white balance code
func FormatWhiteBalance(value int) string {
	return labelOrRaw(whiteBalanceLabels, value)
}

// FormatExposureProgram renders an EXIF exposure program code
func FormatExposureProgram(value int) string {
	return labelOrRaw(exposureProgramLabels, value)
}

// FormatExposureMode renders an EXIF exposure mode code
func FormatExposureMode(value int) string {
	return labelOrRaw(exposureModeLabels, value)
}

// FormatMeteringMode renders an EXIF metering mode code
func FormatMeteringMode(value int) string {
	return labelOrRaw(meteringModeLabels, value)
}

// FormatSceneCaptureType renders an EXIF scene capture type code
func FormatSceneCaptureType(value int) string {
	return labelOrRaw(sceneCaptureTypeLabels, value)
}

// FormatSceneType renders an EXIF scene type code
func FormatSceneType(value int) string {
	if value == 1 {
		return "Directly photographed"
	}
	return strconv.Itoa(value)
}

// FormatColorSpace renders an EXIF color space code
func FormatColorSpace(value int) string {
	return labelOrRaw(colorSpaceLabels, value)
}

// Summary assembles the formatted photography block for the info endpoint.
// Only tags present in the dictionary appear; string-valued tags that should
// be numeric fall through as their raw text.
func Summary(tags models.RawTags) map[string]string {
	out := make(map[string]string)

	put := func(label, key string, render func() (string, bool)) {
		if !tags.Has(key) {
			return
		}
		if s, ok := render(); ok {
			out[label] = s
		} else if raw, rawOK := tags.String(key); rawOK {
			out[label] = raw
		}
	}

	put("Orientation", "EXIF:Orientation", func() (string, bool) {
		v, ok := tags.Int("EXIF:Orientation")
		return FormatOrientation(v), ok
	})
	put("Focal Length", "EXIF:FocalLength", func() (string, bool) {
		v, ok := tags.Float("EXIF:FocalLength")
		return FormatFocalLength(v), ok
	})
	put("Aperture", "EXIF:FNumber", func() (string, bool) {
		v, ok := tags.Float("EXIF:FNumber")
		return FormatAperture(v), ok
	})
	put("Shutter Speed", "EXIF:ExposureTime", func() (string, bool) {
		v, ok := tags.Float("EXIF:ExposureTime")
		return FormatShutterSpeed(v), ok
	})
	put("Flash", "EXIF:Flash", func() (string, bool) {
		v, ok := tags.Int("EXIF:Flash")
		return FormatFlash(v), ok
	})
	put("Exposure Compensation", "EXIF:ExposureCompensation", func() (string, bool) {
		v, ok := tags.Float("EXIF:ExposureCompensation")
		return FormatExposureCompensation(v), ok
	})
	put("White Balance", "EXIF:WhiteBalance", func() (string, bool) {
		v, ok := tags.Int("EXIF:WhiteBalance")
		return FormatWhiteBalance(v), ok
	})
	put("Exposure Program", "EXIF:ExposureProgram", func() (string, bool) {
		v, ok := tags.Int("EXIF:ExposureProgram")
		return FormatExposureProgram(v), ok
	})
	put("Exposure Mode", "EXIF:ExposureMode", func() (string, bool) {
		v, ok := tags.Int("EXIF:ExposureMode")
		return FormatExposureMode(v), ok
	})
	put("Metering Mode", "EXIF:MeteringMode", func() (string, bool) {
		v, ok := tags.Int("EXIF:MeteringMode")
		return FormatMeteringMode(v), ok
	})
	put("Scene Capture Type", "EXIF:SceneCaptureType", func() (string, bool) {
		v, ok := tags.Int("EXIF:SceneCaptureType")
		return FormatSceneCaptureType(v), ok
	})
	put("Scene Type", "EXIF:SceneType", func() (string, bool) {
		v, ok := tags.Int("EXIF:SceneType")
		return FormatSceneType(v), ok
	})
	put("Color Space", "EXIF:ColorSpace", func() (string, bool) {
		v, ok := tags.Int("EXIF:ColorSpace")
		return FormatColorSpace(v), ok
	})
	put("ISO", "EXIF:ISO", func() (string, bool) {
		return tags.String("EXIF:ISO")
	})
	put("Camera Make", "EXIF:Make", func() (string, bool) {
		return tags.String("EXIF:Make")
	})
	put("Camera Model", "EXIF:Model", func() (string, bool) {
		return tags.String("EXIF:Model")
	})
	put("Lens Model", "EXIF:LensModel", func() (string, bool) {
		return tags.String("EXIF:LensModel")
	})
	put("Image Width", "File:ImageWidth", func() (string, bool) {
		v, ok := tags.Int("File:ImageWidth")
		return FormatPixels(v), ok
	})
	put("Image Height", "File:ImageHeight", func() (string, bool) {
		v, ok := tags.Int("File:ImageHeight")
		return FormatPixels(v), ok
	})

	return out
}

func labelOrRaw(table map[int]string, value int) string {
	if label, ok := table[value]; ok {
		return label
	}
	return strconv.Itoa(value)
}
