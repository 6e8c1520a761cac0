package images

import (
	"sort"
	"strings"
)

// Resolution is a named camera resolution keypoints can be rescaled to.
type Resolution struct {
	Name string `json:"name"`
	Size Size   `json:"size"`
}

// resolutions holds the common capture resolutions, keyed by lower case name.
var resolutions = map[string]Resolution{
	"qvga":  {Name: "QVGA", Size: Size{Width: 320, Height: 240}},
	"vga":   {Name: "VGA", Size: Size{Width: 640, Height: 480}},
	"nhd":   {Name: "nHD", Size: Size{Width: 640, Height: 360}},
	"fwvga": {Name: "FWVGA", Size: Size{Width: 854, Height: 480}},
	"540p":  {Name: "qHD 540p", Size: Size{Width: 960, Height: 540}},
	"720p":  {Name: "HD 720p", Size: Size{Width: 1280, Height: 720}},
	"1mp":   {Name: "1MP (5:4)", Size: Size{Width: 1280, Height: 1024}},
	"1080p": {Name: "Full HD 1080p", Size: Size{Width: 1920, Height: 1080}},
	"1440p": {Name: "QHD 1440p", Size: Size{Width: 2560, Height: 1440}},
	"4k":    {Name: "4K UHD", Size: Size{Width: 3840, Height: 2160}},
}

// LookupResolution returns the resolution registered under name, ignoring case.
func LookupResolution(name string) (Resolution, bool) {
	res, ok := resolutions[strings.ToLower(strings.TrimSpace(name))]
	return res, ok
}

// ResolutionNames returns the accepted lookup names ordered by pixel count.
func ResolutionNames() []string {
	names := make([]string, 0, len(resolutions))
	for name := range resolutions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := resolutions[names[i]].Size, resolutions[names[j]].Size
		if pa, pb := a.Width*a.Height, b.Width*b.Height; pa != pb {
			return pa < pb
		}
		return names[i] < names[j]
	})
	return names
}
