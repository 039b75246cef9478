// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package ts

import (
	"sort"
	"time"
)

// Layout is a string that describes the text representation of a time
type Layout string

const (
	// ListingTime is the time column of a long directory listing on the device.
	ListingTime Layout = "2006-01-02 15:04"
	// TouchTime is the argument format of touch -t on the device.
	TouchTime Layout = "200601021504"
)

func (l Layout) Format(t time.Time, location *time.Location) string {
	return t.In(location).Format(string(l))
}

// Parse parses the value in the given location.
func (l Layout) Parse(value string, location *time.Location) (time.Time, error) {
	return time.ParseInLocation(string(l), value, location)
}

// NamedLayouts includes a map of layouts that can be referenced by name
var NamedLayouts = map[string]Layout{
	"ListingTime": ListingTime,
	"TouchTime":   TouchTime,
	"RFC3339":     time.RFC3339,
	"DateTime":    time.DateTime,
}

// Names returns the sorted names of the named layouts.
func Names() []string {
	names := make([]string, 0, len(NamedLayouts))
	for name := range NamedLayouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
