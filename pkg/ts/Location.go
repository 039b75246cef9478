// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package ts

import (
	"strconv"
	"time"
)

const (
	DefaultLocation = "UTC"
)

// ParseLocation returns the location of the device clock.
// The location is "Local", a signed offset in hours such as "-8", or an IANA
// time zone name.  An empty location is UTC.
func ParseLocation(location string) (*time.Location, error) {
	if location == "" || location == DefaultLocation {
		return time.UTC, nil
	}
	if location == "Local" {
		return time.Local, nil
	}
	hours, err := strconv.Atoi(location)
	if err == nil {
		return time.FixedZone("UTC"+location, hours*60*60), nil
	}
	return time.LoadLocation(location)
}
