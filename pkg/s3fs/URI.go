// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package s3fs

import (
	"fmt"
	"strings"
)

const Scheme = "s3://"

// IsURI returns true if the value uses the s3 scheme.
func IsURI(value string) bool {
	return strings.HasPrefix(value, Scheme)
}

// ParseURI splits "s3://bucket/key" into bucket and key.
func ParseURI(value string) (string, string, error) {
	if !IsURI(value) {
		return "", "", fmt.Errorf("invalid s3 uri %q: missing %q prefix", value, Scheme)
	}
	bucket, key, _ := strings.Cut(strings.TrimPrefix(value, Scheme), "/")
	if len(bucket) == 0 {
		return "", "", fmt.Errorf("invalid s3 uri %q: missing bucket", value)
	}
	if len(key) == 0 || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("invalid s3 uri %q: missing object key", value)
	}
	return bucket, key, nil
}
