package database

import (
	"regexp"
	"testing"
	"time"
)

func Test_GeneratePhotoID_FormatAndUniqueness(t *testing.T) {
	pattern := regexp.MustCompile(`^photo_1700000000000_[0-9a-f]{9}$`)
	now := time.UnixMilli(1700000000000)

	const n = 256
	seen := make(map[string]struct{}, n)

	for i := 0; i < n; i++ {
		got, err := GeneratePhotoID(now)
		if err != nil {
			t.Fatalf("GeneratePhotoID() returned error: %v", err)
		}
		if !pattern.MatchString(got) {
			t.Fatalf("GeneratePhotoID() returned invalid format: %q", got)
		}
		if _, dup := seen[got]; dup {
			t.Fatalf("GeneratePhotoID() returned duplicate id within the same millisecond: %q", got)
		}
		seen[got] = struct{}{}
	}
}
