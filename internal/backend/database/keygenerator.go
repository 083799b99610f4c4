package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const photoIDSuffixLength = 9

// GeneratePhotoID builds a collision-resistant id for a user-added photo:
// photo_<unix millis>_<random suffix>
func GeneratePhotoID(now time.Time) (string, error) {
	random, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	suffix := strings.ReplaceAll(random.String(), "-", "")[:photoIDSuffixLength]
	return fmt.Sprintf("photo_%d_%s", now.UnixMilli(), suffix), nil
}
