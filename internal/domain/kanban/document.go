package kanban

import (
	"fmt"
	"strings"
	"time"
)

// DocumentContentType is the MIME type of generated documents
const DocumentContentType = "application/pdf"

const (
	documentPrefix     = "kanban_cards_"
	documentSuffix     = ".pdf"
	documentTimeLayout = "20060102_150405"
)

// DocumentFilename returns the timestamp-derived name of a generated document
func DocumentFilename(at time.Time) string {
	return fmt.Sprintf("%s%s%s", documentPrefix, at.Format(documentTimeLayout), documentSuffix)
}

// ParseDocumentFilename returns the timestamp encoded in a name produced by
// DocumentFilename
func ParseDocumentFilename(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, documentPrefix) || !strings.HasSuffix(name, documentSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, documentPrefix), documentSuffix)
	at, err := time.ParseInLocation(documentTimeLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

// GeneratedDocument is the finalized output of one generation run
type GeneratedDocument struct {
	RunID     string
	Name      string
	Data      []byte
	PageCount int
	// Location is where the document was stored (path or URL), empty when not stored
	Location string
	// Skipped lists the item codes dropped because their lookup failed
	Skipped     []string
	GeneratedAt time.Time
}

// Size returns the document size in bytes
func (d *GeneratedDocument) Size() int64 {
	return int64(len(d.Data))
}
