// Package export renders contact messages as a downloadable CSV table.
package export

import (
	"strings"
	"time"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/model"
)

const (
	// Filename is the fixed name of the downloaded file.
	Filename = "contact-messages.csv"
	// ContentType is sent with the download.
	ContentType = "text/csv;charset=utf-8"

	// InvalidDate stands in for a message that has no timestamp yet.
	InvalidDate = "Invalid Date"
	// DateTimeLayout renders timestamps in cells and tables.
	DateTimeLayout = "1/2/2006, 3:04:05 PM"
)

var header = []string{"ID", "Name", "Email", "Message", "Submitted At"}

// Messages renders records as CSV: a header line then one line per record,
// joined with "\n". Every cell is quoted and inner quotes are doubled. It
// returns false, and no content, when there is nothing to export.
func Messages(records []model.Message, loc *time.Location) ([]byte, bool) {
	if len(records) == 0 {
		return nil, false
	}
	var b strings.Builder
	b.WriteString(strings.Join(header, ","))
	for _, m := range records {
		b.WriteByte('\n')
		writeRow(&b, m.ID, m.Name, m.Email, m.Message, FormatStamp(m.SubmittedAt, loc))
	}
	return []byte(b.String()), true
}

// FormatStamp renders t in loc, or InvalidDate when t is nil.
func FormatStamp(t *time.Time, loc *time.Location) string {
	if t == nil {
		return InvalidDate
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateTimeLayout)
}

func writeRow(b *strings.Builder, cells ...string) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quote(cell))
	}
}

func quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
