// Package csvparser turns an uploaded recipient CSV into mail job
// recipients: the Email column addresses the mail, every other column
// becomes template data for that recipient.
package csvparser

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"mailspool/internal/models"
)

const defaultMaxRows = 1000

// ParseRecipients parses recipients from CSV. The header row must contain
// an "Email" column (case-insensitive); remaining columns map header to
// value in each recipient's Data. maxRows caps parsed data rows, rows
// with a column-count mismatch or empty email are skipped.
func ParseRecipients(r io.Reader, maxRows int) ([]models.Recipient, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// variable-width rows are skipped below instead of failing the parse
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, errors.New("csv header row is empty")
	}

	emailIdx := -1
	normalized := make([]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		normalized[i] = h
		if strings.EqualFold(h, "email") {
			emailIdx = i
		}
	}
	if emailIdx == -1 {
		return nil, errors.New("csv must contain an Email column")
	}

	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}

	recipients := make([]models.Recipient, 0)
	for len(recipients) < maxRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) != len(headers) {
			// skip malformed row
			continue
		}

		email := strings.TrimSpace(record[emailIdx])
		if email == "" {
			continue
		}

		data := make(map[string]string, len(headers)-1)
		for i := range record {
			if i == emailIdx || normalized[i] == "" {
				continue
			}
			data[normalized[i]] = strings.TrimSpace(record[i])
		}

		recipients = append(recipients, models.Recipient{
			Email: email,
			Data:  data,
		})
	}

	if len(recipients) == 0 {
		return nil, errors.New("csv must contain at least one data row")
	}

	return recipients, nil
}
