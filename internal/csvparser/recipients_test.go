package csvparser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecipients(t *testing.T) {
	in := strings.NewReader(
		"Email,name,room\n" +
			"a@x.com,Ada,E2-310\n" +
			"b@x.com,Bob,E2-311\n",
	)

	got, err := ParseRecipients(in, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "a@x.com", got[0].Email)
	assert.Equal(t, map[string]string{"name": "Ada", "room": "E2-310"}, got[0].Data)
	assert.Equal(t, "b@x.com", got[1].Email)
}

func TestParseRecipientsCaseInsensitiveEmailHeader(t *testing.T) {
	in := strings.NewReader("EMAIL,name\na@x.com,Ada\n")

	got, err := ParseRecipients(in, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a@x.com", got[0].Email)
}

func TestParseRecipientsSkipsBadRows(t *testing.T) {
	in := strings.NewReader(
		"Email,name\n" +
			",NoAddress\n" +
			"a@x.com,Ada\n",
	)

	got, err := ParseRecipients(in, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a@x.com", got[0].Email)
}

func TestParseRecipientsMaxRows(t *testing.T) {
	in := strings.NewReader(
		"Email\n" +
			"a@x.com\n" +
			"b@x.com\n" +
			"c@x.com\n",
	)

	got, err := ParseRecipients(in, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestParseRecipientsErrors(t *testing.T) {
	_, err := ParseRecipients(strings.NewReader("name,room\nAda,E2\n"), 0)
	assert.ErrorContains(t, err, "Email column")

	_, err = ParseRecipients(strings.NewReader("Email\n"), 0)
	assert.ErrorContains(t, err, "at least one data row")
}
