package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFields(t *testing.T) {
	body := "Error: compile error\nDuration: 12 minutes\nStatus: failed\nSee https://ci.example.com/report/42 for details"
	d := Extract(body, "azuredevops@microsoft.com")

	assert.Equal(t, "compile error", d.Error)
	assert.Equal(t, "12 minutes", d.Duration)
	assert.Equal(t, "failed", d.Result)
	assert.Equal(t, "https://ci.example.com/report/42", d.ReportURL)
	assert.Equal(t, body, d.Body)
	assert.Equal(t, "azuredevops@microsoft.com", d.Sender)
}

func TestExtractFirstMatchOnly(t *testing.T) {
	body := "Error: first problem\nError: second problem\nhttp://one.example.com then http://two.example.com"
	d := Extract(body, "s")

	assert.Equal(t, "first problem", d.Error)
	assert.Equal(t, "http://one.example.com", d.ReportURL)
}

func TestExtractCaseInsensitive(t *testing.T) {
	d := Extract("TIEMPO: 90 seconds\nESTADO: passed", "s")

	assert.Equal(t, "90 seconds", d.Duration)
	assert.Equal(t, "passed", d.Result)
}

func TestExtractMissingFieldsStayBlank(t *testing.T) {
	d := Extract("nothing interesting here", "s")

	assert.Empty(t, d.Duration)
	assert.Empty(t, d.Error)
	assert.Empty(t, d.Result)
	assert.Empty(t, d.ReportURL)
	assert.Equal(t, "nothing interesting here", d.Body)
	assert.Equal(t, "s", d.Sender)
}

func TestExtractIsTotal(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "binary garbage", body: "\x00\x01\xff\xfe\x80 error: \x00"},
		{name: "only whitespace", body: "   \n\t  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				d := Extract(tt.body, "s")
				assert.Equal(t, "s", d.Sender)
			})
		})
	}
}

func TestExtractTruncatesLongBodies(t *testing.T) {
	body := strings.Repeat("a", 2500)
	d := Extract(body, "s")

	assert.Len(t, d.Body, maxBodyLen+len(truncationMarker))
	assert.True(t, strings.HasSuffix(d.Body, truncationMarker))
	assert.Equal(t, strings.Repeat("a", maxBodyLen), strings.TrimSuffix(d.Body, truncationMarker))
}

func TestExtractKeepsShortBodiesExact(t *testing.T) {
	body := strings.Repeat("b", maxBodyLen)
	d := Extract(body, "s")

	assert.Equal(t, body, d.Body)
}

func TestExtractURLVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "https",
			body: "report at https://ci.example.com/x",
			want: "https://ci.example.com/x",
		},
		{
			name: "bare www",
			body: "see www.example.com/report today",
			want: "www.example.com/report",
		},
		{
			name: "angle brackets terminate the url",
			body: `<a href="https://ci.example.com/y">link</a>`,
			want: "https://ci.example.com/y",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Extract(tt.body, "s")
			assert.Equal(t, tt.want, d.ReportURL)
		})
	}
}
