package jgrants

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDownloadBase = "https://your-mcp-server.example.com"

func TestDownloadURL(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		id    string
		cat   Category
		index int
		want  string
	}{
		{
			name:  "default base",
			base:  testDownloadBase,
			id:    "a0W5h00000UaGzhEAF",
			cat:   CategoryApplicationForm,
			index: 2,
			want:  "https://your-mcp-server.example.com/subsidies/a0W5h00000UaGzhEAF/application_form/2",
		},
		{
			name:  "trailing slash on base",
			base:  "https://files.example.org/",
			id:    "abc",
			cat:   CategoryOutlineOfGrant,
			index: 0,
			want:  "https://files.example.org/subsidies/abc/outline_of_grant/0",
		},
		{
			name:  "id with reserved characters",
			base:  testDownloadBase,
			id:    "a/b c",
			cat:   CategoryApplicationGuidelines,
			index: 1,
			want:  "https://your-mcp-server.example.com/subsidies/a%2Fb%20c/application_guidelines/1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DownloadURL(tt.base, tt.id, tt.cat, tt.index))
		})
	}
}

func TestAttachDownloadURLs(t *testing.T) {
	record, err := decodeFirstRecord([]byte(`{"result":[{
		"id": "S-1",
		"application_guidelines": [{"name":"a.pdf","data":"AAA"},{"name":"b.pdf","data":"BBB"}],
		"outline_of_grant": [],
		"application_form": [{"name":"c.docx"}]
	}]}`))
	require.NoError(t, err)

	record.AttachDownloadURLs(testDownloadBase, "S-1")

	out, err := Render(record.ToObject())
	require.NoError(t, err)
	assert.NotContains(t, out, `"data"`)

	pattern := regexp.MustCompile(`^https://your-mcp-server\.example\.com/subsidies/S-1/(application_guidelines|outline_of_grant|application_form)/\d+$`)
	for _, c := range Categories {
		list, _ := record.AttachmentsOf(c)
		for i, a := range list {
			assert.False(t, a.HasData())
			assert.Regexp(t, pattern, a.URL)
			assert.True(t, strings.HasSuffix(a.URL, "/"+string(c)+"/"+strconv.Itoa(i)))
			assert.Equal(t, DownloadURL(testDownloadBase, "S-1", c, i), a.URL)
		}
	}

	guidelines, _ := record.AttachmentsOf(CategoryApplicationGuidelines)
	assert.Equal(t, "a.pdf", *guidelines[0].Name)
	assert.Equal(t, "b.pdf", *guidelines[1].Name)

	empty, ok := record.AttachmentsOf(CategoryOutlineOfGrant)
	assert.True(t, ok)
	assert.Empty(t, empty)
}

func TestAttachDownloadURLs_FallsBackToRequestedID(t *testing.T) {
	record, err := decodeFirstRecord([]byte(`{"result":[{"application_form":[{"data":"x"}]}]}`))
	require.NoError(t, err)

	record.AttachDownloadURLs(testDownloadBase, "requested")

	list, _ := record.AttachmentsOf(CategoryApplicationForm)
	assert.Equal(t, testDownloadBase+"/subsidies/requested/application_form/0", list[0].URL)
	_, hasID := record.ToObject().Get("id")
	assert.False(t, hasID)
}
