package gtfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Record
	}{
		{
			name: "header and rows",
			text: "stop_id,stop_name\nWP,White Plains\nSC,Scarsdale\n",
			want: []Record{
				{"stop_id": "WP", "stop_name": "White Plains"},
				{"stop_id": "SC", "stop_name": "Scarsdale"},
			},
		},
		{
			name: "quotes and whitespace stripped",
			text: "stop_id , stop_name\n \"GCT\" , \"Grand Central\" ",
			want: []Record{{"stop_id": "GCT", "stop_name": "Grand Central"}},
		},
		{
			name: "quoted header row",
			text: "\"stop_id\",\"stop_name\"\n\"A\",\"Alpha\"",
			want: []Record{{"stop_id": "A", "stop_name": "Alpha"}},
		},
		{
			name: "short row padded with empty values",
			text: "a,b,c\n1",
			want: []Record{{"a": "1", "b": "", "c": ""}},
		},
		{
			name: "extra fields dropped",
			text: "a,b\n1,2,3,4",
			want: []Record{{"a": "1", "b": "2"}},
		},
		{
			name: "quoted comma still splits",
			text: "a,b\n\"x,y\",z",
			want: []Record{{"a": "x", "b": "y"}},
		},
		{
			name: "crlf line endings",
			text: "a,b\r\n1,2\r\n",
			want: []Record{{"a": "1", "b": "2"}},
		},
		{
			name: "byte order mark",
			text: "\ufeffa,b\n1,2",
			want: []Record{{"a": "1", "b": "2"}},
		},
		{
			name: "blank lines skipped",
			text: "a\n1\n\n2",
			want: []Record{{"a": "1"}, {"a": "2"}},
		},
		{
			name: "header only",
			text: "a,b",
			want: []Record{},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCSV(tt.text))
		})
	}
}

func TestHasColumn(t *testing.T) {
	assert.True(t, hasColumn("stop_id,stop_name\nWP,White Plains", "stop_id"))
	assert.True(t, hasColumn("\ufeff stop_id ,x\r\n", "stop_id"))
	assert.False(t, hasColumn("id,name\nWP,White Plains", "stop_id"))
	assert.False(t, hasColumn("", "stop_id"))
	assert.True(t, hasColumn("\"stop_id\",\"stop_name\"\n", "stop_id"))
}
