package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobRecord_Merge(t *testing.T) {
	base := JobRecord{
		Title:    "Data Engineer",
		Company:  "Acme",
		Location: "Dublin",
		URL:      "https://x/1",
		Source:   SourceIndeed,
	}

	base.Merge(JobRecord{URL: "https://x/1", Description: "full text", Company: ""})

	assert.Equal(t, "Data Engineer", base.Title)
	assert.Equal(t, "Acme", base.Company, "empty fields must not overwrite")
	assert.Equal(t, "full text", base.Description)
	assert.Equal(t, SourceIndeed, base.Source)
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		in      string
		want    Source
		wantErr bool
	}{
		{in: "indeed", want: SourceIndeed},
		{in: " LinkedIn ", want: SourceLinkedIn},
		{in: "IRISHJOBS", want: SourceIrishJobs},
		{in: "monster", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSource(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
