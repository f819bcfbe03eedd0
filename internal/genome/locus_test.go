package genome

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocus(t *testing.T) {
	tests := []struct {
		in      string
		want    Locus
		wantErr bool
	}{
		{in: "1:1000", want: Locus{"1", 1000}},
		{in: "chrX:155260460", want: Locus{"chrX", 155260460}},
		{in: "HLA-A:250", want: Locus{"HLA-A", 250}},
		{in: "noposition", wantErr: true},
		{in: ":5", wantErr: true},
		{in: "1:", wantErr: true},
		{in: "1:abc", wantErr: true},
		{in: "1:0", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocus(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocusString(t *testing.T) {
	l := Locus{Contig: "X", Position: 2699520}
	assert.Equal(t, "X:2699520", l.String())
}

func TestIntervalString(t *testing.T) {
	iv := Interval{
		Start:         Locus{"1", 100},
		End:           Locus{"1", 200},
		IncludesStart: true,
		IncludesEnd:   false,
	}
	assert.Equal(t, "[1:100-1:200)", iv.String())
}
