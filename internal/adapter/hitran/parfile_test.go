package hitran

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// coLine is the CO 1-0 R(0) transition, assembled field by field.
var coLine = " 5" + "1" +
	" 2147.081139" +
	" 1.919E-19" +
	" 1.428E+01" +
	".0532" +
	"0.058" +
	"    0.0000" +
	"0.69" +
	"-.003046" +
	"              1" +
	"              0" +
	"               " +
	"           R  0" +
	"467534" +
	"  5 8 2 1 1 " +
	" " +
	"    3.0" +
	"    1.0"

func TestParseParLine(t *testing.T) {
	require.Len(t, coLine, RecordLength)

	l, err := ParseParLine(coLine)
	require.NoError(t, err)

	assert.Equal(t, 5, l.MoleculeID)
	assert.Equal(t, 1, l.IsotopologueID)
	assert.InDelta(t, 2147.081139, l.Nu, 1e-9)
	assert.InDelta(t, 1.919e-19, l.Sw, 1e-30)
	assert.InDelta(t, 14.28, l.A, 1e-9)
	assert.InDelta(t, 0.0532, l.GammaAir, 1e-12)
	assert.InDelta(t, 0.058, l.GammaSelf, 1e-12)
	assert.Zero(t, l.ELower)
	assert.InDelta(t, 0.69, l.NAir, 1e-12)
	assert.InDelta(t, -0.003046, l.DeltaAir, 1e-12)
	assert.Equal(t, "           R  0", l.LocalLowerQuanta)
	assert.Equal(t, "467534", l.ErrorCodes)
	assert.InDelta(t, 3.0, l.GUpper, 1e-12)
	assert.InDelta(t, 1.0, l.GLower, 1e-12)
}

func TestParseParLine_LocalIsoIDs(t *testing.T) {
	tests := []struct {
		c        string
		expected int
	}{
		{"1", 1},
		{"9", 9},
		{"0", 10},
		{"A", 11},
		{"B", 12},
	}

	for _, tt := range tests {
		t.Run(tt.c, func(t *testing.T) {
			l, err := ParseParLine(coLine[:2] + tt.c + coLine[3:])
			require.NoError(t, err)
			assert.Equal(t, tt.expected, l.IsotopologueID)
		})
	}

	_, err := ParseParLine(coLine[:2] + "*" + coLine[3:])
	assert.Error(t, err)
}

func TestParseParLine_Errors(t *testing.T) {
	_, err := ParseParLine(coLine[:40])
	assert.ErrorContains(t, err, "too short")

	_, err = ParseParLine(coLine[:3] + " 2147.08x139" + coLine[15:])
	assert.ErrorContains(t, err, "invalid nu")

	_, err = ParseParLine("xx" + coLine[2:])
	assert.ErrorContains(t, err, "invalid molec_id")
}

func TestParseParLine_TrimmedTrailingBlanks(t *testing.T) {
	short := strings.TrimRight(coLine[:127], " ")
	l, err := ParseParLine(short + "\r\n")
	require.NoError(t, err)
	assert.InDelta(t, 2147.081139, l.Nu, 1e-9)
	assert.Zero(t, l.GUpper)
}

func TestFormatParLine_RoundTrip(t *testing.T) {
	l, err := ParseParLine(coLine)
	require.NoError(t, err)

	out, err := FormatParLine(l)
	require.NoError(t, err)
	assert.Equal(t, coLine, out)
}

func TestFormatParLine_Errors(t *testing.T) {
	l, err := ParseParLine(coLine)
	require.NoError(t, err)

	l.IsotopologueID = 40
	_, err = FormatParLine(l)
	assert.Error(t, err)

	l.IsotopologueID = 1
	l.ELower = 1e12
	_, err = FormatParLine(l)
	assert.ErrorContains(t, err, "overflows")
}

func TestParseParLines(t *testing.T) {
	input := coLine + "\n\n" + coLine[:3] + " 2150.856010" + coLine[15:] + "\n"

	lines, err := ParseParLines(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.InDelta(t, 2150.85601, lines[1].Nu, 1e-9)

	_, err = ParseParLines(strings.NewReader(coLine + "\nbroken\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestWriteParLines(t *testing.T) {
	lines, err := ParseParLines(strings.NewReader(coLine + "\n" + coLine + "\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteParLines(&buf, lines))
	assert.Equal(t, coLine+"\n"+coLine+"\n", buf.String())
}
