// Package hitran reads HITRAN line-by-line data in the 160-character .par
// format and fetches it from the HITRANonline API.
package hitran

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.ngs.io/xsec-api/internal/domain"
)

// RecordLength is the width of a HITRAN2004+ .par record.
const RecordLength = 160

// minRecordLength covers the fields up to delta_air. Shorter lines are rejected,
// longer ones that lost trailing blanks are padded.
const minRecordLength = 67

// ParseParLine parses one fixed-width .par record.
// Format (0-based column ranges):
//
//	[0:2] molec_id  [2:3] local_iso_id  [3:15] nu  [15:25] sw  [25:35] a
//	[35:40] gamma_air  [40:45] gamma_self  [45:55] elower  [55:59] n_air
//	[59:67] delta_air  [67:127] quanta  [127:133] ierr  [133:145] iref
//	[145:146] line_mixing_flag  [146:153] gp  [153:160] gpp
func ParseParLine(line string) (domain.Line, error) {
	// Columns count characters, not bytes.
	rec := []rune(strings.TrimRight(line, "\r\n"))
	if len(rec) < minRecordLength {
		return domain.Line{}, fmt.Errorf("record too short: %d characters", len(rec))
	}
	for len(rec) < RecordLength {
		rec = append(rec, ' ')
	}
	col := func(from, to int) string { return string(rec[from:to]) }

	var l domain.Line
	var err error

	if l.MoleculeID, err = strconv.Atoi(strings.TrimSpace(col(0, 2))); err != nil {
		return domain.Line{}, fmt.Errorf("invalid molec_id '%s': %w", col(0, 2), err)
	}
	if l.IsotopologueID, err = parseLocalIsoID(rec[2]); err != nil {
		return domain.Line{}, err
	}

	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"nu", col(3, 15), &l.Nu},
		{"sw", col(15, 25), &l.Sw},
		{"a", col(25, 35), &l.A},
		{"gamma_air", col(35, 40), &l.GammaAir},
		{"gamma_self", col(40, 45), &l.GammaSelf},
		{"elower", col(45, 55), &l.ELower},
		{"n_air", col(55, 59), &l.NAir},
		{"delta_air", col(59, 67), &l.DeltaAir},
		{"gp", col(146, 153), &l.GUpper},
		{"gpp", col(153, 160), &l.GLower},
	}
	for _, f := range fields {
		if *f.dst, err = parseFloatField(f.raw); err != nil {
			return domain.Line{}, fmt.Errorf("invalid %s '%s': %w", f.name, f.raw, err)
		}
	}

	l.GlobalUpperQuanta = col(67, 82)
	l.GlobalLowerQuanta = col(82, 97)
	l.LocalUpperQuanta = col(97, 112)
	l.LocalLowerQuanta = col(112, 127)
	l.ErrorCodes = col(127, 133)
	l.References = col(133, 145)
	l.LineMixingFlag = col(145, 146)

	return l, nil
}

// parseLocalIsoID decodes the single-character isotopologue number.
// HITRAN writes 10 as '0' and continues with 'A', 'B', ...
func parseLocalIsoID(c rune) (int, error) {
	switch {
	case c == '0':
		return 10, nil
	case c >= '1' && c <= '9':
		return int(c - '0'), nil
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 11, nil
	default:
		return 0, fmt.Errorf("invalid local_iso_id '%c'", c)
	}
}

func formatLocalIsoID(id int) (string, error) {
	switch {
	case id == 10:
		return "0", nil
	case id >= 1 && id <= 9:
		return strconv.Itoa(id), nil
	case id >= 11 && id <= 36:
		return string(rune('A' + id - 11)), nil
	default:
		return "", fmt.Errorf("isotopologue id %d cannot be written in one character", id)
	}
}

func parseFloatField(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// fixed writes v as a Fortran Fw.d field, dropping the leading zero when the
// value would not otherwise fit (0.0700 -> .0700).
func fixed(v float64, width, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if len(s) > width {
		switch {
		case strings.HasPrefix(s, "0."):
			s = s[1:]
		case strings.HasPrefix(s, "-0."):
			s = "-" + s[2:]
		}
	}
	return fmt.Sprintf("%*s", width, s)
}

func text(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}

// FormatParLine writes a line as a 160-character .par record.
func FormatParLine(l domain.Line) (string, error) {
	iso, err := formatLocalIsoID(l.IsotopologueID)
	if err != nil {
		return "", err
	}
	if l.MoleculeID < 0 || l.MoleculeID > 99 {
		return "", fmt.Errorf("molecule id %d cannot be written in two characters", l.MoleculeID)
	}

	var b strings.Builder
	b.Grow(RecordLength)
	fmt.Fprintf(&b, "%2d%s", l.MoleculeID, iso)
	b.WriteString(fixed(l.Nu, 12, 6))
	fmt.Fprintf(&b, "%10.3E%10.3E", l.Sw, l.A)
	b.WriteString(fixed(l.GammaAir, 5, 4))
	b.WriteString(fixed(l.GammaSelf, 5, 3))
	b.WriteString(fixed(l.ELower, 10, 4))
	b.WriteString(fixed(l.NAir, 4, 2))
	b.WriteString(fixed(l.DeltaAir, 8, 6))
	b.WriteString(text(l.GlobalUpperQuanta, 15))
	b.WriteString(text(l.GlobalLowerQuanta, 15))
	b.WriteString(text(l.LocalUpperQuanta, 15))
	b.WriteString(text(l.LocalLowerQuanta, 15))
	b.WriteString(text(l.ErrorCodes, 6))
	b.WriteString(text(l.References, 12))
	b.WriteString(text(l.LineMixingFlag, 1))
	b.WriteString(fixed(l.GUpper, 7, 1))
	b.WriteString(fixed(l.GLower, 7, 1))

	out := b.String()
	if n := utf8.RuneCountInString(out); n != RecordLength {
		return "", fmt.Errorf("line at %.6f cm-1 overflows the record: %d characters", l.Nu, n)
	}
	return out, nil
}

// ParseParLines reads every non-blank record from r.
func ParseParLines(r io.Reader) ([]domain.Line, error) {
	var lines []domain.Line
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		raw := scanner.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}
		l, err := ParseParLine(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		lines = append(lines, l)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return lines, nil
}

// WriteParLines writes lines as .par records, one per row.
func WriteParLines(w io.Writer, lines []domain.Line) error {
	bw := bufio.NewWriter(w)
	for i, l := range lines {
		rec, err := FormatParLine(l)
		if err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		if _, err := bw.WriteString(rec + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
