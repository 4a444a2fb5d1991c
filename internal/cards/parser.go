package cards

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// SentinelHeader is the aggregate-total column the community sheet always
// carries. Column positions shift between releases, so every other column is
// located relative to this one.
const SentinelHeader = "All samples"

const (
	// sampleSizeRow is the sheet's own aggregate row. Only this exact
	// spelling is skipped; case variants are real item names.
	sampleSizeRow = "Sample Size"

	// bossMarker flags a card as boss-exclusive in the source column.
	bossMarker = "boss"
)

// The column before the sentinel must be a league name. A bare version number
// there means the sheet layout drifted and the league column moved.
var versionLikePattern = regexp.MustCompile(`^\d+\.\d+$`)

var (
	ErrMissingSentinelColumn        = errors.New("sentinel column not found in header")
	ErrSentinelIsFirstColumn        = errors.New("sentinel is the first column, no league column precedes it")
	ErrLeagueColumnLooksLikeVersion = errors.New("league column header is a version number")
)

// ParseResult holds the parsed rows and the raw league label from the header.
// The label is unresolved here; canonicalizing it is the league resolver's job.
type ParseResult struct {
	Rows   []RawRow
	League string
}

// Parse turns the raw weight sheet into structured rows. The current-league
// weight column is the one immediately preceding the sentinel column.
func Parse(data []byte) (*ParseResult, error) {
	lines := strings.Split(string(data), "\n")

	// Header is the first non-blank line
	start := -1
	var header []string
	for i, line := range lines {
		if strings.TrimSpace(strings.TrimSuffix(line, "\r")) == "" {
			continue
		}
		header = splitLine(strings.TrimSuffix(line, "\r"))
		start = i + 1
		break
	}
	if start == -1 {
		return nil, ErrMissingSentinelColumn
	}

	sentinelIdx := -1
	for i, cell := range header {
		if strings.TrimSpace(cell) == SentinelHeader {
			sentinelIdx = i
			break
		}
	}
	if sentinelIdx == -1 {
		return nil, ErrMissingSentinelColumn
	}
	if sentinelIdx == 0 {
		return nil, ErrSentinelIsFirstColumn
	}

	weightIdx := sentinelIdx - 1
	league := strings.TrimSpace(header[weightIdx])
	if versionLikePattern.MatchString(league) {
		return nil, fmt.Errorf("%w: %q", ErrLeagueColumnLooksLikeVersion, league)
	}

	result := &ParseResult{League: league}
	for _, line := range lines[start:] {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := splitLine(line)
		name := strings.TrimSpace(fields[0])
		if name == "" || name == sampleSizeRow {
			continue
		}

		result.Rows = append(result.Rows, RawRow{
			ItemName:       name,
			Bucket:         intAt(fields, 1),
			Weight:         intAt(fields, weightIdx),
			FromBoss:       hasBossMarker(fields),
			RawLeagueLabel: league,
		})
	}

	return result, nil
}

// splitLine splits a comma-delimited line. Fields wrapped in double quotes may
// contain commas and doubled-quote escapes; lines without any quote character
// take the plain-split fast path.
func splitLine(line string) []string {
	if !strings.Contains(line, `"`) {
		return strings.Split(line, ",")
	}

	var fields []string
	var field strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				field.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}
	fields = append(fields, field.String())
	return fields
}

// intAt parses fields[idx] as a non-negative integer. Absent, blank, negative
// and unparsable cells all read as 0.
func intAt(fields []string, idx int) int {
	if idx < 0 || idx >= len(fields) {
		return 0
	}
	s := strings.TrimSpace(fields[idx])
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// hasBossMarker reports whether the drop-source column carries the boss
// marker. Anything else, including a missing column, means not boss-exclusive.
func hasBossMarker(fields []string) bool {
	const sourceIdx = 3
	if sourceIdx >= len(fields) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(fields[sourceIdx]), bossMarker)
}
