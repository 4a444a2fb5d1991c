package cards

// Thresholds are the upper weight bounds of each rarity band for the
// absolute-weight policy.
type Thresholds struct {
	ExtremelyRareMax int
	RareMax          int
	LessCommonMax    int
}

// DefaultThresholds returns the reference banding for the community sheet.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExtremelyRareMax: 30,
		RareMax:          1000,
		LessCommonMax:    5000,
	}
}

// WeightClassifier bands rows by absolute drop weight. A zero weight means the
// source has no sampling data for the item; that stays Unknown rather than
// reading as confirmed-rare, whatever the boss status.
type WeightClassifier struct {
	thresholds Thresholds
}

// NewWeightClassifier creates the absolute-weight classifier.
func NewWeightClassifier(t Thresholds) *WeightClassifier {
	return &WeightClassifier{thresholds: t}
}

// ClassifyWeight returns the rarity band for a single absolute weight.
func (c *WeightClassifier) ClassifyWeight(weight int) Rarity {
	switch {
	case weight <= 0:
		return RarityUnknown
	case weight <= c.thresholds.ExtremelyRareMax:
		return RarityExtremelyRare
	case weight <= c.thresholds.RareMax:
		return RarityRare
	case weight <= c.thresholds.LessCommonMax:
		return RarityLessCommon
	default:
		return RarityCommon
	}
}

// Classify tags every row with its rarity band.
func (c *WeightClassifier) Classify(rows []RawRow) []ClassifiedRow {
	out := make([]ClassifiedRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, ClassifiedRow{RawRow: row, Rarity: c.ClassifyWeight(row.Weight)})
	}
	return out
}

// RelativeClassifier bands rows by their share of the strongest weight in the
// batch, falling back to the community bucket tier for rows without weight
// data. Its rules are independent of WeightClassifier's; the two policies are
// never combined.
type RelativeClassifier struct{}

// Classify tags every row relative to the batch maximum.
func (RelativeClassifier) Classify(rows []RawRow) []ClassifiedRow {
	maxWeight := 0
	for _, row := range rows {
		if row.Weight > maxWeight {
			maxWeight = row.Weight
		}
	}

	out := make([]ClassifiedRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, ClassifiedRow{RawRow: row, Rarity: classifyRelative(row, maxWeight)})
	}
	return out
}

func classifyRelative(row RawRow, maxWeight int) Rarity {
	if maxWeight <= 0 {
		return RarityUnknown
	}
	if row.Weight <= 0 {
		return bucketRarity(row.Bucket)
	}

	pct := float64(row.Weight) / float64(maxWeight) * 100
	switch {
	case pct >= 70:
		return RarityCommon
	case pct >= 35:
		return RarityLessCommon
	case pct >= 5:
		return RarityRare
	default:
		return RarityExtremelyRare
	}
}

// bucketRarity maps the community bucket tier to a rarity band. Buckets
// outside the known range read as extremely rare, the conservative default.
func bucketRarity(bucket int) Rarity {
	switch {
	case bucket >= 1 && bucket <= 5:
		return RarityCommon
	case bucket >= 6 && bucket <= 12:
		return RarityLessCommon
	case bucket >= 13 && bucket <= 17:
		return RarityRare
	default:
		return RarityExtremelyRare
	}
}
