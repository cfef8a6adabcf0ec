package pray

// rates are currency units charged per name.
var rates = map[Category]int64{
	CategorySimple:  2,
	CategorySpecial: 20,
	CategoryForty:   800,
	CategoryYearly:  2000,
}

// Rate returns the per-name price of the category.
func Rate(c Category) (int64, error) {
	rate, ok := rates[c]
	if !ok {
		return 0, ErrInvalidCategory
	}
	return rate, nil
}

// Price is (live + rip) names times the category rate.
func Price(c Category, liveCount, ripCount int) (int64, error) {
	rate, err := Rate(c)
	if err != nil {
		return 0, err
	}
	return int64(liveCount+ripCount) * rate, nil
}
