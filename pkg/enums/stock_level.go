package enums

// StockLevel classifies a loan product's remaining stock against its
// configured thresholds.
type StockLevel string

const (
	StockLevelOK       StockLevel = "ok"
	StockLevelLow      StockLevel = "low"
	StockLevelCritical StockLevel = "critical"
	StockLevelOut      StockLevel = "out"
)

// String implements fmt.Stringer.
func (l StockLevel) String() string {
	return string(l)
}

// ClassifyStock maps a quantity onto a StockLevel given the product thresholds.
func ClassifyStock(quantity, lowThreshold, criticalThreshold int) StockLevel {
	switch {
	case quantity <= 0:
		return StockLevelOut
	case quantity <= criticalThreshold:
		return StockLevelCritical
	case quantity <= lowThreshold:
		return StockLevelLow
	default:
		return StockLevelOK
	}
}
