package domain

type Product struct {
	ID         int64
	Name       string
	Quantity   int
	LocationID int64
}

type StorageLocation struct {
	ID           int64
	Name         string
	MaxCapacity  int
	UsedCapacity int
}

type UtilizationStatus string

const (
	UtilizationLow          UtilizationStatus = "LowUtilization"
	UtilizationEfficient    UtilizationStatus = "Efficient"
	UtilizationNearCapacity UtilizationStatus = "NearCapacity"
)

type UtilizationReport struct {
	Location       string
	UsedCapacity   int
	MaxCapacity    int
	UtilizationPct float64
	Status         UtilizationStatus
}

// Utilization derives the report for a location. Thresholds: below 50%
// is low, below 90% is efficient, 90% and above is near capacity.
func Utilization(loc StorageLocation) UtilizationReport {
	pct := 0.0
	if loc.MaxCapacity > 0 {
		pct = float64(loc.UsedCapacity) / float64(loc.MaxCapacity) * 100
	}

	status := UtilizationLow
	switch {
	case pct >= 90:
		status = UtilizationNearCapacity
	case pct >= 50:
		status = UtilizationEfficient
	}

	return UtilizationReport{
		Location:       loc.Name,
		UsedCapacity:   loc.UsedCapacity,
		MaxCapacity:    loc.MaxCapacity,
		UtilizationPct: pct,
		Status:         status,
	}
}
