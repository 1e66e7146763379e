package domain

type Resources struct {
	Cells            int64
	ExperiencePoints int64
}

// Add returns r with gain added. Experience stops growing at bankCap (nil for no cap).
//
// Resources never decrease through Add: experience already above the cap is kept.
func (r Resources) Add(gain Resources, bankCap *int64) Resources {
	result := Resources{
		Cells:            r.Cells + max(0, gain.Cells),
		ExperiencePoints: r.ExperiencePoints + max(0, gain.ExperiencePoints),
	}

	if bankCap != nil && result.ExperiencePoints > *bankCap {
		result.ExperiencePoints = max(r.ExperiencePoints, *bankCap)
	}

	return result
}

// IsZero reports whether r holds no resources of either kind
func (r Resources) IsZero() bool {
	return r.Cells == 0 && r.ExperiencePoints == 0
}
