package catalog

// Tier maps an inclusive spend range to a bracket reward. A nil MaxSpend is unbounded.
type Tier struct {
	MinSpend    int64  `yaml:"minSpend"`
	MaxSpend    *int64 `yaml:"maxSpend"`
	RewardValue int64  `yaml:"reward"`
	Label       string `yaml:"label"`
}

func (t Tier) Contains(spend int64) bool {
	if spend < t.MinSpend {
		return false
	}
	return t.MaxSpend == nil || spend <= *t.MaxSpend
}

// TierTable is ordered by MinSpend and spans 0..∞ without gaps or overlaps.
type TierTable []Tier

// Match returns the index of the tier containing spend, or -1.
func (tt TierTable) Match(spend int64) (int, Tier) {
	for i, t := range tt {
		if t.Contains(spend) {
			return i, t
		}
	}
	return -1, Tier{}
}

func (tt TierTable) Validate() error {
	if len(tt) == 0 {
		return configErr("tiers", "tier table is empty")
	}
	if tt[0].MinSpend != 0 {
		return configErr("tiers", "first tier must start at 0, got %d", tt[0].MinSpend)
	}
	for i, t := range tt {
		if t.RewardValue < 0 {
			return configErr("tiers", "tier %d has negative reward", i)
		}
		last := i == len(tt)-1
		if t.MaxSpend == nil {
			if !last {
				return configErr("tiers", "tier %d is unbounded but not last", i)
			}
			continue
		}
		if *t.MaxSpend < t.MinSpend {
			return configErr("tiers", "tier %d max %d below min %d", i, *t.MaxSpend, t.MinSpend)
		}
		if last {
			return configErr("tiers", "last tier must be unbounded")
		}
		next := tt[i+1].MinSpend
		switch {
		case next <= *t.MaxSpend:
			return configErr("tiers", "tiers %d and %d overlap", i, i+1)
		case next > *t.MaxSpend+1:
			return configErr("tiers", "gap between tier %d and %d", i, i+1)
		}
	}
	return nil
}
