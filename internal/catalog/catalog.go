// Package catalog holds the reward configuration the engine evaluates against: the spend
// bracket tier table, the badge catalog and the spin-wheel rewards. A Catalog is loaded and
// validated once at startup and shared read-only afterwards.
package catalog

import (
	"fmt"
	"os"

	"github.com/shinyyama/storefront-rewards/internal/model"
	"gopkg.in/yaml.v3"
)

// CycleSize is the number of receipts in one bracket cycle.
const CycleSize = 10

// WeightTolerance is the allowed drift of the active spin weights from 100.
const WeightTolerance = 0.01

type Catalog struct {
	Tiers       TierTable               `yaml:"tiers"`
	Badges      []model.BadgeDefinition `yaml:"badges"`
	SpinRewards []SpinReward            `yaml:"spinRewards"`
}

// ConfigurationError reports a catalog that must not be served.
type ConfigurationError struct {
	Section string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid reward catalog (%s): %s", e.Section, e.Reason)
}

func configErr(section, format string, args ...interface{}) error {
	return &ConfigurationError{Section: section, Reason: fmt.Sprintf(format, args...)}
}

// Load reads a YAML catalog from path. An empty path yields the built-in default catalog.
// The result is always validated.
func Load(path string) (*Catalog, error) {
	if path == "" {
		c := Default()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reward catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse reward catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) Validate() error {
	if err := c.Tiers.Validate(); err != nil {
		return err
	}
	if err := validateBadges(c.Badges); err != nil {
		return err
	}
	return validateSpinRewards(c.SpinRewards)
}

// Badge returns the catalog entry for code.
func (c *Catalog) Badge(code string) (model.BadgeDefinition, bool) {
	for _, b := range c.Badges {
		if b.Code == code {
			return b, true
		}
	}
	return model.BadgeDefinition{}, false
}

func validateBadges(badges []model.BadgeDefinition) error {
	seen := make(map[string]struct{}, len(badges))
	for _, b := range badges {
		if b.Code == "" {
			return configErr("badges", "badge without code")
		}
		if _, dup := seen[b.Code]; dup {
			return configErr("badges", "duplicate badge code %q", b.Code)
		}
		seen[b.Code] = struct{}{}
		if b.BonusPoints < 0 {
			return configErr("badges", "badge %q has negative bonus", b.Code)
		}
		switch b.Category {
		case model.BadgeCategoryPurchaseCount, model.BadgeCategoryTotalSpend,
			model.BadgeCategoryReferralCount, model.BadgeCategoryOrderStreak:
			if b.Requirement <= 0 {
				return configErr("badges", "badge %q requirement must be positive", b.Code)
			}
		case model.BadgeCategoryTimeOfDay:
			if b.Requirement < 0 || b.Requirement > 23 {
				return configErr("badges", "badge %q hour requirement must be within 0..23", b.Code)
			}
		default:
			return configErr("badges", "badge %q has unknown category %q", b.Code, b.Category)
		}
	}
	return nil
}
