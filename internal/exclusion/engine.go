package exclusion

import (
	"fmt"
	"slices"
	"strings"

	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
)

// NoticeFormat is the message shown to the customer for each excluded rate
const NoticeFormat = "The following products: %s can't be delivered with the shipping method: %s"

// Compute filters rates against the exclusions configured for the cart's shipping classes.
// Remaining rates keep their input order, and one notice is produced per removed rate.
func Compute(items []domain.LineItem, cfg domain.ExclusionConfig, rates []domain.Rate) domain.ExclusionResult {
	triggers := excludedBy(items, cfg)

	result := domain.ExclusionResult{
		RemainingRates: make([]domain.Rate, 0, len(rates)),
		Notices:        []string{},
	}

	for _, rate := range rates {
		names, excluded := triggers[rate.ID]
		if !excluded {
			result.RemainingRates = append(result.RemainingRates, rate)
			continue
		}
		result.Notices = append(result.Notices, Notice(names, rate.Label))
	}

	return result
}

// ExcludedMethodIDs returns the sorted set of method instance IDs the cart excludes
func ExcludedMethodIDs(items []domain.LineItem, cfg domain.ExclusionConfig) []string {
	triggers := excludedBy(items, cfg)
	ids := make([]string, 0, len(triggers))
	for id := range triggers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Notice formats the message for a rate excluded because of the given products
func Notice(productNames []string, rateLabel string) string {
	return fmt.Sprintf(NoticeFormat, strings.Join(productNames, ", "), rateLabel)
}

// excludedBy maps each excluded method instance ID to the names of the products
// whose shipping class excludes it, in order of first occurrence.
func excludedBy(items []domain.LineItem, cfg domain.ExclusionConfig) map[string][]string {
	triggers := make(map[string][]string)
	if len(cfg) == 0 {
		return triggers
	}

	for _, item := range items {
		methods, ok := cfg[item.ShippingClass]
		if !ok {
			continue
		}
		for methodID, enabled := range methods {
			if !enabled {
				continue
			}
			if !slices.Contains(triggers[methodID], item.ProductName) {
				triggers[methodID] = append(triggers[methodID], item.ProductName)
			}
		}
	}

	return triggers
}
