// Package resolver centralizes every SKU/name heuristic that links store
// variants to their main product. All suffix stripping and matching lives
// here — callers must never duplicate these rules.
package resolver

import (
	"fmt"
	"regexp"
	"strings"

	"stockyard/internal/model"
)

var canonicalSuffix = regexp.MustCompile(`-S(\d+)$`)

// SanitizeStoreName reduces a store name to uppercase alphanumerics
// ("Main Store" → "MAINSTORE"). May return "" for names with no usable
// characters.
func SanitizeStoreName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// VariantSKU generates the SKU for a new store variant of main.
// POS stores get a "-POS-" infix; stores whose name sanitizes to nothing
// fall back to the canonical numeric suffix.
func VariantSKU(main *model.Product, store *model.Store) string {
	san := SanitizeStoreName(store.Name)
	if san == "" {
		return fmt.Sprintf("%s-S%d", main.SKU, store.ID)
	}
	if store.HasPOS {
		return fmt.Sprintf("%s-POS-%s", main.SKU, san)
	}
	return fmt.Sprintf("%s-%s", main.SKU, san)
}

// Matches reports whether candidate is a store variant of main, evaluating
// the ordered rule list (first hit wins):
//
//  1. exact SKU equality, case-insensitive
//  2. canonical suffix: mainSKU-S<storeID>
//  3. store-name suffix: mainSKU-<SAN> or, for POS stores, mainSKU-POS-<SAN>
//  4. exact name equality, case-insensitive (legacy fallback)
//
// Rule 4 can falsely merge unrelated products that share a display name;
// this is a known, accepted limitation of the legacy data and must not be
// "fixed" here without product sign-off.
//
// A candidate only qualifies with a non-nil StoreID, Active, and no soft
// delete — regardless of which rule would match.
func Matches(main *model.Product, candidate *model.Product, stores []model.Store) bool {
	if candidate.StoreID == nil || !candidate.Live() || candidate.ID == main.ID {
		return false
	}

	cSKU := strings.ToUpper(strings.TrimSpace(candidate.SKU))
	mSKU := strings.ToUpper(strings.TrimSpace(main.SKU))

	if mSKU != "" {
		// Rule 1: exact SKU equality.
		if cSKU == mSKU {
			return true
		}
		// Rule 2: canonical -S<storeID> suffix.
		if cSKU == fmt.Sprintf("%s-S%d", mSKU, *candidate.StoreID) {
			return true
		}
		// Rule 3: store-name-derived suffix.
		if st := findStore(stores, *candidate.StoreID); st != nil {
			san := SanitizeStoreName(st.Name)
			if san != "" {
				if cSKU == mSKU+"-"+san {
					return true
				}
				if st.HasPOS && cSKU == mSKU+"-POS-"+san {
					return true
				}
			}
		}
	}

	// Rule 4: name fallback for legacy/malformed SKUs.
	return main.Name != "" && strings.EqualFold(strings.TrimSpace(candidate.Name), strings.TrimSpace(main.Name))
}

// ResolveVariants filters candidates down to the store variants of main.
// Candidates failing every rule are excluded (false positives like
// "SHIRT-BLUE" against main "SHIRT").
func ResolveVariants(main *model.Product, candidates []model.Product, stores []model.Store) []model.Product {
	var variants []model.Product
	for i := range candidates {
		if Matches(main, &candidates[i], stores) {
			variants = append(variants, candidates[i])
		}
	}
	return variants
}

// VariantStoreIDs returns the set of store ids that already hold a variant
// of main. Used for duplicate-assignment detection.
func VariantStoreIDs(main *model.Product, candidates []model.Product, stores []model.Store) map[uint]bool {
	ids := make(map[uint]bool)
	for _, v := range ResolveVariants(main, candidates, stores) {
		if v.StoreID != nil {
			ids[*v.StoreID] = true
		}
	}
	return ids
}

// BaseSKU recovers the main product's SKU from a variant SKU by stripping
// the known suffix families: -S<digits>, -<SAN>, -POS-<SAN>. The second
// return value is false when no known suffix is present (the SKU is already
// a base SKU, or the record is malformed).
func BaseSKU(sku string, stores []model.Store) (string, bool) {
	trimmed := strings.TrimSpace(sku)
	if trimmed == "" {
		return "", false
	}

	if m := canonicalSuffix.FindStringIndex(trimmed); m != nil && m[0] > 0 {
		return trimmed[:m[0]], true
	}

	upper := strings.ToUpper(trimmed)
	for i := range stores {
		san := SanitizeStoreName(stores[i].Name)
		if san == "" {
			continue
		}
		for _, suffix := range []string{"-POS-" + san, "-" + san} {
			if strings.HasSuffix(upper, suffix) && len(upper) > len(suffix) {
				return trimmed[:len(trimmed)-len(suffix)], true
			}
		}
	}
	return trimmed, false
}

func findStore(stores []model.Store, id uint) *model.Store {
	for i := range stores {
		if stores[i].ID == id {
			return &stores[i]
		}
	}
	return nil
}
