package photo

import "fmt"

// Category groups photos in the gallery. All is only a filter value.
type Category string

const (
	All            Category = "All"
	Travel         Category = "Travel"
	DailyLife      Category = "Daily Life"
	SpecialMoments Category = "Special Moments"
	Celebrations   Category = "Celebrations"
)

// FilterOption is a label/value pair shown in the category filter bar
type FilterOption struct {
	Label string   `json:"label"`
	Value Category `json:"value"`
}

// Categories returns the storable categories in display order
func Categories() []Category {
	return []Category{Travel, DailyLife, SpecialMoments, Celebrations}
}

// FilterOptions returns All followed by every storable category
func FilterOptions() []FilterOption {
	options := []FilterOption{{Label: string(All), Value: All}}
	for _, c := range Categories() {
		options = append(options, FilterOption{Label: string(c), Value: c})
	}
	return options
}

func (c Category) valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory accepts storable categories only
func ParseCategory(value string) (Category, error) {
	c := Category(value)
	if !c.valid() {
		return "", &ValidationError{Field: "category", Reason: fmt.Sprintf("%q is not a storable category", value)}
	}
	return c, nil
}

// ParseFilter accepts All or any storable category. An empty value means All.
func ParseFilter(value string) (Category, error) {
	if value == "" || Category(value) == All {
		return All, nil
	}
	return ParseCategory(value)
}

// FilterByCategory keeps the records matching filter, preserving their order
func FilterByCategory(records []*Record, filter Category) []*Record {
	if filter == All || filter == "" {
		return records
	}
	filtered := make([]*Record, 0, len(records))
	for _, r := range records {
		if r.Category == filter {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
