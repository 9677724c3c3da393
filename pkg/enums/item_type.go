package enums

import "fmt"

// ItemType categorizes the scrap material being auctioned.
type ItemType string

const (
	ItemTypeIron      ItemType = "iron"
	ItemTypeMetal     ItemType = "metal"
	ItemTypeAluminium ItemType = "aluminium"
)

var validItemTypes = []ItemType{
	ItemTypeIron,
	ItemTypeMetal,
	ItemTypeAluminium,
}

// String implements fmt.Stringer.
func (i ItemType) String() string {
	return string(i)
}

// IsValid reports whether the value is a known ItemType.
func (i ItemType) IsValid() bool {
	for _, candidate := range validItemTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseItemType converts raw input into an ItemType.
func ParseItemType(value string) (ItemType, error) {
	for _, candidate := range validItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item type %q", value)
}
