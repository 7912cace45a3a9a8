package models

// SortOrder is one of the fixed listing orders. The zero value sorts by
// title ascending.
type SortOrder int

const (
	SortTitle SortOrder = iota
	SortTitleDesc
	SortCompleted
	SortCompletedDesc
	SortCreated
	SortCreatedDesc
	SortUpdated
	SortUpdatedDesc
)

// ParseSortOrder maps a sort key to its order. Unknown and empty keys fall
// back to SortTitle.
func ParseSortOrder(key string) SortOrder {
	switch key {
	case "Title":
		return SortTitle
	case "title_desc":
		return SortTitleDesc
	case "IsCompleted":
		return SortCompleted
	case "completed_desc":
		return SortCompletedDesc
	case "CreatedDate":
		return SortCreated
	case "created_desc":
		return SortCreatedDesc
	case "UpdatedDate":
		return SortUpdated
	case "updated_desc":
		return SortUpdatedDesc
	default:
		return SortTitle
	}
}

func (s SortOrder) String() string {
	switch s {
	case SortTitleDesc:
		return "title_desc"
	case SortCompleted:
		return "IsCompleted"
	case SortCompletedDesc:
		return "completed_desc"
	case SortCreated:
		return "CreatedDate"
	case SortCreatedDesc:
		return "created_desc"
	case SortUpdated:
		return "UpdatedDate"
	case SortUpdatedDesc:
		return "updated_desc"
	default:
		return "Title"
	}
}

// Descending reports whether the order is a _desc variant.
func (s SortOrder) Descending() bool {
	switch s {
	case SortTitleDesc, SortCompletedDesc, SortCreatedDesc, SortUpdatedDesc:
		return true
	default:
		return false
	}
}
