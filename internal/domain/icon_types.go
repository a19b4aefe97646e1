package domain

// IconType is the icon tag attached to a main category.
type IconType string

func (i IconType) String() string {
	return string(i)
}

const (
	IconMedical     IconType = "medical"
	IconLaboratory  IconType = "laboratory"
	IconEducational IconType = "educational"
	IconFirstAid    IconType = "first-aid"
)

var IconTypes = []IconType{
	IconMedical,
	IconLaboratory,
	IconEducational,
	IconFirstAid,
}

func (i IconType) GetIconName() string {
	switch i {
	case IconMedical:
		return "Medical"
	case IconLaboratory:
		return "Laboratory"
	case IconEducational:
		return "Educational"
	case IconFirstAid:
		return "First Aid"
	default:
		return "Unknown"
	}
}

func (i IconType) Valid() bool {
	for _, t := range IconTypes {
		if t == i {
			return true
		}
	}
	return false
}
