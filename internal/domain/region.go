package domain

// Region is a WoT Blitz server realm. RegionAPI is a virtual wildcard
// covering every realm served by the WG API, which excludes china.
type Region string

const (
	RegionRU    Region = "ru"
	RegionEU    Region = "eu"
	RegionCom   Region = "com"
	RegionAsia  Region = "asia"
	RegionChina Region = "china"
	RegionAPI   Region = "API"
)

// APIRegions is the fixed member set of the RegionAPI wildcard.
var APIRegions = []Region{RegionEU, RegionCom, RegionAsia, RegionRU}

// Account id ranges are assigned per realm in ascending, non-overlapping
// blocks.
const (
	regionIDChina = 3_100_000_000
	regionIDAsia  = 2_000_000_000
	regionIDCom   = 1_000_000_000
	regionIDEU    = 500_000_000
)

// RegionFromAccountID classifies an account id into its realm. Negative ids
// are outside every realm's block and fail classification rather than
// defaulting.
func RegionFromAccountID(accountID int64) (Region, error) {
	switch {
	case accountID < 0:
		return "", &ClassificationError{AccountID: accountID}
	case accountID >= regionIDChina:
		return RegionChina, nil
	case accountID >= regionIDAsia:
		return RegionAsia, nil
	case accountID >= regionIDCom:
		return RegionCom, nil
	case accountID >= regionIDEU:
		return RegionEU, nil
	default:
		return RegionRU, nil
	}
}

// Matches reports whether two regions refer to the same realm, treating
// RegionAPI as matching any of its member realms in either position.
// RegionAPI never matches china.
func (r Region) Matches(other Region) bool {
	if r == other {
		return true
	}
	if r == RegionAPI {
		return other.isAPIMember()
	}
	if other == RegionAPI {
		return r.isAPIMember()
	}
	return false
}

func (r Region) isAPIMember() bool {
	for _, m := range APIRegions {
		if r == m {
			return true
		}
	}
	return false
}
