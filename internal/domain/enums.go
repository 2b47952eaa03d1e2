package domain

import "strings"

// WinnerTeam is the team number recorded as the battle winner, 0 for a draw.
type WinnerTeam int

const (
	WinnerTeamDraw WinnerTeam = 0
	WinnerTeamOne  WinnerTeam = 1
	WinnerTeamTwo  WinnerTeam = 2
)

// BattleResult is both the raw value recorded by the uploading player and
// the perspective-derived value returned by BattleResultFor.
type BattleResult int

const (
	BattleResultIncomplete BattleResult = -1
	BattleResultNotWin     BattleResult = 0
	BattleResultWin        BattleResult = 1
	BattleResultLoss       BattleResult = 2
	BattleResultDraw       BattleResult = 3
)

func (r BattleResult) String() string {
	var name string
	switch r {
	case BattleResultIncomplete:
		name = "incomplete"
	case BattleResultNotWin:
		name = "not win"
	case BattleResultWin:
		name = "win"
	case BattleResultLoss:
		name = "loss"
	case BattleResultDraw:
		name = "draw"
	default:
		name = "unknown"
	}
	return capitalize(name)
}

// VehicleClass is the vehicle type bucket of the protagonist's tank.
type VehicleClass int

const (
	VehicleLightTank     VehicleClass = 0
	VehicleMediumTank    VehicleClass = 1
	VehicleHeavyTank     VehicleClass = 2
	VehicleTankDestroyer VehicleClass = 3
)

func (v VehicleClass) String() string {
	var name string
	switch v {
	case VehicleLightTank:
		name = "light tank"
	case VehicleMediumTank:
		name = "medium tank"
	case VehicleHeavyTank:
		name = "heavy tank"
	case VehicleTankDestroyer:
		name = "tank destroyer"
	default:
		name = "unknown"
	}
	return capitalize(name)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
