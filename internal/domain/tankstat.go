package domain

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// StatID is an opaque fixed-width 96-bit storage identifier for one
// per-vehicle statistics row. It deterministically packs
// (account_id, tank_id, last_battle_time) into 40+24+32 bits, so resubmitting
// the same row always yields the same id and ids sort lexicographically by
// account, then vehicle, then time.
type StatID [12]byte

const (
	statIDAccountBits = 40
	statIDTankBits    = 24
	statIDTimeBits    = 32
)

// MakeStatID packs the identity triple into a StatID. A component exceeding
// its segment width is an error; silent truncation would break decoding.
func MakeStatID(accountID int64, tankID int64, lastBattleTime int64) (StatID, error) {
	var id StatID
	if accountID < 0 || accountID >= 1<<statIDAccountBits {
		return id, &EncodingOverflowError{Field: "account_id", Value: uint64(accountID), Bits: statIDAccountBits}
	}
	if tankID < 0 || tankID >= 1<<statIDTankBits {
		return id, &EncodingOverflowError{Field: "tank_id", Value: uint64(tankID), Bits: statIDTankBits}
	}
	if lastBattleTime < 0 || lastBattleTime >= 1<<statIDTimeBits {
		return id, &EncodingOverflowError{Field: "last_battle_time", Value: uint64(lastBattleTime), Bits: statIDTimeBits}
	}

	for i := 0; i < 5; i++ {
		id[i] = byte(accountID >> (8 * (4 - i)))
	}
	for i := 0; i < 3; i++ {
		id[5+i] = byte(tankID >> (8 * (2 - i)))
	}
	for i := 0; i < 4; i++ {
		id[8+i] = byte(lastBattleTime >> (8 * (3 - i)))
	}
	return id, nil
}

// ParseStatID decodes the 24-hex-digit form.
func ParseStatID(s string) (StatID, error) {
	var id StatID
	if len(s) != hex.EncodedLen(len(id)) {
		return id, fmt.Errorf("stat id %q: want %d hex digits", s, hex.EncodedLen(len(id)))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("stat id %q: %w", s, err)
	}
	return id, nil
}

// Parts recovers the exact identity triple the id was built from.
func (id StatID) Parts() (accountID int64, tankID int64, lastBattleTime int64) {
	for i := 0; i < 5; i++ {
		accountID = accountID<<8 | int64(id[i])
	}
	for i := 5; i < 8; i++ {
		tankID = tankID<<8 | int64(id[i])
	}
	for i := 8; i < 12; i++ {
		lastBattleTime = lastBattleTime<<8 | int64(id[i])
	}
	return accountID, tankID, lastBattleTime
}

func (id StatID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether the id is unset.
func (id StatID) IsZero() bool {
	return id == StatID{}
}

func (id StatID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *StatID) UnmarshalText(b []byte) error {
	parsed, err := ParseStatID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// TankStatAll is the aggregate statistics block of one tank-stat row.
type TankStatAll struct {
	Spotted              int  `json:"sp"`
	Hits                 int  `json:"h"`
	Frags                int  `json:"k"`
	MaxXP                *int `json:"max_xp,omitempty"`
	Wins                 int  `json:"w"`
	Losses               int  `json:"l"`
	CapturePoints        int  `json:"cp"`
	Battles              int  `json:"b"`
	DamageDealt          int  `json:"dd"`
	DamageReceived       int  `json:"dr"`
	MaxFrags             int  `json:"mk"`
	Shots                int  `json:"sh"`
	Frags8p              *int `json:"frags8p,omitempty"`
	XP                   *int `json:"xp,omitempty"`
	WinAndSurvived       int  `json:"ws"`
	SurvivedBattles      int  `json:"sb"`
	DroppedCapturePoints int  `json:"dp"`
}

// TankStat is one per-vehicle statistics row for one account and upload.
// Its id is never assigned independently: Finalize derives it from the
// identity triple, and the region from the account id when not supplied.
type TankStat struct {
	ID             StatID      `json:"_id"`
	Region         Region      `json:"r,omitempty"`
	All            TankStatAll `json:"s"`
	LastBattleTime int64       `json:"lb"`
	AccountID      int64       `json:"a"`
	TankID         int64       `json:"t"`
	MarkOfMastery  int         `json:"m"`
	BattleLifeTime int         `json:"l"`

	MaxXP           *int  `json:"max_xp,omitempty"`
	InGarageUpdated *int  `json:"in_garage_updated,omitempty"`
	MaxFrags        *int  `json:"max_frags,omitempty"`
	Frags           *int  `json:"frags,omitempty"`
	InGarage        *bool `json:"in_garage,omitempty"`
}

// Finalize derives the stat id and the region. Safe to call repeatedly: the
// same triple always produces the same id.
func (t *TankStat) Finalize() error {
	if t.ID.IsZero() {
		id, err := MakeStatID(t.AccountID, t.TankID, t.LastBattleTime)
		if err != nil {
			return err
		}
		t.ID = id
	}
	if t.Region == "" {
		region, err := RegionFromAccountID(t.AccountID)
		if err != nil {
			return err
		}
		t.Region = region
	}
	return nil
}

// WGAPIError is the error block of a WG API response envelope.
type WGAPIError struct {
	Code    *int    `json:"code,omitempty"`
	Message *string `json:"message,omitempty"`
	Field   *string `json:"field,omitempty"`
	Value   *string `json:"value,omitempty"`
}

func (e *WGAPIError) String() string {
	code, msg := 0, ""
	if e.Code != nil {
		code = *e.Code
	}
	if e.Message != nil {
		msg = *e.Message
	}
	return fmt.Sprintf("code: %d %s", code, msg)
}

// TankStatsResponse is the WG API tank-stats payload: rows grouped by the
// account id they were requested for.
type TankStatsResponse struct {
	Status string                     `json:"s"`
	Meta   map[string]json.RawMessage `json:"meta,omitempty"`
	Error  *WGAPIError                `json:"error,omitempty"`
	Data   map[string][]TankStat      `json:"d"`
}

// ParseTankStats parses a WG API tank-stats payload and finalizes every row.
func ParseTankStats(b []byte) (*TankStatsResponse, error) {
	var resp TankStatsResponse
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("invalid tank stats format: %w", err)
	}
	if resp.Status == "" {
		resp.Status = "ok"
	}
	for account, stats := range resp.Data {
		for i := range stats {
			if err := stats[i].Finalize(); err != nil {
				return nil, fmt.Errorf("tank stats for account %s: %w", account, err)
			}
		}
	}
	return &resp, nil
}
