package inout

import "fmt"

// Role identifies a fixed slot of the signal universe. The thresholds were
// tuned for the default tickers, so roles are not configurable.
type Role int

const (
	RoleMarket Role = iota
	RoleProduction
	RoleMetals
	RoleResources
	RoleDebt
	RoleDollar
	RoleGold
	RoleSilver
	RoleUtilities
	RoleIndustrials
)

var roleNames = [...]string{"market", "production", "metals", "resources", "debt", "dollar", "gold", "silver", "utilities", "industrials"}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

// DefaultTickers maps each role to the instrument it was calibrated on.
var DefaultTickers = map[Role]string{
	RoleMarket:      "QQQ",
	RoleProduction:  "XLI",
	RoleMetals:      "DBB",
	RoleResources:   "IGE",
	RoleDebt:        "SHY",
	RoleDollar:      "UUP",
	RoleGold:        "GLD",
	RoleSilver:      "SLV",
	RoleUtilities:   "XLU",
	RoleIndustrials: "XLI",
}

// Pair indicator names.
const (
	PairGoldSilver        = "G_S"
	PairUtilitiesIndustry = "U_I"
)

// signalRoles is the ordered list of single-instrument stress signals.
var signalRoles = []Role{RoleProduction, RoleMetals, RoleResources, RoleDollar, RoleDebt, RoleMarket}

// Universe binds roles and holdings to concrete symbols.
type Universe struct {
	Tickers   map[Role]string
	Bull      string
	Bear      []string
	Benchmark string
}

// NewUniverse builds a universe on the default tickers.
func NewUniverse(bull string, bear []string, benchmark string) Universe {
	t := make(map[Role]string, len(DefaultTickers))
	for r, s := range DefaultTickers {
		t[r] = s
	}
	return Universe{Tickers: t, Bull: bull, Bear: append([]string(nil), bear...), Benchmark: benchmark}
}

// Symbol returns the ticker bound to r.
func (u Universe) Symbol(r Role) string { return u.Tickers[r] }

// SignalSymbols returns the six single-instrument signal tickers in order.
func (u Universe) SignalSymbols() []string {
	out := make([]string, 0, len(signalRoles))
	for _, r := range signalRoles {
		out = append(out, u.Tickers[r])
	}
	return out
}

// Symbols returns every instrument the strategy needs history for, deduplicated,
// in a stable order.
func (u Universe) Symbols() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, r := range signalRoles {
		add(u.Tickers[r])
	}
	for _, r := range []Role{RoleGold, RoleSilver, RoleUtilities, RoleIndustrials} {
		add(u.Tickers[r])
	}
	for _, s := range u.Bear {
		add(s)
	}
	add(u.Bull)
	add(u.Benchmark)
	return out
}
