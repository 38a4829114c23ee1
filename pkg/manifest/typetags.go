package manifest

// Canonical data_type tags shared by every bundled trading service's
// blueprint. Keeping them in one place is the single mapping table the
// design notes call for, so blueprint ports and message payloads never
// drift out of sync.
const (
	TypeMarketTick     = "MarketTick"
	TypeOrderIntent    = "OrderIntent"
	TypeFill           = "Fill"
	TypeRiskVerdict    = "RiskVerdict"
	TypePortfolioState = "PortfolioState"
)

// KnownDataTypes lists every tag registered above, for validation and
// discovery tooling that wants to reject unrecognized port types early.
var KnownDataTypes = []string{
	TypeMarketTick,
	TypeOrderIntent,
	TypeFill,
	TypeRiskVerdict,
	TypePortfolioState,
}
