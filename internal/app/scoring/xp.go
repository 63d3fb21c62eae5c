package scoring

import "github.com/hotelops/hotelscore/internal/domain"

// Base XP per action type.
const (
	XPCreateIncident       int64 = 10
	XPResolveIncident      int64 = 30
	XPCreateMaintenance    int64 = 10
	XPCompleteMaintenance  int64 = 20
	XPCompleteQualityCheck int64 = 15
	XPRegisterLostItem     int64 = 10
	XPReturnLostItem       int64 = 20
	XPCreateProcedure      int64 = 30
	XPReadProcedure        int64 = 5
	XPValidateProcedure    int64 = 15
	XPLogin                int64 = 5
	XPHelpColleague        int64 = 15
	XPReceiveThanks        int64 = 10
	XPCompleteWeeklyGoal   int64 = 50
)

// Conditional bonuses.
const (
	CriticalMultiplier   float64 = 1.5
	XPQuickMaintenance   int64   = 10
	XPHighQuality        int64   = 10
	HighQualityThreshold float64 = 90
	XPLoginStreakBonus   int64   = 10
)

// XPResolveCriticalIncident is what a critical-severity resolution earns with the default table.
const XPResolveCriticalIncident = int64(float64(XPResolveIncident) * CriticalMultiplier)

// XPTable is the action → XP configuration. Base entries missing from the
// map score zero.
type XPTable struct {
	Base                 map[domain.ActionType]int64
	CriticalMultiplier   float64
	QuickMaintenance     int64
	HighQuality          int64
	HighQualityThreshold float64
	LoginStreakBonus     int64
}

// DefaultXPTable returns the stock configuration.
func DefaultXPTable() XPTable {
	return XPTable{
		Base: map[domain.ActionType]int64{
			domain.ActionCreateIncident:       XPCreateIncident,
			domain.ActionResolveIncident:      XPResolveIncident,
			domain.ActionCreateMaintenance:    XPCreateMaintenance,
			domain.ActionCompleteMaintenance:  XPCompleteMaintenance,
			domain.ActionCompleteQualityCheck: XPCompleteQualityCheck,
			domain.ActionRegisterLostItem:     XPRegisterLostItem,
			domain.ActionReturnLostItem:       XPReturnLostItem,
			domain.ActionCreateProcedure:      XPCreateProcedure,
			domain.ActionReadProcedure:        XPReadProcedure,
			domain.ActionValidateProcedure:    XPValidateProcedure,
			domain.ActionLogin:                XPLogin,
			domain.ActionHelpColleague:        XPHelpColleague,
			domain.ActionReceiveThanks:        XPReceiveThanks,
			domain.ActionCompleteWeeklyGoal:   XPCompleteWeeklyGoal,
		},
		CriticalMultiplier:   CriticalMultiplier,
		QuickMaintenance:     XPQuickMaintenance,
		HighQuality:          XPHighQuality,
		HighQualityThreshold: HighQualityThreshold,
		LoginStreakBonus:     XPLoginStreakBonus,
	}
}

// WithOverrides returns a copy of t with the given base values replaced.
// Negative overrides are ignored so XP stays monotonic.
func (t XPTable) WithOverrides(base map[domain.ActionType]int64) XPTable {
	cp := t
	cp.Base = make(map[domain.ActionType]int64, len(t.Base))
	for k, v := range t.Base {
		cp.Base[k] = v
	}
	for k, v := range base {
		if v >= 0 {
			cp.Base[k] = v
		}
	}
	return cp
}

func (t XPTable) base(a domain.ActionType) int64 {
	return t.Base[a]
}
