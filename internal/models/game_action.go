package models

// Action types recorded for the audit trail.
const (
	ActionJoin        = "action_join"
	ActionStart       = "action_start"
	ActionDraw        = "action_draw"
	ActionSwap        = "action_swap"
	ActionDiscard     = "action_discard"
	ActionPeek        = "action_peek"
	ActionPowerSwap   = "action_power_swap"
	ActionSkipPower   = "action_skip_power"
	ActionSnap        = "action_snap"
	ActionSnapFail    = "action_snap_fail"
	ActionCallDutch   = "action_call_dutch"
	ActionRestart     = "action_restart"
	ActionLeave       = "action_leave"
	ActionRoundEnd    = "action_round_end"
	ActionRulesUpdate = "action_rules_update"
)

// GameAction captures a player's in-game move
type GameAction struct {
	ActionType string                 `json:"action_type"`
	Payload    map[string]interface{} `json:"payload"`
}
