package common

import "time"

// Mode is the category of a molecular action edge, e.g. activation or binding.
type Mode string

const (
	ModeActivation Mode = "activation"
	ModeBinding    Mode = "binding"
	ModeCatalysis  Mode = "catalysis"
	ModeExpression Mode = "expression"
	ModeInhibition Mode = "inhibition"
	ModePTMod      Mode = "ptmod"
	ModeReaction   Mode = "reaction"
)

// ActionModes lists every recognized action mode in schema order.
var ActionModes = []Mode{
	ModeActivation,
	ModeBinding,
	ModeCatalysis,
	ModeExpression,
	ModeInhibition,
	ModePTMod,
	ModeReaction,
}

// IsActionMode reports whether m is one of the recognized action modes.
// Evidence channels are not action modes.
func IsActionMode(m string) bool {
	for _, mode := range ActionModes {
		if string(mode) == m {
			return true
		}
	}
	return false
}

// IsDirectionalMode reports whether an action mode carries a direction.
// Binding, expression and reaction edges are undirected.
func IsDirectionalMode(m string) bool {
	switch Mode(m) {
	case ModeBinding, ModeExpression, ModeReaction:
		return false
	}
	return IsActionMode(m)
}

// Channel is the category of evidence supporting an interaction.
type Channel string

const (
	ChannelNeighborhood Channel = "neighborhood"
	ChannelFusion       Channel = "fusion"
	ChannelCooccurence  Channel = "cooccurence"
	ChannelCoexpression Channel = "coexpression"
	ChannelExperimental Channel = "experimental"
	ChannelDatabase     Channel = "database"
	ChannelTextmining   Channel = "textmining"
)

// EvidenceChannels lists the evidence channels in the column order of the
// evidence table and of the detailed link files.
var EvidenceChannels = []Channel{
	ChannelNeighborhood,
	ChannelFusion,
	ChannelCooccurence,
	ChannelCoexpression,
	ChannelExperimental,
	ChannelDatabase,
	ChannelTextmining,
}

// Alias maps a user-facing name to a canonical protein identifier. Many
// aliases map to one protein, and the same alias name may appear for
// different proteins coming from different sources.
type Alias struct {
	ProteinID string `json:"protein_id"`
	Alias     string `json:"alias"`
	Source    string `json:"source"`
}

// ActionRecord is one observed molecular action between two proteins as
// stored in the actions table.
type ActionRecord struct {
	ItemA         string  `json:"item_a"`
	ItemB         string  `json:"item_b"`
	Mode          string  `json:"mode"`
	Action        *string `json:"action,omitempty"`
	IsDirectional bool    `json:"is_directional"`
	AIsActing     bool    `json:"a_is_acting"`
	Score         int     `json:"score"`
}

// EvidenceRow is one wide row of the evidence table: a protein pair with a
// value per evidence channel and the combined score.
//
// Channels is indexed in the order of EvidenceChannels.
type EvidenceRow struct {
	Protein1      string `json:"protein1"`
	Protein2      string `json:"protein2"`
	Channels      [7]int `json:"channels"`
	CombinedScore int    `json:"combined_score"`
}

// ActionResult is one row returned by an action query after both members
// have been mapped back to display names.
type ActionResult struct {
	Gene1         string  `json:"gene1"`
	Gene2         string  `json:"gene2"`
	Mode          string  `json:"mode"`
	Action        *string `json:"action,omitempty"`
	IsDirectional bool    `json:"is_directional"`
	Gene1IsActing bool    `json:"gene1_is_acting"`
	Score         int     `json:"score"`
}

// EvidenceResult is one narrow evidence tuple: a single nonzero channel of
// an evidence row.
type EvidenceResult struct {
	Gene1   string `json:"gene1"`
	Gene2   string `json:"gene2"`
	Channel string `json:"channel"`
	Value   int    `json:"value"`
}

// Interaction is the unified raw row consumed by edge aggregation. Action
// results map onto it directly; evidence results use the channel as mode
// and the channel value as score.
type Interaction struct {
	A             string
	B             string
	Mode          string
	Action        *string
	IsDirectional bool
	AIsActing     bool
	Score         int
}

// FromActionResults converts action query results into aggregation input.
func FromActionResults(rows []ActionResult) []Interaction {
	out := make([]Interaction, len(rows))
	for i, r := range rows {
		out[i] = Interaction{
			A:             r.Gene1,
			B:             r.Gene2,
			Mode:          r.Mode,
			Action:        r.Action,
			IsDirectional: r.IsDirectional,
			AIsActing:     r.Gene1IsActing,
			Score:         r.Score,
		}
	}
	return out
}

// FromEvidenceResults converts evidence query results into aggregation input.
func FromEvidenceResults(rows []EvidenceResult) []Interaction {
	out := make([]Interaction, len(rows))
	for i, r := range rows {
		out[i] = Interaction{
			A:     r.Gene1,
			B:     r.Gene2,
			Mode:  r.Channel,
			Score: r.Value,
		}
	}
	return out
}

// LoadStatus is the lifecycle state of a bulk load run.
type LoadStatus string

const (
	LoadStatusRunning   LoadStatus = "running"
	LoadStatusCompleted LoadStatus = "completed"
	LoadStatusFailed    LoadStatus = "failed"
)

// LoadSources names the source files of one bulk load. Empty entries are
// skipped by the loader.
type LoadSources struct {
	Aliases  string `json:"aliases,omitempty"`
	Evidence string `json:"evidence,omitempty"`
	Actions  string `json:"actions,omitempty"`
}

// TableLoad summarizes the load of a single table.
type TableLoad struct {
	Table      string `json:"table"`
	Rows       int64  `json:"rows"`
	Batches    int    `json:"batches"`
	DurationMs int64  `json:"duration_ms"`
}

// LoadRun is the bookkeeping record of one bulk load.
type LoadRun struct {
	ID         string      `json:"id"`
	Status     LoadStatus  `json:"status"`
	Sources    LoadSources `json:"sources"`
	Tables     []TableLoad `json:"tables"`
	Error      string      `json:"error,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}
