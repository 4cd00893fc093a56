package models

// Requests for dashboard HTTP endpoints. Defined in domain for consistency and reuse.

type CompareRequest struct {
	Indicator string `query:"indicator" json:"indicator" default:"SP.POP.TOTL" validate:"required"`
	Codes     string `query:"codes" json:"codes" validate:"required_without=Preset"`
	Preset    string `query:"preset" json:"preset" validate:"required_without=Codes"`
	Mode      string `query:"mode" json:"mode" default:"mean" validate:"oneof=sum mean weighted_ratio"`
}

type TrendsRequest struct {
	Indicator string `query:"indicator" json:"indicator" default:"SP.POP.TOTL" validate:"required"`
	Codes     string `query:"codes" json:"codes" validate:"required_without=Preset"`
	Preset    string `query:"preset" json:"preset" validate:"required_without=Codes"`
	Mode      string `query:"mode" json:"mode" default:"mean" validate:"oneof=sum mean weighted_ratio"`
	Rebase    bool   `query:"rebase" json:"rebase"`
	From      int    `query:"from" json:"from" validate:"omitempty,gte=1960"`
	To        int    `query:"to" json:"to" validate:"omitempty,gte=1960"`
}

type MapRequest struct {
	Indicator string `query:"indicator" json:"indicator" default:"SP.POP.TOTL" validate:"required"`
}

type ExportRequest struct {
	Indicator string `query:"indicator" json:"indicator" default:"SP.POP.TOTL" validate:"required"`
	Codes     string `query:"codes" json:"codes" validate:"required_without=Preset"`
	Preset    string `query:"preset" json:"preset" validate:"required_without=Codes"`
	Mode      string `query:"mode" json:"mode" default:"mean" validate:"oneof=sum mean weighted_ratio"`
	Rebase    bool   `query:"rebase" json:"rebase"`
}

type LiveRequest struct {
	Codes  string `query:"codes" json:"codes" validate:"required_without=Preset"`
	Preset string `query:"preset" json:"preset" validate:"required_without=Codes"`
}
