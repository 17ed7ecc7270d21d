package models

// Requests for the analysis HTTP endpoints. Defined in domain for consistency and reuse.

type AnalysisRequest struct {
	City string `query:"city" json:"city" default:"NYC" validate:"required,alphanum,uppercase"`
	Date string `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type SignalsRequest struct {
	City    string  `query:"city" json:"city" default:"NYC" validate:"required,alphanum,uppercase"`
	MinEdge float64 `query:"min_edge" json:"min_edge" validate:"gte=0,lte=1"`
}

type CalibrationRequest struct {
	City string `query:"city" json:"city" default:"NYC" validate:"required,alphanum,uppercase"`
	Days int    `query:"days" json:"days" default:"30" validate:"gte=1,lte=365"`
}
