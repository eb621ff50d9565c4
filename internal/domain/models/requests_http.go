package models

// Requests for the analytics HTTP endpoints. Dates are YYYY-MM-DD; empty means "default".

type DatasetRequest struct {
	Series string `query:"series" json:"series" validate:"required,symbols"`
	Start  string `query:"start" json:"start" validate:"omitempty,datetime=2006-01-02"`
	End    string `query:"end" json:"end" validate:"omitempty,datetime=2006-01-02"`
}

type ReturnsRequest struct {
	Assets string `query:"assets" json:"assets" validate:"omitempty,symbols"`
	Period string `query:"period" json:"period" validate:"omitempty,period"`
	End    string `query:"end" json:"end" validate:"omitempty,datetime=2006-01-02"`
}

type SignalRequest struct {
	AsOf string `query:"as_of" json:"as_of" validate:"omitempty,datetime=2006-01-02"`
}

type SignalRangeRequest struct {
	Start string `query:"start" json:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `query:"end" json:"end" validate:"omitempty,datetime=2006-01-02"`
}
