package dto

const DefaultRunsLimit = 50

type RunsRequest struct {
	Limit  int    `json:"limit" validate:"omitempty,min=1,max=500"`
	Target string `json:"target" validate:"omitempty,max=64,targetname"`
}
