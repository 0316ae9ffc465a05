package dto

// LogRequest selects a window of <target>.log.
type LogRequest struct {
	Target string `json:"target" validate:"required,max=64,targetname"`
	// Stride is a line count; negative pages backward from Cursor.
	Stride int `json:"stride"`
	// Cursor defaults to the end of the file.
	Cursor *int `json:"cursor,omitempty"`
}

type LogWindowResponse struct {
	Data  string `json:"data"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}
