package dto

type StartFlowRequest struct {
	Author string `json:"author"`
}

type SelectInstrumentRequest struct {
	Instrument string `json:"instrument"`
}

type SelectResourceRequest struct {
	ResourceID uint `json:"resource_id"`
}

type SelectDateRequest struct {
	Date string `json:"date"`
}

type ToggleTimeRequest struct {
	Label string `json:"label"`
}
