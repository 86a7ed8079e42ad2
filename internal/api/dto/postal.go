package dto

import (
	"route-planner-service/internal/domain"
	"route-planner-service/internal/services"
)

type PostalCodeResponse struct {
	PostalCode  string  `json:"postal_code"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Description string  `json:"description"`
}

func NewPostalCodeResponse(code string, loc domain.Location) PostalCodeResponse {
	return PostalCodeResponse{
		PostalCode:  code,
		Lat:         loc.Coordinates.Lat,
		Lng:         loc.Coordinates.Lng,
		Description: loc.Description,
	}
}

type BatchRequest struct {
	PostalCodes []string `json:"postal_codes" validate:"required,min=1,max=500"`
}

const (
	BatchStatusSuccess = "success"
	BatchStatusError   = "error"
)

type BatchItem struct {
	Input      string `json:"input"`
	PostalCode string `json:"postal_code,omitempty"`
	Status     string `json:"status"`
	Stop       *Stop  `json:"stop,omitempty"`
	Error      string `json:"error,omitempty"`
}

type BatchResponse struct {
	Results      []BatchItem `json:"results"`
	SuccessCount int         `json:"success_count"`
	ErrorCount   int         `json:"error_count"`
}

// NewBatchItem renders one outcome. errMessage turns the error into client-facing text.
func NewBatchItem(o services.BatchOutcome, errMessage func(error) string) BatchItem {
	item := BatchItem{Input: o.Input, PostalCode: o.PostalCode}
	if o.Err != nil {
		item.Status = BatchStatusError
		item.Error = errMessage(o.Err)
		return item
	}
	s := NewStop(*o.Stop)
	item.Status = BatchStatusSuccess
	item.Stop = &s
	return item
}
