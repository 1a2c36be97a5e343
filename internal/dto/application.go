package dto

// UpdateStatusRequest carries the administrator's target status for an
// application. The closed status set is re-checked in the service layer.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
