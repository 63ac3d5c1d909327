package request

type CreateItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
	Available   *bool  `json:"available" binding:"required"`
}

type UpdateItemAvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

type CreateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}
