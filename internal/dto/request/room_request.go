package request

// CreateRoomRequest represents a room creation request
type CreateRoomRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Description string `json:"description,omitempty" binding:"omitempty,max=500"`
	Type        string `json:"type,omitempty" binding:"omitempty,oneof=public private team channel group"` // default: public
	MaxMembers  int    `json:"max_members,omitempty" binding:"omitempty,min=2,max=1000"`
}

// UpdateRoomRequest represents a room update request
type UpdateRoomRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,min=2,max=100"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=500"`
	MaxMembers  *int    `json:"max_members,omitempty" binding:"omitempty,min=2,max=1000"`
}

// PaginationRequest represents pagination parameters
type PaginationRequest struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=20" binding:"min=1,max=100"`
}

// Offset calculates the offset for database queries
func (p *PaginationRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}
