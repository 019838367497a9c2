package request

// SendMessageRequest represents a message sending request
type SendMessageRequest struct {
	Content   string   `json:"content" binding:"required,max=5000"`
	Type      string   `json:"type,omitempty" binding:"omitempty,oneof=text image file voice video"` // default: text
	ReplyToID string   `json:"reply_to_id,omitempty"`
	Mentions  []string `json:"mentions,omitempty" binding:"omitempty,max=20"`
}

// UpdateMessageRequest represents a message edit request
type UpdateMessageRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

// ReactionRequest represents a reaction toggle request
type ReactionRequest struct {
	Emoji string `json:"emoji" binding:"required,max=16"`
}

// HistoryRequest represents message history query parameters
type HistoryRequest struct {
	Limit          int  `form:"limit,default=50" binding:"min=1,max=100"`
	Offset         int  `form:"offset,default=0" binding:"min=0"`
	IncludeDeleted bool `form:"include_deleted,default=false"`
}
