package chathandler

type CreateConversationBody struct {
	Username string `json:"username" binding:"required,min=1,max=64" example:"bob"`
} // @name CreateConversationRequest

type SendMessageBody struct {
	ConversationID int64  `json:"conversation_id" binding:"required,gt=0" example:"42"`
	Content        string `json:"content"         binding:"required,min=1,max=4000"`
} // @name SendMessageRequest

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse
