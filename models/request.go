package models

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

type SwitchProviderRequest struct {
	Provider string `json:"provider" binding:"required"`
}

type SetModelRequest struct {
	Model string `json:"model" binding:"required"`
}
