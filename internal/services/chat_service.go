package services

import (
	"context"
	"fmt"
	"strings"

	"travelatlas/internal/ai"
	"travelatlas/internal/domain"
	"travelatlas/internal/domain/models"
	"travelatlas/internal/utils"
)

// ChatInput is the body of POST /api/ai/chat.
type ChatInput struct {
	Message     string       `json:"message" binding:"required,max=4000"`
	ItineraryID string       `json:"itinerary_id"`
	History     []ai.Message `json:"history" binding:"max=100,dive"`
}

// ChatReply carries the assistant text and any activities it suggested.
type ChatReply struct {
	Reply               string            `json:"reply"`
	SuggestedActivities []models.Activity `json:"suggested_activities"`
}

// ChatService answers planning questions, optionally about one itinerary.
type ChatService struct {
	AI          ai.Client
	Itineraries ItineraryService
	RequestID   string
}

func (s ChatService) Chat(ctx context.Context, userID string, in ChatInput) (ChatReply, error) {
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return ChatReply{}, domain.ValidationError{Field: "message", Msg: "message is required"}
	}
	if s.AI == nil {
		return ChatReply{}, domain.UnavailableError{Service: "ai"}
	}

	var detail *models.ItineraryDetail
	if id := strings.TrimSpace(in.ItineraryID); id != "" {
		d, err := s.Itineraries.Detail(ctx, userID, id)
		if err != nil {
			return ChatReply{}, err
		}
		detail = &d
	}

	req, err := ai.ChatRequest(msg, in.History, detail)
	if err != nil {
		return ChatReply{}, domain.InternalError{Msg: "could not build chat prompt", Err: err}
	}
	out, err := s.AI.Complete(ctx, req)
	if err != nil {
		utils.LogFailure(s.RequestID, "ai", "chat", err)
		return ChatReply{}, err
	}

	text, suggestions := ai.SplitSuggestions(out)
	if text == "" && len(suggestions) == 0 {
		return ChatReply{}, domain.BadUpstreamError{Service: "ai", Err: fmt.Errorf("empty reply")}
	}
	if suggestions == nil {
		suggestions = []models.Activity{}
	}
	utils.LogEvent(s.RequestID, "ai", "chat", fmt.Sprintf("history=%d suggestions=%d", len(in.History), len(suggestions)))
	return ChatReply{Reply: text, SuggestedActivities: suggestions}, nil
}
