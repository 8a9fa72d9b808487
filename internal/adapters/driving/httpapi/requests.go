package httpapi

import (
	"fmt"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

// historyTurn is one wire history entry. Images are optional image
// references (URLs or data URIs) attached to the turn.
type historyTurn struct {
	Role    string   `json:"role" binding:"required"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatRequest struct {
	UserID    string        `json:"user_id" binding:"required"`
	Query     string        `json:"query" binding:"required"`
	History   []historyTurn `json:"history"`
	ProjectID string        `json:"project_id"`

	// Stream defaults to true when omitted.
	Stream *bool `json:"stream"`
}

func (r chatRequest) streaming() bool {
	return r.Stream == nil || *r.Stream
}

func (r chatRequest) toDomain() (domain.ChatRequest, error) {
	history, err := parseHistory(r.History)
	if err != nil {
		return domain.ChatRequest{}, err
	}
	return domain.ChatRequest{
		Owner:         domain.Owner(r.UserID),
		Query:         r.Query,
		History:       history,
		SubCollection: r.ProjectID,
	}, nil
}

func parseHistory(turns []historyTurn) ([]domain.ConversationTurn, error) {
	if len(turns) == 0 {
		return nil, nil
	}
	out := make([]domain.ConversationTurn, 0, len(turns))
	for i, t := range turns {
		role, err := domain.ParseRole(t.Role)
		if err != nil {
			return nil, fmt.Errorf("history[%d]: %w", i, err)
		}
		var turn domain.ConversationTurn
		if len(t.Images) > 0 {
			turn, err = domain.NewMultimodalTurn(role, t.Content, t.Images)
		} else {
			turn, err = domain.NewTextTurn(role, t.Content)
		}
		if err != nil {
			return nil, fmt.Errorf("history[%d]: %w", i, err)
		}
		out = append(out, turn)
	}
	return out, nil
}

type contextRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Query  string `json:"query" binding:"required"`
}

type contextResponse struct {
	*domain.ContextReport
	NResults int `json:"n_results"`
}

type indexRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type analyzeRequest struct {
	UserID    string `json:"user_id"`
	ImageData string `json:"image_data" binding:"required"`
	Query     string `json:"query"`
	ProjectID string `json:"project_id"`

	// GenerateDescription switches to the synchronous description mode.
	GenerateDescription bool `json:"generate_description"`
}

type describeResponse struct {
	Success bool `json:"success"`
	domain.AssetDescription
}

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
