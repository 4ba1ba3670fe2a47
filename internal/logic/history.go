package logic

import "campus-chat/internal/models"

// BuildHistory converts a thread into AI request history.
// Messages sent by userID become user turns; everything else is a model turn.
func BuildHistory(messages []models.Message, userID string) []models.HistoryEntry {
	history := make([]models.HistoryEntry, 0, len(messages))
	for _, m := range messages {
		role := models.RoleModel
		if m.SenderID == userID {
			role = models.RoleUser
		}
		history = append(history, models.HistoryEntry{Role: role, Text: m.Text})
	}
	return history
}
