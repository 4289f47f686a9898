package service

import "signal-export/internal/domain"

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func intPtr(v int) *int { return &v }

func message(id, convID string, ts *int64, sender *string) domain.MessageRecord {
	return domain.MessageRecord{
		ID:             id,
		ConversationID: convID,
		Timestamp:      ts,
		Type:           strPtr("private"),
		MessageName:    sender,
	}
}
