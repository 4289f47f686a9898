package domain

import "time"

// Conversation agrupa los mensajes ordenados de una conversacion.
type Conversation struct {
	ProfileName    *string         `json:"profile_name,omitempty"`
	ConversationID string          `json:"conversation_id"`
	ConvType       string          `json:"conv_type"`
	E164           *int64          `json:"e164,omitempty"`
	Messages       []MessageRecord `json:"messages"`
}

// DisplayName devuelve el nombre de perfil o, si falta, el id de la conversacion.
func (c Conversation) DisplayName() string {
	if c.ProfileName != nil {
		return *c.ProfileName
	}
	return c.ConversationID
}

// ExportRun resume una ejecucion completa del export.
type ExportRun struct {
	ID               string    `json:"id"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	Rows             int       `json:"rows"`
	SkippedPayloads  int       `json:"skipped_payloads"`
	FilteredMessages int       `json:"filtered_messages"`
	Conversations    int       `json:"conversations"`
	Messages         int       `json:"messages"`
	FilesWritten     int       `json:"files_written"`
	FilesFailed      int       `json:"files_failed"`
	Mirrored         int       `json:"mirrored"`
}
