package ragchat

import (
	"github.com/Malowking/ragchat/api/ragchat"
	"github.com/Malowking/ragchat/internal/logic/chat"
	"github.com/Malowking/ragchat/internal/logic/document"
	"github.com/Malowking/ragchat/internal/logic/session"
)

type ControllerV1 struct {
	chat      *chat.Service
	documents *document.Service
	sessions  *session.Service
}

func NewV1(chatSvc *chat.Service, documents *document.Service, sessions *session.Service) ragchat.IRagchatV1 {
	return &ControllerV1{
		chat:      chatSvc,
		documents: documents,
		sessions:  sessions,
	}
}
