package models

// Conversation is an ordered, append-only list of messages. The only in-place
// mutation allowed is replacing the content of a trailing assistant message
// while its reply is streaming.
//
// Conversation is not safe for concurrent use; callers hold their own lock.
type Conversation struct {
	messages []Message
}

// NewConversation creates a conversation seeded with msgs.
func NewConversation(msgs ...Message) *Conversation {
	c := &Conversation{}
	c.messages = append(c.messages, msgs...)
	return c
}

// Append adds a message to the end of the conversation.
func (c *Conversation) Append(msg Message) {
	c.messages = append(c.messages, msg)
}

// UpsertTrailingAssistant replaces the content of the last message if it is
// an assistant message, otherwise it appends a new assistant message.
func (c *Conversation) UpsertTrailingAssistant(content string) {
	if n := len(c.messages); n > 0 && c.messages[n-1].Role == RoleAssistant {
		c.messages[n-1].Content = content
		return
	}
	c.messages = append(c.messages, AssistantMessage(content))
}

// Messages returns a copy of the conversation.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Last returns the final message and whether one exists.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// LastAssistant returns the most recent assistant message.
func (c *Conversation) LastAssistant() (Message, bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleAssistant {
			return c.messages[i], true
		}
	}
	return Message{}, false
}
