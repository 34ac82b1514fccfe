package chat

// Inbound event names
const (
	EventJoinQueue     = "join_queue"
	EventAttendantJoin = "attendant_join"
	EventPickClient    = "pick_client"
	EventSendMessage   = "send_message"
	EventEndChat       = "end_chat"
	EventClosedChats   = "get_closed_chats"
	EventFetchHistory  = "fetch_history_messages"
)

// Outbound event names
const (
	EventJoinedQueue     = "joined_queue"
	EventQueueUpdate     = "queue_update"
	EventActiveChats     = "active_chats_update"
	EventChatStarted     = "chat_started"
	EventChatHistory     = "chat_history"
	EventReceiveMessage  = "receive_message"
	EventChatEnded       = "chat_ended"
	EventClosedChatsList = "closed_chats_list"
	EventHistoryMessages = "history_messages_received"
)
