package domain

// Entry is one presentable result contributed by a plugin
type Entry struct {
	ID     string // unique within the owning plugin, used as activation key
	Title  string // display string
	Action string // what activation means ("focus", "open"); empty means no-op
	Meta   string // secondary text such as a category
}

// PluginInfo identifies a plugin and its section in the aggregate list
type PluginInfo struct {
	ID       string
	Priority uint // lower value is shown first
	Title    string
}

// RequestSender is the sending end of a plugin's request mailbox.
// Sends never block; a full or closed mailbox returns an error.
type RequestSender interface {
	TrySend(req PluginRequest) error
}

// MessageSender is the sending end of a plugin's event mailbox toward the controller
type MessageSender interface {
	TrySend(msg ControllerMessage) error
}
