package connect

// Kind is the flavour of a notification.
type Kind int

const (
	Success Kind = iota
	Error
	Loading
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Error:
		return "error"
	case Loading:
		return "loading"
	default:
		return "unknown"
	}
}

// TxNotificationID groups the loading, success and error notifications of
// one purchase so a presenter can replace them in place.
const TxNotificationID = "coffee"

// Notification is a user-facing status message.
type Notification struct {
	ID      string // optional; same ID replaces the previous notification
	Kind    Kind
	Message string
}

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Messages shown on lifecycle transitions.
const (
	MsgConnected      = "Wallet connected!"
	MsgDisconnected   = "Wallet disconnected!"
	MsgSwitched       = "Wallet switched!"
	MsgBuying         = "Buying coffee..."
	MsgThanks         = "Thank you for the coffee!"
	MsgLoadFailed     = "Failed to load contributions"
	MsgConnectFirst   = "Please connect your wallet first"
	MsgConnectFailed  = "Failed to connect wallet"
	MsgPurchaseFailed = "Failed to buy coffee"
)
