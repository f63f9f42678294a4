package ipc

// Command names accepted by a running party.
const (
	CommandStatus     = "status"
	CommandExtinguish = "extinguish"
	CommandBlow       = "blow"
	CommandRelight    = "relight"
	CommandMic        = "mic"
	CommandCandles    = "candles"
	CommandMessage    = "message"
	CommandDismiss    = "dismiss"
	CommandFlower     = "flower"
)

// Request is one newline-delimited JSON command.
type Request struct {
	Command string `json:"command"`
	Index   *int   `json:"index,omitempty"`
	Value   string `json:"value,omitempty"`
}

// Response reports the outcome plus a party snapshot.
type Response struct {
	OK           bool   `json:"ok"`
	State        string `json:"state,omitempty"`
	Message      string `json:"message,omitempty"`
	Error        string `json:"error,omitempty"`
	Total        int    `json:"total,omitempty"`
	Extinguished int    `json:"extinguished"`
	Complete     bool   `json:"complete"`
	Listening    bool   `json:"listening"`
	PartyID      string `json:"party_id,omitempty"`
}
