package protocol

// Link catalogue. Order matters: IDs are assigned by registration order.
const (
	CmdInjectKey = "inject_key"
	CmdGetState  = "get_state"

	RespKeyEvent   = "key_event"
	RespLCDCommand = "lcd_command"
	RespLCDText    = "lcd_text"
	RespCalcState  = "calc_state"
	RespCalcResult = "calc_result"
	RespDebug      = "debug"
	RespVersion    = "version"
)

var catalogue = []struct {
	name   string
	format string
	kind   Kind
}{
	{CmdInjectKey, "key=%c", KindCommand},
	{CmdGetState, "", KindCommand},
	{RespKeyEvent, "key=%c source=%c", KindResponse},
	{RespLCDCommand, "cmd=%c", KindResponse},
	{RespLCDText, "text=%s", KindResponse},
	{RespCalcState, "state=%c a=%u b=%u", KindResponse},
	{RespCalcResult, "a=%u b=%u result=%u", KindResponse},
	{RespDebug, "text=%s", KindResponse},
	{RespVersion, "version=%s", KindResponse},
}

// Key sources reported in key_event.
const (
	KeySourceMatrix = 0
	KeySourceRemote = 1
)

// NewLinkRegistry returns a registry holding the full link catalogue with no
// handlers bound.
func NewLinkRegistry() *Registry {
	r := NewRegistry()
	for _, m := range catalogue {
		r.Register(m.name, m.format, m.kind)
	}
	return r
}
